package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sambhavnoobcoder/solvent-ai/internal/transcript"
)

const (
	summaryPanelLines = 6
	// header, status bar, three dividers, two panel titles, status line, footer
	reservedLines = 9
	indent        = "  "
)

func (m Model) transcriptVisibleLines() int {
	if m.height == 0 {
		return 15
	}
	return max(3, m.height-reservedLines-summaryPanelLines)
}

func (m Model) contentWidth() int {
	if m.width == 0 {
		return 80
	}
	return max(20, m.width-len(indent))
}

func (m Model) maxScroll() int {
	total := len(m.transcriptLines())
	visible := m.transcriptVisibleLines()
	if total <= visible {
		return 0
	}
	return total - visible
}

// View renders the full screen.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}
	divider := dividerStyle.Render(strings.Repeat("─", m.width))

	sections := []string{
		m.renderHeader(),
		m.renderStatusBar(),
		divider,
		m.renderTranscriptPanel(),
		divider,
		m.renderSummaryPanel(),
		divider,
		m.renderStatusLine(),
		m.renderFooter(),
	}
	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	return titleStyle.Render("CONVOSCRIBE") + dimStyle.Render("  "+m.speakerA+" ⇄ "+m.speakerB)
}

func (m Model) renderStatusBar() string {
	var dot string
	if m.active {
		dot = recordingDotStyle.Render("● REC")
	} else {
		dot = idleDotStyle.Render("○ IDLE")
	}
	bar := dot + "  " + dimStyle.Render("speaker ") + m.speakerBadge(m.speaker)
	if m.summarizing {
		bar += "  " + workingStyle.Render("⟳ summarizing")
	}
	return bar
}

func (m Model) speakerBadge(speaker string) string {
	if speaker == m.speakerB {
		return speakerBBadgeStyle.Render(speaker)
	}
	return speakerABadgeStyle.Render(speaker)
}

func (m Model) speakerLabel(speaker string) string {
	switch speaker {
	case m.speakerA:
		return speakerAStyle.Render(speaker)
	case m.speakerB:
		return speakerBStyle.Render(speaker)
	}
	return speaker
}

// transcriptLines wraps the transcript for display, one entry per screen row.
func (m Model) transcriptLines() []string {
	if m.missing || m.raw == "" {
		return nil
	}
	width := m.contentWidth()
	var out []string
	for _, raw := range strings.Split(strings.TrimRight(m.raw, "\n"), "\n") {
		line, ok := transcript.ParseLine(raw, time.Local)
		if !ok {
			out = append(out, wrapText(raw, width)...)
			continue
		}
		prefix := timestampStyle.Render(line.Timestamp.Format("[15:04:05]")) + " " + m.speakerLabel(line.Speaker) + ": "
		prefixWidth := lipgloss.Width(prefix)
		wrapped := wrapText(line.Text, max(10, width-prefixWidth))
		out = append(out, prefix+wrapped[0])
		pad := strings.Repeat(" ", prefixWidth)
		for _, w := range wrapped[1:] {
			out = append(out, pad+w)
		}
	}
	return out
}

func (m Model) renderTranscriptPanel() string {
	badge := liveBadgeStyle.Render(" LIVE")
	if !m.live {
		badge = scrollBadgeStyle.Render(" SCROLL")
	}
	lines := []string{panelTitleStyle.Render("TRANSCRIPT") + badge}
	height := m.transcriptVisibleLines()

	all := m.transcriptLines()
	if len(all) == 0 {
		lines = append(lines, indent+dimStyle.Render(messageNoTranscript))
	} else {
		start := m.scroll
		if m.live {
			start = max(0, len(all)-height)
		}
		start = min(max(0, start), len(all))
		end := min(start+height, len(all))
		for _, l := range all[start:end] {
			lines = append(lines, indent+l)
		}
	}
	return strings.Join(padLines(lines, height+1), "\n")
}

func (m Model) renderSummaryPanel() string {
	lines := []string{panelTitleStyle.Render("SUMMARY")}
	style := lipgloss.NewStyle()
	if m.summary == messageNoSummary {
		style = dimStyle
	}
	wrapped := wrapText(m.summary, m.contentWidth())
	if len(wrapped) > summaryPanelLines {
		wrapped = append(wrapped[:summaryPanelLines-1], "…")
	}
	for _, w := range wrapped {
		lines = append(lines, indent+style.Render(w))
	}
	return strings.Join(padLines(lines, summaryPanelLines+1), "\n")
}

func (m Model) renderStatusLine() string {
	var s string
	if m.statusErr {
		s = errorStyle.Render(m.status)
	} else {
		s = statusStyle.Render(m.status)
	}
	if m.notice != "" {
		s += "  " + noticeStyle.Render(m.notice)
	}
	return s
}

func (m Model) renderFooter() string {
	toggle := " Start"
	if m.active {
		toggle = " Stop"
	}
	parts := []string{
		footerKeyStyle.Render("Space") + footerDescStyle.Render(toggle),
		footerKeyStyle.Render("s") + footerDescStyle.Render(" Switch speaker"),
		footerKeyStyle.Render("g") + footerDescStyle.Render(" Summary"),
		footerKeyStyle.Render("↑↓") + footerDescStyle.Render(" Scroll"),
		footerKeyStyle.Render("q") + footerDescStyle.Render(" Quit"),
	}
	return strings.Join(parts, "  ")
}

func padLines(lines []string, height int) []string {
	for len(lines) < height {
		lines = append(lines, "")
	}
	return lines[:height]
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var current string
		for _, word := range strings.Fields(paragraph) {
			switch {
			case current == "":
				current = word
			case lipgloss.Width(current)+1+lipgloss.Width(word) <= width:
				current += " " + word
			default:
				lines = append(lines, current)
				current = word
			}
		}
		lines = append(lines, current)
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
