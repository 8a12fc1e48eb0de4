package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorRed     = lipgloss.Color("#FF5F5F")
	colorGreen   = lipgloss.Color("#5FD75F")
	colorYellow  = lipgloss.Color("#FFD75F")
	colorCyan    = lipgloss.Color("#5FD7FF")
	colorMagenta = lipgloss.Color("#D787FF")
	colorGray    = lipgloss.Color("#767676")
	colorDimGray = lipgloss.Color("#444444")
	colorWhite   = lipgloss.Color("#FFFFFF")
	colorBlack   = lipgloss.Color("#000000")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	recordingDotStyle = lipgloss.NewStyle().
				Foreground(colorRed).
				Bold(true)

	idleDotStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	speakerABadgeStyle = lipgloss.NewStyle().
				Foreground(colorBlack).
				Background(colorCyan).
				Bold(true).
				Padding(0, 1)

	speakerBBadgeStyle = lipgloss.NewStyle().
				Foreground(colorBlack).
				Background(colorMagenta).
				Bold(true).
				Padding(0, 1)

	speakerAStyle = lipgloss.NewStyle().
			Foreground(colorCyan).
			Bold(true)

	speakerBStyle = lipgloss.NewStyle().
			Foreground(colorMagenta).
			Bold(true)

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	timestampStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	statusStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	noticeStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	workingStyle = lipgloss.NewStyle().
			Foreground(colorMagenta)

	liveBadgeStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	scrollBadgeStyle = lipgloss.NewStyle().
				Foreground(colorYellow).
				Bold(true)

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(colorYellow).
			Bold(true)

	footerDescStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	dividerStyle = lipgloss.NewStyle().
			Foreground(colorDimGray)
)
