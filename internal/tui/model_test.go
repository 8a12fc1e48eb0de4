package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sambhavnoobcoder/solvent-ai/internal/session"
	"github.com/sambhavnoobcoder/solvent-ai/internal/summarizer"
	"github.com/sambhavnoobcoder/solvent-ai/internal/transcript"
)

type fakeSession struct {
	active  bool
	current int
	starts  int
	stops   int
}

var fakeSpeakers = [2]string{"Doctor", "Patient"}

func (f *fakeSession) Start(context.Context) (string, error) {
	f.starts++
	if f.active {
		return session.MessageAlreadyRunning, nil
	}
	f.active = true
	return session.MessageStarted, nil
}

func (f *fakeSession) Stop(context.Context) (string, error) {
	f.stops++
	if !f.active {
		return session.MessageNotRunning, nil
	}
	f.active = false
	return session.MessageStopped, nil
}

func (f *fakeSession) SwitchSpeaker() string {
	f.current = 1 - f.current
	return "Switched to " + fakeSpeakers[f.current]
}

func (f *fakeSession) Active() bool               { return f.active }
func (f *fakeSession) Speaker() string            { return fakeSpeakers[f.current] }
func (f *fakeSession) Speakers() (string, string) { return fakeSpeakers[0], fakeSpeakers[1] }

type fakeSummarizer struct {
	result summarizer.Result
	err    error
	runs   int
}

func (f *fakeSummarizer) Run(context.Context) (summarizer.Result, error) {
	f.runs++
	return f.result, f.err
}

type fakeReader struct {
	raw string
	err error
}

func (f *fakeReader) Read() (string, error) { return f.raw, f.err }

type harness struct {
	session    *fakeSession
	summarizer *fakeSummarizer
	reader     *fakeReader
}

func newModel() (Model, *harness) {
	h := &harness{
		session:    &fakeSession{},
		summarizer: &fakeSummarizer{result: summarizer.Result{Summary: "The patient feels tired."}},
		reader:     &fakeReader{err: transcript.ErrNotFound},
	}
	m := New(context.Background(), Deps{Session: h.session, Summarizer: h.summarizer, Transcript: h.reader})
	m.width = 100
	m.height = 30
	return m, h
}

func applyUpdate(m Model, msg tea.Msg) (Model, tea.Cmd) {
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			m, _ = applyUpdate(m, c())
		}
		return m
	}
	m, _ = applyUpdate(m, msg)
	return m
}

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func space() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
}

func TestNewModel(t *testing.T) {
	m, _ := newModel()
	if m.active {
		t.Error("new model should not be active")
	}
	if m.speaker != "Doctor" {
		t.Errorf("speaker = %q, want Doctor", m.speaker)
	}
	if !m.live {
		t.Error("new model should follow the transcript")
	}
}

func TestSpaceStartsAndStops(t *testing.T) {
	m, h := newModel()

	m, cmd := applyUpdate(m, space())
	if !m.busy {
		t.Fatal("expected busy while starting")
	}
	if _, again := applyUpdate(m, space()); again != nil {
		t.Fatal("second press while busy must be ignored")
	}
	m = run(t, m, cmd)
	if m.status != session.MessageStarted || !m.active || m.busy {
		t.Fatalf("unexpected state after start: status=%q active=%v busy=%v", m.status, m.active, m.busy)
	}

	m, cmd = applyUpdate(m, space())
	m = run(t, m, cmd)
	if m.status != session.MessageStopped || m.active {
		t.Fatalf("unexpected state after stop: status=%q active=%v", m.status, m.active)
	}
	if h.session.starts != 1 || h.session.stops != 1 {
		t.Fatalf("starts=%d stops=%d", h.session.starts, h.session.stops)
	}
}

func TestSwitchSpeaker(t *testing.T) {
	m, _ := newModel()

	m, _ = applyUpdate(m, key('s'))
	if m.status != "Switched to Patient" || m.speaker != "Patient" {
		t.Fatalf("status=%q speaker=%q", m.status, m.speaker)
	}
	if !strings.Contains(m.View(), "Patient") {
		t.Error("view should show the current speaker")
	}

	m, _ = applyUpdate(m, key('s'))
	if m.speaker != "Doctor" {
		t.Fatalf("speaker = %q, want Doctor", m.speaker)
	}
}

func TestGenerateSummary(t *testing.T) {
	m, h := newModel()

	m, cmd := applyUpdate(m, key('g'))
	if !m.summarizing || m.status != messageSummarizing {
		t.Fatalf("expected summarizing state, status=%q", m.status)
	}
	if _, again := applyUpdate(m, key('g')); again != nil {
		t.Fatal("second request while summarizing must be ignored")
	}
	m = run(t, m, cmd)
	if m.summarizing {
		t.Error("summarizing should be cleared")
	}
	if m.summary != "The patient feels tired." {
		t.Fatalf("summary = %q", m.summary)
	}
	if !strings.Contains(m.View(), "The patient feels tired.") {
		t.Error("view should show the summary")
	}
	if h.summarizer.runs != 1 {
		t.Fatalf("runs = %d, want 1", h.summarizer.runs)
	}
}

func TestGenerateSummaryErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "missing transcript", err: transcript.ErrNotFound, want: summarizer.MessageUnavailable},
		{name: "model failure", err: errors.New("model loading"), want: "Error generating summary: model loading"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, h := newModel()
			h.summarizer.err = tt.err

			m, cmd := applyUpdate(m, key('g'))
			m = run(t, m, cmd)
			if m.summary != tt.want {
				t.Fatalf("summary = %q, want %q", m.summary, tt.want)
			}
			if !m.statusErr {
				t.Error("status should be flagged as an error")
			}
		})
	}
}

func TestTranscriptView(t *testing.T) {
	m, h := newModel()

	m = run(t, m, loadTranscriptCmd(h.reader))
	if !strings.Contains(m.View(), messageNoTranscript) {
		t.Fatal("missing transcript should show the placeholder")
	}

	h.reader.raw = "2024-01-01 10:00:00 - Doctor: How are you feeling?\n2024-01-01 10:00:05 - Patient: A bit tired.\n"
	h.reader.err = nil
	m, cmd := applyUpdate(m, transcriptChangedMsg{})
	m = run(t, m, cmd)
	view := m.View()
	for _, want := range []string{"[10:00:00]", "How are you feeling?", "A bit tired."} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Contains(view, messageNoTranscript) {
		t.Error("placeholder should be gone")
	}
}

func TestTickRefreshesActiveState(t *testing.T) {
	m, h := newModel()
	h.session.active = true

	m, cmd := applyUpdate(m, tickMsg{})
	if !m.active {
		t.Fatal("tick should pick up the session state")
	}
	if cmd == nil {
		t.Fatal("tick should schedule a reload and the next tick")
	}
}

func TestSessionEvents(t *testing.T) {
	m, _ := newModel()

	m, _ = applyUpdate(m, sessionEventMsg{event: session.Event{Kind: session.EventUnrecognized, Speaker: "Doctor"}})
	if m.notice != "Could not understand Doctor" {
		t.Fatalf("notice = %q", m.notice)
	}
	seq := m.noticeSeq

	m, _ = applyUpdate(m, sessionEventMsg{event: session.Event{Kind: session.EventServiceError, Err: errors.New("quota")}})
	if m.notice != "Could not request results: quota" {
		t.Fatalf("notice = %q", m.notice)
	}

	m, _ = applyUpdate(m, clearNoticeMsg{seq: seq})
	if m.notice == "" {
		t.Fatal("a stale clear must not remove a newer notice")
	}
	m, _ = applyUpdate(m, clearNoticeMsg{seq: m.noticeSeq})
	if m.notice != "" {
		t.Fatalf("notice should be cleared, got %q", m.notice)
	}

	m.active = true
	m, _ = applyUpdate(m, sessionEventMsg{event: session.Event{Kind: session.EventLoopEnded, Err: errors.New("device unplugged")}})
	if m.active || !m.statusErr || !strings.Contains(m.status, "device unplugged") {
		t.Fatalf("unexpected state after loop end: active=%v status=%q", m.active, m.status)
	}
}

func TestEventChannelDropsWhenFull(t *testing.T) {
	observe, ch := EventChannel(1)
	observe(session.Event{Kind: session.EventLine})
	observe(session.Event{Kind: session.EventUnrecognized})

	if e := <-ch; e.Kind != session.EventLine {
		t.Fatalf("kind = %v, want EventLine", e.Kind)
	}
	select {
	case e := <-ch:
		t.Fatalf("unexpected event %v", e)
	default:
	}
}

func TestQuit(t *testing.T) {
	for _, msg := range []tea.KeyMsg{key('q'), {Type: tea.KeyCtrlC}} {
		m, _ := newModel()
		_, cmd := applyUpdate(m, msg)
		if cmd == nil {
			t.Fatalf("%s: expected quit command", msg)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Fatalf("%s: expected tea.QuitMsg", msg)
		}
	}
}

func TestScrollLeavesAndReturnsToLive(t *testing.T) {
	m, _ := newModel()
	m.height = reservedLines + summaryPanelLines + 3
	var b strings.Builder
	for i := 0; i < 10; i++ {
		b.WriteString("2024-01-01 10:00:00 - Doctor: line\n")
	}
	m, _ = applyUpdate(m, transcriptLoadedMsg{raw: b.String()})
	if m.scroll != 7 {
		t.Fatalf("scroll = %d, want 7", m.scroll)
	}

	m, _ = applyUpdate(m, tea.KeyMsg{Type: tea.KeyUp})
	if m.live || m.scroll != 6 {
		t.Fatalf("live=%v scroll=%d", m.live, m.scroll)
	}
	m, _ = applyUpdate(m, tea.KeyMsg{Type: tea.KeyDown})
	if !m.live || m.scroll != 7 {
		t.Fatalf("live=%v scroll=%d", m.live, m.scroll)
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("one two three four", 9)
	want := []string{"one two", "three", "four"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("wrapText = %q, want %q", got, want)
	}
	if got := wrapText("", 10); len(got) != 1 || got[0] != "" {
		t.Fatalf("wrapText empty = %q", got)
	}
}
