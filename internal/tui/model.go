// Package tui is the terminal front end: start and stop transcription, switch
// speakers, watch the transcript grow and generate a summary.
package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sambhavnoobcoder/solvent-ai/internal/session"
	"github.com/sambhavnoobcoder/solvent-ai/internal/summarizer"
	"github.com/sambhavnoobcoder/solvent-ai/internal/transcript"
)

const (
	refreshInterval = time.Second
	noticeDuration  = 4 * time.Second

	messageNoTranscript = "No transcript available yet."
	messageNoSummary    = "Press g to generate a summary."
	messageSummarizing  = "Generating summary..."
	messageSummaryDone  = "Summary generated."
)

// Session is the capture controller as seen by the UI.
type Session interface {
	Start(ctx context.Context) (string, error)
	Stop(ctx context.Context) (string, error)
	SwitchSpeaker() string
	Active() bool
	Speaker() string
	Speakers() (string, string)
}

type Summarizer interface {
	Run(ctx context.Context) (summarizer.Result, error)
}

type TranscriptReader interface {
	Read() (string, error)
}

type Deps struct {
	Session    Session
	Summarizer Summarizer
	Transcript TranscriptReader
	// Changes and Events are optional.
	Changes <-chan struct{}
	Events  <-chan session.Event
}

// Model is the root bubbletea model.
type Model struct {
	ctx        context.Context
	session    Session
	summarizer Summarizer
	transcript TranscriptReader
	changes    <-chan struct{}
	events     <-chan session.Event

	active   bool
	speaker  string
	speakerA string
	speakerB string
	busy     bool

	raw     string
	missing bool

	summary     string
	summarizing bool

	status    string
	statusErr bool
	notice    string
	noticeSeq int

	width  int
	height int
	scroll int
	live   bool
}

func New(ctx context.Context, d Deps) Model {
	a, b := d.Session.Speakers()
	return Model{
		ctx:        ctx,
		session:    d.Session,
		summarizer: d.Summarizer,
		transcript: d.Transcript,
		changes:    d.Changes,
		events:     d.Events,
		active:     d.Session.Active(),
		speaker:    d.Session.Speaker(),
		speakerA:   a,
		speakerB:   b,
		missing:    true,
		summary:    messageNoSummary,
		status:     "Press Space to start transcription.",
		live:       true,
	}
}

// EventChannel adapts a session observer to a channel the model can read.
// Events are dropped when the UI falls behind.
func EventChannel(buffer int) (session.Observer, <-chan session.Event) {
	ch := make(chan session.Event, buffer)
	return func(e session.Event) {
		select {
		case ch <- e:
		default:
		}
	}, ch
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		loadTranscriptCmd(m.transcript),
		tickCmd(),
		waitForChangeCmd(m.changes),
		waitForEventCmd(m.events),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func loadTranscriptCmd(r TranscriptReader) tea.Cmd {
	return func() tea.Msg {
		raw, err := r.Read()
		return transcriptLoadedMsg{raw: raw, err: err}
	}
}

func waitForChangeCmd(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return transcriptChangedMsg{}
	}
}

func waitForEventCmd(ch <-chan session.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return nil
		}
		return sessionEventMsg{event: e}
	}
}

func startCmd(ctx context.Context, s Session) tea.Cmd {
	return func() tea.Msg {
		status, err := s.Start(ctx)
		return controlDoneMsg{status: status, err: err}
	}
}

func stopCmd(ctx context.Context, s Session) tea.Cmd {
	return func() tea.Msg {
		status, err := s.Stop(ctx)
		return controlDoneMsg{status: status, err: err}
	}
}

func summarizeCmd(ctx context.Context, s Summarizer) tea.Cmd {
	return func() tea.Msg {
		res, err := s.Run(ctx)
		return summaryDoneMsg{result: res, err: err}
	}
}

func clearNoticeCmd(seq int) tea.Cmd {
	return tea.Tick(noticeDuration, func(time.Time) tea.Msg {
		return clearNoticeMsg{seq: seq}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.live {
			m.scrollToBottom()
		}
		return m, nil

	case tickMsg:
		m.active = m.session.Active()
		return m, tea.Batch(loadTranscriptCmd(m.transcript), tickCmd())

	case transcriptChangedMsg:
		return m, tea.Batch(loadTranscriptCmd(m.transcript), waitForChangeCmd(m.changes))

	case transcriptLoadedMsg:
		switch {
		case errors.Is(msg.err, transcript.ErrNotFound):
			m.raw = ""
			m.missing = true
		case msg.err != nil:
			return m.setNotice("Could not read transcript: " + msg.err.Error())
		default:
			m.raw = msg.raw
			m.missing = false
		}
		if m.live {
			m.scrollToBottom()
		}
		return m, nil

	case controlDoneMsg:
		m.busy = false
		m.active = m.session.Active()
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.statusErr = true
		} else {
			m.status = msg.status
			m.statusErr = false
		}
		return m, loadTranscriptCmd(m.transcript)

	case summaryDoneMsg:
		m.summarizing = false
		if msg.err != nil {
			m.summary = summarizer.StatusMessage(msg.err)
			m.status = m.summary
			m.statusErr = true
			return m, nil
		}
		m.summary = msg.result.Summary
		m.status = messageSummaryDone
		m.statusErr = false
		return m, nil

	case sessionEventMsg:
		next, cmd := m.handleEvent(msg.event)
		return next, tea.Batch(cmd, waitForEventCmd(m.events))

	case clearNoticeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleEvent(e session.Event) (Model, tea.Cmd) {
	switch e.Kind {
	case session.EventLine:
		return m, loadTranscriptCmd(m.transcript)
	case session.EventUnrecognized:
		return m.setNotice(session.UnrecognizedMessage(e.Speaker))
	case session.EventServiceError:
		return m.setNotice("Could not request results: " + errString(e.Err))
	case session.EventLoopEnded:
		m.active = m.session.Active()
		m.status = "Transcription ended: " + errString(e.Err)
		m.statusErr = true
	}
	return m, nil
}

func (m Model) setNotice(text string) (Model, tea.Cmd) {
	m.noticeSeq++
	m.notice = text
	return m, clearNoticeCmd(m.noticeSeq)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyQuit, keyCtrlC:
		return m, tea.Quit

	case keyToggle:
		if m.busy {
			return m, nil
		}
		m.busy = true
		if m.session.Active() {
			m.status = "Stopping..."
			m.statusErr = false
			return m, stopCmd(m.ctx, m.session)
		}
		m.status = "Starting..."
		m.statusErr = false
		return m, startCmd(m.ctx, m.session)

	case keySwitch:
		m.status = m.session.SwitchSpeaker()
		m.statusErr = false
		m.speaker = m.session.Speaker()
		return m, nil

	case keySummary:
		if m.summarizing {
			return m, nil
		}
		m.summarizing = true
		m.status = messageSummarizing
		m.statusErr = false
		return m, summarizeCmd(m.ctx, m.summarizer)

	case keyUp, keyK:
		m.live = false
		if m.scroll > 0 {
			m.scroll--
		}
		return m, nil

	case keyDown, keyJ:
		maxScroll := m.maxScroll()
		m.scroll++
		if m.scroll >= maxScroll {
			m.scroll = maxScroll
			m.live = true
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) scrollToBottom() {
	m.scroll = m.maxScroll()
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
