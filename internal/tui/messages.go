package tui

import (
	"time"

	"github.com/sambhavnoobcoder/solvent-ai/internal/session"
	"github.com/sambhavnoobcoder/solvent-ai/internal/summarizer"
)

// tickMsg drives the once-a-second transcript refresh.
type tickMsg time.Time

// transcriptChangedMsg is sent when the watcher reports a write.
type transcriptChangedMsg struct{}

type transcriptLoadedMsg struct {
	raw string
	err error
}

// controlDoneMsg carries the outcome of a start or stop request.
type controlDoneMsg struct {
	status string
	err    error
}

type summaryDoneMsg struct {
	result summarizer.Result
	err    error
}

type sessionEventMsg struct {
	event session.Event
}

// clearNoticeMsg clears a notice unless a newer one replaced it.
type clearNoticeMsg struct {
	seq int
}
