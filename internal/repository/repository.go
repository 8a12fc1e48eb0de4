package repository

import (
	"context"
	"time"
)

type CreateSessionInput struct {
	SpeakerA       string
	SpeakerB       string
	TranscriptPath string
	StartedAt      time.Time
}

type CompleteSessionInput struct {
	SessionID string
	EndedAt   time.Time
}

type InsertUtteranceInput struct {
	SessionID      string
	Speaker        string
	Content        string
	UtteranceIndex int
	SpokenAt       time.Time
}

type SaveSummaryInput struct {
	TranscriptPath string
	Draft          string
	Content        string
	CreatedAt      time.Time
}

type SessionRepository interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*Session, error)
	CompleteSession(ctx context.Context, input CompleteSessionInput) error
	// GetRunningSession returns nil when no session is marked running.
	GetRunningSession(ctx context.Context) (*Session, error)
}

type TranscriptRepository interface {
	InsertUtterance(ctx context.Context, input InsertUtteranceInput) error
}

type SummaryRepository interface {
	SaveSummary(ctx context.Context, input SaveSummaryInput) (*Summary, error)
}

// Repository archives sessions, utterances and summaries. The transcript and
// summary files stay authoritative; the archive is a mirror.
type Repository interface {
	SessionRepository
	TranscriptRepository
	SummaryRepository
}
