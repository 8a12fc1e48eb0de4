package repository

import "time"

type SessionStatus string

const (
	SessionStatusRunning   SessionStatus = "running"
	SessionStatusCompleted SessionStatus = "completed"
)

// Session is one start..stop span of the capture loop.
type Session struct {
	ID             string
	SpeakerA       string
	SpeakerB       string
	TranscriptPath string
	StartedAt      time.Time
	EndedAt        *time.Time
	Status         SessionStatus
	UtteranceCount int
}

// Summary keeps both model outputs; Content is the refined text written to
// the summary file.
type Summary struct {
	ID             string
	TranscriptPath string
	Draft          string
	Content        string
	CreatedAt      time.Time
}
