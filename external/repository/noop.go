package repository

import (
	"context"

	"github.com/sambhavnoobcoder/solvent-ai/internal/repository"
)

// NoopRepository is used when ARCHIVE_DATABASE_URL is empty.
type NoopRepository struct{}

func (NoopRepository) CreateSession(_ context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	return &repository.Session{
		SpeakerA:       input.SpeakerA,
		SpeakerB:       input.SpeakerB,
		TranscriptPath: input.TranscriptPath,
		StartedAt:      input.StartedAt,
		Status:         repository.SessionStatusRunning,
	}, nil
}

func (NoopRepository) CompleteSession(context.Context, repository.CompleteSessionInput) error {
	return nil
}

func (NoopRepository) GetRunningSession(context.Context) (*repository.Session, error) {
	return nil, nil
}

func (NoopRepository) InsertUtterance(context.Context, repository.InsertUtteranceInput) error {
	return nil
}

func (NoopRepository) SaveSummary(_ context.Context, input repository.SaveSummaryInput) (*repository.Summary, error) {
	return &repository.Summary{
		TranscriptPath: input.TranscriptPath,
		Draft:          input.Draft,
		Content:        input.Content,
		CreatedAt:      input.CreatedAt,
	}, nil
}
