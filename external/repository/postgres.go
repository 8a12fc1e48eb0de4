package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sambhavnoobcoder/solvent-ai/internal/repository"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Shutdown() error {
	r.pool.Close()
	return nil
}

func (r *PostgresRepository) CreateSession(ctx context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO sessions (speaker_a, speaker_b, transcript_path, started_at, status)
		 VALUES ($1, $2, $3, $4, 'running')
		 RETURNING id, speaker_a, speaker_b, transcript_path, started_at, ended_at, status, utterance_count`,
		input.SpeakerA, input.SpeakerB, input.TranscriptPath, input.StartedAt)
	return scanPostgresSession(row)
}

func (r *PostgresRepository) CompleteSession(ctx context.Context, input repository.CompleteSessionInput) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sessions
		 SET status = 'completed', ended_at = $2,
		     utterance_count = (SELECT COUNT(*) FROM utterances WHERE session_id = $1)
		 WHERE id = $1`,
		input.SessionID, input.EndedAt)
	return err
}

func (r *PostgresRepository) GetRunningSession(ctx context.Context) (*repository.Session, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, speaker_a, speaker_b, transcript_path, started_at, ended_at, status, utterance_count
		 FROM sessions WHERE status = 'running'
		 ORDER BY started_at DESC LIMIT 1`)
	s, err := scanPostgresSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func (r *PostgresRepository) InsertUtterance(ctx context.Context, input repository.InsertUtteranceInput) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO utterances (session_id, speaker, content, utterance_index, spoken_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		input.SessionID, input.Speaker, input.Content, input.UtteranceIndex, input.SpokenAt)
	return err
}

func (r *PostgresRepository) SaveSummary(ctx context.Context, input repository.SaveSummaryInput) (*repository.Summary, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO summaries (transcript_path, draft, content, created_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, transcript_path, draft, content, created_at`,
		input.TranscriptPath, input.Draft, input.Content, input.CreatedAt)
	var s repository.Summary
	if err := row.Scan(&s.ID, &s.TranscriptPath, &s.Draft, &s.Content, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func scanPostgresSession(row pgx.Row) (*repository.Session, error) {
	var s repository.Session
	var endedAt *time.Time
	if err := row.Scan(&s.ID, &s.SpeakerA, &s.SpeakerB, &s.TranscriptPath, &s.StartedAt, &endedAt, &s.Status, &s.UtteranceCount); err != nil {
		return nil, err
	}
	s.EndedAt = endedAt
	return &s, nil
}
