package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/sambhavnoobcoder/solvent-ai/internal/repository"
)

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

type sqlExecer struct{ db *sql.DB }

func (s sqlExecer) exec(ctx context.Context, stmt string) error {
	_, err := s.db.ExecContext(ctx, stmt)
	return err
}

// OpenSQLite opens (creating if needed) the archive database at path and
// applies the schema. ":memory:" is accepted for tests.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	if path == ":memory:" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps in-memory databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := runStatements(ctx, sqlExecer{db: db}, sqliteMigrationStatements); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migration: %w", err)
	}
	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Shutdown() error {
	return r.db.Close()
}

func (r *SQLiteRepository) CreateSession(ctx context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	s := &repository.Session{
		ID:             uuid.NewString(),
		SpeakerA:       input.SpeakerA,
		SpeakerB:       input.SpeakerB,
		TranscriptPath: input.TranscriptPath,
		StartedAt:      input.StartedAt,
		Status:         repository.SessionStatusRunning,
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, speaker_a, speaker_b, transcript_path, started_at, status)
		 VALUES (?, ?, ?, ?, ?, 'running')`,
		s.ID, s.SpeakerA, s.SpeakerB, s.TranscriptPath, unixFromTime(s.StartedAt))
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) CompleteSession(ctx context.Context, input repository.CompleteSessionInput) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions
		 SET status = 'completed', ended_at = ?,
		     utterance_count = (SELECT COUNT(*) FROM utterances WHERE session_id = ?)
		 WHERE id = ?`,
		unixFromTime(input.EndedAt), input.SessionID, input.SessionID)
	return err
}

func (r *SQLiteRepository) GetRunningSession(ctx context.Context) (*repository.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, speaker_a, speaker_b, transcript_path, started_at, ended_at, status, utterance_count
		FROM sessions
		WHERE status = 'running'
		ORDER BY started_at DESC
		LIMIT 1
	`)

	var s repository.Session
	var startedAt float64
	var endedAt sql.NullFloat64
	var status string
	if err := row.Scan(&s.ID, &s.SpeakerA, &s.SpeakerB, &s.TranscriptPath, &startedAt, &endedAt, &status, &s.UtteranceCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	s.StartedAt = timeFromUnix(startedAt)
	s.Status = repository.SessionStatus(status)
	if endedAt.Valid {
		t := timeFromUnix(endedAt.Float64)
		s.EndedAt = &t
	}
	return &s, nil
}

func (r *SQLiteRepository) InsertUtterance(ctx context.Context, input repository.InsertUtteranceInput) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO utterances (id, session_id, speaker, content, utterance_index, spoken_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), input.SessionID, input.Speaker, input.Content, input.UtteranceIndex,
		unixFromTime(input.SpokenAt), unixFromTime(r.now()))
	return err
}

func (r *SQLiteRepository) SaveSummary(ctx context.Context, input repository.SaveSummaryInput) (*repository.Summary, error) {
	s := &repository.Summary{
		ID:             uuid.NewString(),
		TranscriptPath: input.TranscriptPath,
		Draft:          input.Draft,
		Content:        input.Content,
		CreatedAt:      input.CreatedAt,
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO summaries (id, transcript_path, draft, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.TranscriptPath, s.Draft, s.Content, unixFromTime(s.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert summary: %w", err)
	}
	return s, nil
}

func unixFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
