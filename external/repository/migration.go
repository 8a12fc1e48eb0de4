package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var postgresMigrationStatements = []string{
	`DO $$ BEGIN CREATE TYPE session_status AS ENUM ('running', 'completed'); EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		speaker_a TEXT NOT NULL,
		speaker_b TEXT NOT NULL,
		transcript_path TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		ended_at TIMESTAMPTZ,
		status session_status NOT NULL DEFAULT 'running',
		utterance_count INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_running ON sessions (started_at) WHERE status = 'running'`,
	`CREATE TABLE IF NOT EXISTS utterances (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		session_id UUID NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		speaker TEXT NOT NULL,
		content TEXT NOT NULL,
		utterance_index INTEGER NOT NULL,
		spoken_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE(session_id, utterance_index)
	)`,
	`CREATE TABLE IF NOT EXISTS summaries (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		transcript_path TEXT NOT NULL,
		draft TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

var sqliteMigrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		speaker_a TEXT NOT NULL,
		speaker_b TEXT NOT NULL,
		transcript_path TEXT NOT NULL,
		started_at REAL NOT NULL,
		ended_at REAL,
		status TEXT NOT NULL DEFAULT 'running',
		utterance_count INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS utterances (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		speaker TEXT NOT NULL,
		content TEXT NOT NULL,
		utterance_index INTEGER NOT NULL,
		spoken_at REAL NOT NULL,
		created_at REAL NOT NULL,
		UNIQUE(session_id, utterance_index)
	)`,
	`CREATE TABLE IF NOT EXISTS summaries (
		id TEXT PRIMARY KEY,
		transcript_path TEXT NOT NULL,
		draft TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at REAL NOT NULL
	)`,
}

type execer interface {
	exec(ctx context.Context, stmt string) error
}

type poolExecer struct{ pool *pgxpool.Pool }

func (p poolExecer) exec(ctx context.Context, stmt string) error {
	_, err := p.pool.Exec(ctx, stmt)
	return err
}

func runStatements(ctx context.Context, db execer, statements []string) error {
	for _, s := range statements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if err := db.exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func RunPostgresMigration(ctx context.Context, pool *pgxpool.Pool) error {
	return runStatements(ctx, poolExecer{pool: pool}, postgresMigrationStatements)
}
