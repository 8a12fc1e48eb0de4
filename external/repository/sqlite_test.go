package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sambhavnoobcoder/solvent-ai/internal/repository"
)

func openTestSQLite(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := OpenSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Shutdown() })
	return repo
}

func TestSQLiteRepository_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := openTestSQLite(t)
	started := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	sess, err := repo.CreateSession(ctx, repository.CreateSessionInput{
		SpeakerA:       "Doctor",
		SpeakerB:       "Patient",
		TranscriptPath: "conversation_transcript.txt",
		StartedAt:      started,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if sess.ID == "" || sess.Status != repository.SessionStatusRunning {
		t.Fatalf("unexpected session: %+v", sess)
	}

	running, err := repo.GetRunningSession(ctx)
	if err != nil {
		t.Fatalf("get running: %v", err)
	}
	if running == nil || running.ID != sess.ID || !running.StartedAt.Equal(started) {
		t.Fatalf("unexpected running session: %+v", running)
	}

	for i, speaker := range []string{"Doctor", "Patient"} {
		if err := repo.InsertUtterance(ctx, repository.InsertUtteranceInput{
			SessionID:      sess.ID,
			Speaker:        speaker,
			Content:        "hello",
			UtteranceIndex: i,
			SpokenAt:       started.Add(time.Duration(i) * time.Second),
		}); err != nil {
			t.Fatalf("insert utterance %d: %v", i, err)
		}
	}
	if err := repo.InsertUtterance(ctx, repository.InsertUtteranceInput{SessionID: sess.ID, UtteranceIndex: 0, SpokenAt: started}); err == nil {
		t.Fatalf("expected duplicate utterance index to be rejected")
	}

	if err := repo.CompleteSession(ctx, repository.CompleteSessionInput{SessionID: sess.ID, EndedAt: started.Add(time.Minute)}); err != nil {
		t.Fatalf("complete session: %v", err)
	}
	running, err = repo.GetRunningSession(ctx)
	if err != nil {
		t.Fatalf("get running after complete: %v", err)
	}
	if running != nil {
		t.Fatalf("expected no running session, got %+v", running)
	}

	var count int
	var status string
	if err := repo.db.QueryRow(`SELECT utterance_count, status FROM sessions WHERE id = ?`, sess.ID).Scan(&count, &status); err != nil {
		t.Fatalf("query session: %v", err)
	}
	if count != 2 || status != "completed" {
		t.Fatalf("unexpected completion: count=%d status=%s", count, status)
	}
}

func TestSQLiteRepository_SaveSummary(t *testing.T) {
	ctx := context.Background()
	repo := openTestSQLite(t)

	saved, err := repo.SaveSummary(ctx, repository.SaveSummaryInput{
		TranscriptPath: "conversation_transcript.txt",
		Draft:          "The patient reports fatigue.",
		Content:        "The patient said they've been feeling tired.",
		CreatedAt:      time.Now(),
	})
	if err != nil {
		t.Fatalf("save summary: %v", err)
	}
	if saved.ID == "" {
		t.Fatalf("expected generated id")
	}

	var content string
	if err := repo.db.QueryRow(`SELECT content FROM summaries WHERE id = ?`, saved.ID).Scan(&content); err != nil {
		t.Fatalf("query summary: %v", err)
	}
	if content != saved.Content {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestOpenSQLite_FileIsReusable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.sqlite")
	for i := 0; i < 2; i++ {
		repo, err := OpenSQLite(context.Background(), path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		_ = repo.Shutdown()
	}
}

func TestArchiveBackend(t *testing.T) {
	tests := []struct {
		url     string
		backend string
		dsn     string
		wantErr bool
	}{
		{url: "", backend: backendNone},
		{url: "postgres://u:p@localhost/db", backend: backendPostgres, dsn: "postgres://u:p@localhost/db"},
		{url: "postgresql://localhost/db", backend: backendPostgres, dsn: "postgresql://localhost/db"},
		{url: "sqlite://./archive.sqlite", backend: backendSQLite, dsn: "./archive.sqlite"},
		{url: "sqlite://", wantErr: true},
		{url: "mysql://localhost/db", wantErr: true},
	}
	for _, tt := range tests {
		backend, dsn, err := archiveBackend(tt.url)
		if tt.wantErr {
			if err == nil {
				t.Errorf("archiveBackend(%q): expected error", tt.url)
			}
			continue
		}
		if err != nil {
			t.Errorf("archiveBackend(%q): %v", tt.url, err)
			continue
		}
		if backend != tt.backend || dsn != tt.dsn {
			t.Errorf("archiveBackend(%q) = %q, %q", tt.url, backend, dsn)
		}
	}
}

func TestOpenRepository_EmptyURLIsNoop(t *testing.T) {
	repo, err := openRepository(context.Background(), "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := repo.(NoopRepository); !ok {
		t.Fatalf("expected NoopRepository, got %T", repo)
	}
}
