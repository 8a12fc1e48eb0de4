package transcript

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sambhavnoobcoder/solvent-ai/internal/transcript"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	dir := t.TempDir()
	return NewFileStore(filepath.Join(dir, "conversation_transcript.txt"), filepath.Join(dir, "conversation_summary.txt"))
}

func TestAppender_AppendsInOrderAndFlushesEachLine(t *testing.T) {
	store := newTestStore(t)
	app, err := store.OpenAppender()
	if err != nil {
		t.Fatalf("open appender: %v", err)
	}
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	if err := app.Append(context.Background(), transcript.Line{Timestamp: base, Speaker: "Doctor", Text: "How are you feeling?"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	got, err := store.Read()
	if err != nil {
		t.Fatalf("read after first append: %v", err)
	}
	if got != "2024-01-01 10:00:00 - Doctor: How are you feeling?\n" {
		t.Fatalf("line not visible before close: %q", got)
	}

	if err := app.Append(context.Background(), transcript.Line{Timestamp: base.Add(5 * time.Second), Speaker: "Patient", Text: "A bit tired."}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := app.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got, err = store.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "2024-01-01 10:00:00 - Doctor: How are you feeling?\n2024-01-01 10:00:05 - Patient: A bit tired.\n"
	if got != want {
		t.Fatalf("unexpected transcript: %q", got)
	}
}

func TestAppender_ReopenKeepsExistingLines(t *testing.T) {
	store := newTestStore(t)
	line := transcript.Line{Timestamp: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), Speaker: "Doctor", Text: "one"}

	for i := 0; i < 2; i++ {
		app, err := store.OpenAppender()
		if err != nil {
			t.Fatalf("open appender: %v", err)
		}
		if err := app.Append(context.Background(), line); err != nil {
			t.Fatalf("append: %v", err)
		}
		_ = app.Close()
	}

	got, _ := store.Read()
	rows := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	if len(rows) != 2 {
		t.Fatalf("expected two lines, got %q", got)
	}
	for _, row := range rows {
		if _, ok := transcript.ParseLine(row, time.UTC); !ok {
			t.Fatalf("unexpected line %q", row)
		}
	}
}

func TestAppender_AppendAfterClose(t *testing.T) {
	store := newTestStore(t)
	app, err := store.OpenAppender()
	if err != nil {
		t.Fatalf("open appender: %v", err)
	}
	_ = app.Close()
	if err := app.Append(context.Background(), transcript.Line{}); !errors.Is(err, os.ErrClosed) {
		t.Fatalf("expected os.ErrClosed, got %v", err)
	}
	if err := app.Close(); err != nil {
		t.Fatalf("second close should be a no-op, got %v", err)
	}
}

func TestRead_MissingFile(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Read(); !errors.Is(err, transcript.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReset_RemovesTranscriptAndToleratesMissing(t *testing.T) {
	store := newTestStore(t)
	if err := store.Reset(); err != nil {
		t.Fatalf("reset on missing file: %v", err)
	}
	if err := os.WriteFile(store.Path(), []byte("old\n"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
		t.Fatalf("expected transcript to be removed, stat err=%v", err)
	}
}

func TestWriteSummary_Overwrites(t *testing.T) {
	store := newTestStore(t)
	if err := store.WriteSummary("first summary that is longer"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := store.WriteSummary("second"); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(store.SummaryPath())
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	if string(b) != "second" {
		t.Fatalf("summary not replaced: %q", string(b))
	}
}
