package transcript

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/sambhavnoobcoder/solvent-ai/internal/transcript"
)

const filePerm = 0o644

// FileStore keeps the transcript and the summary as plain UTF-8 files.
type FileStore struct {
	transcriptPath string
	summaryPath    string
}

func NewFileStore(transcriptPath, summaryPath string) *FileStore {
	return &FileStore{
		transcriptPath: transcriptPath,
		summaryPath:    summaryPath,
	}
}

func (s *FileStore) Path() string {
	return s.transcriptPath
}

func (s *FileStore) SummaryPath() string {
	return s.summaryPath
}

func (s *FileStore) Reset() error {
	if err := os.Remove(s.transcriptPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove transcript: %w", err)
	}
	return nil
}

func (s *FileStore) OpenAppender() (transcript.Appender, error) {
	if dir := filepath.Dir(s.transcriptPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create transcript dir: %w", err)
		}
	}
	f, err := os.OpenFile(s.transcriptPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	return &fileAppender{file: f, w: bufio.NewWriter(f)}, nil
}

func (s *FileStore) Read() (string, error) {
	b, err := os.ReadFile(s.transcriptPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", transcript.ErrNotFound, s.transcriptPath)
		}
		return "", fmt.Errorf("read transcript: %w", err)
	}
	return string(b), nil
}

// WriteSummary replaces the summary file. The text goes to a sibling temp file
// first so a reader never sees a half-written summary.
func (s *FileStore) WriteSummary(text string) error {
	dir := filepath.Dir(s.summaryPath)
	tmp, err := os.CreateTemp(dir, ".summary-*")
	if err != nil {
		return fmt.Errorf("create summary temp file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.WriteString(text); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write summary: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close summary temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), filePerm); err != nil {
		return fmt.Errorf("chmod summary: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.summaryPath); err != nil {
		return fmt.Errorf("replace summary: %w", err)
	}
	return nil
}

type fileAppender struct {
	mu     sync.Mutex
	file   *os.File
	w      *bufio.Writer
	closed bool
}

func (a *fileAppender) Append(_ context.Context, line transcript.Line) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return os.ErrClosed
	}
	if _, err := a.w.WriteString(line.String() + "\n"); err != nil {
		return fmt.Errorf("write transcript line: %w", err)
	}
	if err := a.w.Flush(); err != nil {
		return fmt.Errorf("flush transcript: %w", err)
	}
	if err := a.file.Sync(); err != nil {
		return fmt.Errorf("sync transcript: %w", err)
	}
	return nil
}

func (a *fileAppender) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	flushErr := a.w.Flush()
	closeErr := a.file.Close()
	return errors.Join(flushErr, closeErr)
}
