package transcript

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Spelled out instead of time.DateTime so the on-disk format can change on its own.
const TimeLayout = "2006-01-02 15:04:05"

const prefixSeparator = " - "

var ErrNotFound = errors.New("transcript file not found")

// Line is one recognized utterance attributed to the speaker that was current
// when recognition completed.
type Line struct {
	Timestamp time.Time
	Speaker   string
	Text      string
}

// String renders the on-disk form without the trailing newline.
func (l Line) String() string {
	return fmt.Sprintf("%s%s%s: %s", l.Timestamp.Format(TimeLayout), prefixSeparator, l.Speaker, l.Text)
}

// Appender writes lines in capture order. Implementations own one file handle
// for their lifetime.
type Appender interface {
	Append(ctx context.Context, line Line) error
	Close() error
}

type Store interface {
	// Reset deletes the transcript so a fresh session starts empty.
	Reset() error
	OpenAppender() (Appender, error)
	// Read returns the whole transcript, or ErrNotFound when it does not exist.
	Read() (string, error)
	Path() string
}

// Clean strips the "timestamp - " prefix from every line, keeping
// "speaker: text". Lines without the separator are kept whole.
func Clean(raw string) string {
	lines := splitLines(raw)
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if _, rest, ok := strings.Cut(line, prefixSeparator); ok {
			out = append(out, rest)
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// ParseLine reverses Line.String. It reports false for lines that do not carry
// a timestamp and speaker prefix.
func ParseLine(raw string, loc *time.Location) (Line, bool) {
	stamp, rest, ok := strings.Cut(raw, prefixSeparator)
	if !ok {
		return Line{}, false
	}
	ts, err := time.ParseInLocation(TimeLayout, stamp, safeLocation(loc))
	if err != nil {
		return Line{}, false
	}
	speaker, text, ok := strings.Cut(rest, ": ")
	if !ok {
		return Line{}, false
	}
	return Line{Timestamp: ts, Speaker: speaker, Text: text}, true
}

func splitLines(raw string) []string {
	if raw == "" {
		return nil
	}
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	lines := strings.Split(raw, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func safeLocation(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
