// Package console is the line-oriented variant: transcription runs from
// startup and stdin commands switch speakers or quit.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sambhavnoobcoder/solvent-ai/internal/session"
)

const (
	MessageIntro   = "Starting conversation transcription.\nPress 's' to switch speakers or 'q' to quit at any time."
	MessageEnding  = "Ending conversation..."
	MessageInvalid = "Invalid input. Press 's' to switch speakers or 'q' to quit."
)

type Switcher interface {
	SwitchSpeaker() string
}

// Console serializes writes from the command loop and the capture loop.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

func New(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Println(a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.out, a...)
}

// Observer prints every transcribed line and recognition notice.
func (c *Console) Observer() session.Observer {
	return func(e session.Event) {
		switch e.Kind {
		case session.EventLine:
			c.Println(e.Line.String())
		case session.EventUnrecognized:
			c.Println(session.UnrecognizedMessage(e.Speaker))
		case session.EventServiceError:
			c.Println("Could not request results;", e.Err)
		case session.EventLoopEnded:
			c.Println("Transcription ended:", e.Err)
		}
	}
}

// Run reads commands from in until 'q', end of input or ctx is done.
func (c *Console) Run(ctx context.Context, in io.Reader, s Switcher) error {
	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-readCtx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errc:
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			return nil
		case line := <-lines:
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "s":
				c.Println("\n" + s.SwitchSpeaker())
			case "q":
				c.Println("\n" + MessageEnding)
				return nil
			default:
				c.Println(MessageInvalid)
			}
		}
	}
}
