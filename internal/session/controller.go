package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sambhavnoobcoder/solvent-ai/internal/audio"
	"github.com/sambhavnoobcoder/solvent-ai/internal/config"
	"github.com/sambhavnoobcoder/solvent-ai/internal/repository"
	"github.com/sambhavnoobcoder/solvent-ai/internal/transcriber"
	"github.com/sambhavnoobcoder/solvent-ai/internal/transcript"
)

const archiveTimeout = 5 * time.Second

type EventKind int

const (
	// EventLine reports a line appended to the transcript.
	EventLine EventKind = iota
	// EventUnrecognized reports an utterance that produced no text.
	EventUnrecognized
	// EventServiceError reports a recognition request that failed.
	EventServiceError
	// EventLoopEnded reports that the capture loop exited without being stopped.
	EventLoopEnded
)

type Event struct {
	Kind    EventKind
	Line    transcript.Line
	Speaker string
	Err     error
}

// Observer receives loop events. It is called from the loop goroutine and
// must not block.
type Observer func(Event)

type ControllerConfig struct {
	ListenTimeout      time.Duration
	PhraseTimeLimit    time.Duration
	AmbientCalibration time.Duration
	StopGracePeriod    time.Duration
	Listener           audio.ListenerConfig
}

func ControllerConfigFrom(c *config.Config) ControllerConfig {
	return ControllerConfig{
		ListenTimeout:      c.ListenTimeout,
		PhraseTimeLimit:    c.PhraseTimeLimit,
		AmbientCalibration: c.AmbientCalibration,
		StopGracePeriod:    c.StopGracePeriod,
		Listener:           audio.DefaultListenerConfig(),
	}
}

// Controller owns the capture loop. Start, Stop and SwitchSpeaker are safe to
// call from any goroutine; at most one loop is alive at a time.
type Controller struct {
	cfg      ControllerConfig
	state    *State
	mic      audio.Microphone
	stt      transcriber.Transcriber
	store    transcript.Store
	repo     repository.Repository
	observer atomic.Pointer[Observer]
	now      func() time.Time

	mu       sync.Mutex
	run      *loopRun
	last     *loopRun
	draining <-chan struct{}
}

type loopRun struct {
	cancel context.CancelFunc
	// done closes once the microphone and transcript are released.
	done chan struct{}
	// finished closes after the archive has recorded the session end.
	finished chan struct{}
}

func NewController(cfg ControllerConfig, state *State, mic audio.Microphone, stt transcriber.Transcriber, store transcript.Store, repo repository.Repository) *Controller {
	return &Controller{
		cfg:   cfg,
		state: state,
		mic:   mic,
		stt:   stt,
		store: store,
		repo:  repo,
		now:   time.Now,
	}
}

func (c *Controller) State() *State {
	return c.state
}

func (c *Controller) Active() bool {
	return c.state.Active()
}

func (c *Controller) Speaker() string {
	return c.state.Speaker()
}

func (c *Controller) Speakers() (string, string) {
	return c.state.Speakers()
}

func (c *Controller) SetObserver(o Observer) {
	if o == nil {
		c.observer.Store(nil)
		return
	}
	c.observer.Store(&o)
}

// Start begins capturing. It returns MessageAlreadyRunning without side
// effects when a loop is active. If a previous loop is still draining after a
// timed-out Stop, Start waits for it to exit first.
func (c *Controller) Start(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.activate() {
		return MessageAlreadyRunning, nil
	}

	if c.draining != nil {
		slog.Info("waiting for previous capture loop to exit")
		select {
		case <-c.draining:
			c.draining = nil
		case <-ctx.Done():
			c.state.deactivate()
			return "", fmt.Errorf("wait for previous capture loop: %w", ctx.Err())
		}
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	src, err := c.mic.Open(loopCtx)
	if err != nil {
		cancel()
		c.state.deactivate()
		return "", fmt.Errorf("open microphone: %w", err)
	}
	app, err := c.store.OpenAppender()
	if err != nil {
		cancel()
		_ = src.Close()
		c.state.deactivate()
		return "", fmt.Errorf("open transcript: %w", err)
	}

	r := &loopRun{cancel: cancel, done: make(chan struct{}), finished: make(chan struct{})}
	c.run = r
	c.last = r
	go func() {
		defer close(r.finished)
		sessionID := c.archiveStart()
		c.loop(loopCtx, src, app, sessionID)
		close(r.done)
		c.detach(r)
		c.archiveComplete(sessionID)
	}()

	slog.Info("transcription started", "speaker", c.state.Speaker(), "transcript", c.store.Path())
	return MessageStarted, nil
}

// Stop cancels the loop and waits for it to release the microphone and the
// transcript file, at most StopGracePeriod.
func (c *Controller) Stop(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.deactivate() {
		return MessageNotRunning, nil
	}
	r := c.run
	c.run = nil
	if r == nil {
		return MessageStopped, nil
	}
	r.cancel()

	timer := time.NewTimer(c.cfg.StopGracePeriod)
	defer timer.Stop()
	select {
	case <-r.done:
		slog.Info("transcription stopped")
	case <-timer.C:
		c.draining = r.done
		slog.Warn("capture loop still draining after grace period", "grace_period", c.cfg.StopGracePeriod)
	case <-ctx.Done():
		c.draining = r.done
		slog.Warn("stop returned before capture loop exited", "error", ctx.Err())
	}
	return MessageStopped, nil
}

// SwitchSpeaker flips the speaker used for the next recognized utterance.
func (c *Controller) SwitchSpeaker() string {
	speaker := c.state.SwitchSpeaker()
	slog.Info("speaker switched", "speaker", speaker)
	return switchedMessage(speaker)
}

// Wait blocks until the most recent loop has exited and its session end is
// archived. It returns at once when no loop was ever started.
func (c *Controller) Wait() {
	if f := c.finished(); f != nil {
		<-f
	}
}

func (c *Controller) finished() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return nil
	}
	return c.last.finished
}

// Shutdown stops any running loop and gives the archive up to StopGracePeriod
// to record the session end. It is called by the injector before the
// repository is closed.
func (c *Controller) Shutdown() error {
	_, err := c.Stop(context.Background())
	if f := c.finished(); f != nil {
		timer := time.NewTimer(c.cfg.StopGracePeriod)
		defer timer.Stop()
		select {
		case <-f:
		case <-timer.C:
			slog.Warn("session end not archived before shutdown")
		}
	}
	return err
}

// detach clears r when the loop exited on its own, e.g. the microphone went
// away, so the next Start spawns a fresh loop.
func (c *Controller) detach(r *loopRun) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.run != r {
		return
	}
	c.run = nil
	r.cancel()
	c.state.deactivate()
}

func (c *Controller) notify(e Event) {
	if o := c.observer.Load(); o != nil {
		(*o)(e)
	}
}
