package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sambhavnoobcoder/solvent-ai/internal/audio"
	"github.com/sambhavnoobcoder/solvent-ai/internal/repository"
	"github.com/sambhavnoobcoder/solvent-ai/internal/transcriber"
	"github.com/sambhavnoobcoder/solvent-ai/internal/transcript"
)

// loop listens, recognizes and appends until ctx is cancelled or the source
// ends. It owns src and app and closes both before returning.
func (c *Controller) loop(ctx context.Context, src audio.Source, app transcript.Appender, sessionID string) {
	defer func() {
		if err := app.Close(); err != nil {
			slog.Error("failed to close transcript", "error", err)
		}
	}()
	defer func() {
		if err := src.Close(); err != nil {
			slog.Error("failed to close microphone", "error", err)
		}
	}()

	listener := audio.NewListener(src, c.cfg.Listener)
	if c.cfg.AmbientCalibration > 0 {
		if err := listener.Calibrate(ctx, c.cfg.AmbientCalibration); err != nil {
			if ctx.Err() == nil {
				slog.Error("ambient noise calibration failed", "error", err)
				c.notify(Event{Kind: EventLoopEnded, Err: err})
			}
			return
		}
		slog.Debug("ambient noise calibrated", "threshold", listener.Threshold())
	}

	var index int
	for ctx.Err() == nil {
		utt, err := listener.Listen(ctx, c.cfg.ListenTimeout, c.cfg.PhraseTimeLimit)
		if errors.Is(err, audio.ErrWaitTimeout) {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			slog.Error("audio capture ended", "error", err)
			c.notify(Event{Kind: EventLoopEnded, Err: err})
			return
		}

		text, err := c.stt.Transcribe(ctx, utt)
		speaker := c.state.Speaker()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			var se *transcriber.ServiceError
			switch {
			case errors.Is(err, transcriber.ErrUnrecognized):
				slog.Info("could not understand speaker", "speaker", speaker, "duration", utt.Duration())
				c.notify(Event{Kind: EventUnrecognized, Speaker: speaker, Err: err})
			case errors.As(err, &se):
				slog.Warn("speech recognition request failed", "op", se.Op, "error", se.Err)
				c.notify(Event{Kind: EventServiceError, Speaker: speaker, Err: err})
			default:
				slog.Error("speech recognition failed", "error", err)
				c.notify(Event{Kind: EventServiceError, Speaker: speaker, Err: err})
			}
			continue
		}

		line := transcript.Line{Timestamp: c.now(), Speaker: speaker, Text: text}
		if err := app.Append(ctx, line); err != nil {
			slog.Error("failed to append transcript line", "error", err, "speaker", speaker)
			continue
		}
		slog.Debug("transcript line appended", "speaker", speaker, "chars", len(text))
		c.archiveUtterance(sessionID, index, line)
		index++
		c.notify(Event{Kind: EventLine, Line: line, Speaker: speaker})
	}
}

// archiveStart records a new session, closing any session a crashed process
// left running. An empty id disables archiving for this loop.
func (c *Controller) archiveStart() string {
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	if orphan, err := c.repo.GetRunningSession(ctx); err != nil {
		slog.Error("failed to query running session", "error", err)
	} else if orphan != nil && orphan.ID != "" {
		slog.Warn("closing orphan running session", "session_id", orphan.ID)
		if err := c.repo.CompleteSession(ctx, repository.CompleteSessionInput{SessionID: orphan.ID, EndedAt: c.now()}); err != nil {
			slog.Error("failed to complete orphan session", "error", err, "session_id", orphan.ID)
		}
	}

	a, b := c.state.Speakers()
	sess, err := c.repo.CreateSession(ctx, repository.CreateSessionInput{
		SpeakerA:       a,
		SpeakerB:       b,
		TranscriptPath: c.store.Path(),
		StartedAt:      c.now(),
	})
	if err != nil {
		slog.Error("failed to archive session start", "error", err)
		return ""
	}
	return sess.ID
}

func (c *Controller) archiveUtterance(sessionID string, index int, line transcript.Line) {
	if sessionID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()
	if err := c.repo.InsertUtterance(ctx, repository.InsertUtteranceInput{
		SessionID:      sessionID,
		Speaker:        line.Speaker,
		Content:        line.Text,
		UtteranceIndex: index,
		SpokenAt:       line.Timestamp,
	}); err != nil {
		slog.Error("failed to archive utterance", "error", err, "session_id", sessionID)
	}
}

func (c *Controller) archiveComplete(sessionID string) {
	if sessionID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()
	if err := c.repo.CompleteSession(ctx, repository.CompleteSessionInput{SessionID: sessionID, EndedAt: c.now()}); err != nil {
		slog.Error("failed to archive session end", "error", err, "session_id", sessionID)
	}
}
