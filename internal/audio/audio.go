// Package audio defines microphone capture and utterance segmentation.
package audio

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrWaitTimeout reports that no speech started within the listen timeout.
	ErrWaitTimeout = errors.New("listening timed out while waiting for speech to start")
	// ErrSourceClosed reports that the capture stream ended.
	ErrSourceClosed = errors.New("audio source closed")
)

// Source streams mono signed 16-bit PCM frames.
type Source interface {
	Frames() <-chan []int16
	SampleRate() int
	Close() error
}

// Microphone opens a capture Source. The caller owns the returned Source and
// must Close it.
type Microphone interface {
	Open(ctx context.Context) (Source, error)
}

// Device describes one input source offered by the sound server.
type Device struct {
	ID          string
	Description string
	State       string
	Available   bool
	Muted       bool
	Default     bool
}

type DeviceLister interface {
	ListDevices(ctx context.Context) ([]Device, error)
}

// Utterance is one bounded segment of captured speech.
type Utterance struct {
	PCM        []int16
	SampleRate int
	CapturedAt time.Time
}

func (u Utterance) Duration() time.Duration {
	return samplesDuration(len(u.PCM), u.SampleRate)
}

func samplesDuration(samples, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}
