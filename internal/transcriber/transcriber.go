package transcriber

import (
	"context"
	"errors"
	"fmt"

	"github.com/sambhavnoobcoder/solvent-ai/internal/audio"
)

// ErrUnrecognized reports that the service heard audio but produced no text.
var ErrUnrecognized = errors.New("speech could not be understood")

// ServiceError wraps a failure talking to the recognition service: network,
// auth, quota and the like. The loop logs it and keeps listening.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("speech service %s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

type Transcriber interface {
	Transcribe(ctx context.Context, utt audio.Utterance) (string, error)
}
