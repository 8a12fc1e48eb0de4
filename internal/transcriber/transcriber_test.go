package transcriber

import (
	"context"
	"errors"
	"testing"
)

func TestServiceError_UnwrapsCause(t *testing.T) {
	var err error = &ServiceError{Op: "recognize", Err: context.DeadlineExceeded}

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected errors.Is to reach the cause")
	}
	var se *ServiceError
	if !errors.As(err, &se) || se.Op != "recognize" {
		t.Fatalf("expected errors.As to find ServiceError, got %#v", se)
	}
	if got := err.Error(); got != "speech service recognize: context deadline exceeded" {
		t.Fatalf("unexpected message: %q", got)
	}
}
