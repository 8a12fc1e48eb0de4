package summarizer

import (
	"errors"

	"github.com/sambhavnoobcoder/solvent-ai/internal/transcript"
)

const MessageUnavailable = "Unable to generate summary. Please check the transcript."

// StatusMessage renders the outcome of a failed Run for the user.
func StatusMessage(err error) string {
	if errors.Is(err, transcript.ErrNotFound) || errors.Is(err, ErrEmptyTranscript) {
		return MessageUnavailable
	}
	return "Error generating summary: " + err.Error()
}
