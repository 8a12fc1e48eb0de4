package session

import "fmt"

const (
	MessageStarted        = "Transcription started. Speak now."
	MessageAlreadyRunning = "Transcription is already in progress."
	MessageStopped        = "Transcription stopped."
	MessageNotRunning     = "No transcription in progress."

	messageSwitchedFormat     = "Switched to %s"
	messageUnrecognizedFormat = "Could not understand %s"
)

func switchedMessage(speaker string) string {
	return fmt.Sprintf(messageSwitchedFormat, speaker)
}

// UnrecognizedMessage is the notice shown when an utterance produced no text.
func UnrecognizedMessage(speaker string) string {
	return fmt.Sprintf(messageUnrecognizedFormat, speaker)
}
