package service

import "context"

// SpeechSynthesizer reads interview questions aloud. The engine only cares
// that any ongoing output can be canceled when the user signs out.
type SpeechSynthesizer interface {
	// Speak starts synthesizing the given text and returns an utterance id.
	Speak(ctx context.Context, text string) (string, error)

	// CancelAll stops any active speech output and drops queued utterances.
	CancelAll(ctx context.Context) error
}
