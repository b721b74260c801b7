package repositories

import "context"

// TextToSpeech abstracts speech synthesis for narrator commentary.
type TextToSpeech interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
