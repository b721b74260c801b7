package repositories

import "context"

// Transcriber abstracts speech recognition services.
// Samples are mono float32 normalized to [-1, 1]. An empty string with a nil
// error is a valid outcome (no speech detected).
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32, sampleRate int) (string, error)
}
