package repositories

import "context"

// EmbeddingExtractor abstracts the speaker-embedding model.
// It returns a fixed-length voice embedding for the given audio. Callers must
// treat a failure as "no match possible" rather than propagating it.
type EmbeddingExtractor interface {
	Extract(ctx context.Context, samples []float32, sampleRate int) ([]float32, error)
}
