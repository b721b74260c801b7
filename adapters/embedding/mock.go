package embedding

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/voicearena/server/domain/repositories"
)

const mockDimensions = 192

// MockExtractor is a deterministic extractor for local development. It
// derives a pseudo-embedding from coarse signal statistics, so the same
// voiceprint audio maps to roughly the same vector.
type MockExtractor struct {
	logger *zap.Logger
}

// Ensure MockExtractor implements the EmbeddingExtractor interface
var _ repositories.EmbeddingExtractor = (*MockExtractor)(nil)

// NewMockExtractor creates a mock extractor
func NewMockExtractor(logger *zap.Logger) *MockExtractor {
	return &MockExtractor{logger: logger}
}

// Extract fabricates a stable vector from per-band energy of the input.
func (m *MockExtractor) Extract(ctx context.Context, samples []float32, sampleRate int) ([]float32, error) {
	m.logger.Info("Mock embedding extraction", zap.Int("samples", len(samples)))

	out := make([]float32, mockDimensions)
	if len(samples) == 0 {
		return out, nil
	}

	band := len(samples) / mockDimensions
	if band == 0 {
		band = 1
	}
	for i := 0; i < mockDimensions; i++ {
		start := i * band
		if start >= len(samples) {
			break
		}
		end := start + band
		if end > len(samples) {
			end = len(samples)
		}
		var sum float64
		for _, s := range samples[start:end] {
			sum += float64(s) * float64(s)
		}
		out[i] = float32(math.Sqrt(sum / float64(end-start)))
	}
	return out, nil
}
