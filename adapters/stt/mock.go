package stt

import (
	"context"

	"go.uber.org/zap"

	"github.com/voicearena/server/domain/repositories"
)

// MockTranscriber is a placeholder transcriber for local development.
type MockTranscriber struct {
	logger *zap.Logger
}

// Ensure MockTranscriber implements the Transcriber interface
var _ repositories.Transcriber = (*MockTranscriber)(nil)

// NewMockTranscriber creates a mock transcriber
func NewMockTranscriber(logger *zap.Logger) *MockTranscriber {
	return &MockTranscriber{logger: logger}
}

// Transcribe returns canned text based on how much audio arrived: command
// windows get a command, longer captures get a dance description.
func (m *MockTranscriber) Transcribe(ctx context.Context, samples []float32, sampleRate int) (string, error) {
	m.logger.Info("Mock transcription", zap.Int("samples", len(samples)))

	seconds := float64(len(samples)) / float64(sampleRate)
	switch {
	case seconds > 5:
		return "wave your arms in the air then spin around and finish with a bow", nil
	case seconds > 1:
		return "up", nil
	default:
		return "", nil
	}
}
