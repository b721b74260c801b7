package llm

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/voicearena/server/domain/repositories"
)

// MockGeminiLLM is a deterministic stand-in for local development without an
// API key.
type MockGeminiLLM struct {
	logger *zap.Logger
}

// Ensure MockGeminiLLM implements the LargeLanguageModel interface
var _ repositories.LargeLanguageModel = (*MockGeminiLLM)(nil)

// NewMockGeminiLLM creates a mock LLM
func NewMockGeminiLLM(logger *zap.Logger) *MockGeminiLLM {
	return &MockGeminiLLM{logger: logger}
}

// Generate returns a canned line keyed on the prompt contents.
func (m *MockGeminiLLM) Generate(ctx context.Context, system, prompt string) (string, error) {
	m.logger.Info("Mock generation", zap.Int("promptLength", len(prompt)))

	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "shouted"):
		return "What a move, the crowd goes wild!", nil
	case strings.Contains(lower, "command"):
		return "NONE", nil
	default:
		return "Okay!", nil
	}
}

// GenerateJSON returns a small fixed choreography so the dance flow works
// end to end offline.
func (m *MockGeminiLLM) GenerateJSON(ctx context.Context, system, prompt string) ([]byte, error) {
	m.logger.Info("Mock JSON generation", zap.Int("promptLength", len(prompt)))

	return []byte(`{
		"duration": 8,
		"keyframes": [
			{"time": 0, "pose": "IDLE"},
			{"time": 2, "pose": "ARMS_UP"},
			{"time": 4, "pose": "SPIN_LEFT"},
			{"time": 6, "pose": "BOW"}
		]
	}`), nil
}
