package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/voicearena/server/domain/repositories"
)

const defaultModel = "gemini-2.0-flash"

// GeminiLLM implements the LargeLanguageModel interface using Google's Gemini API
type GeminiLLM struct {
	client *genai.Client
	logger *zap.Logger
	model  string
}

// Ensure GeminiLLM implements the LargeLanguageModel interface
var _ repositories.LargeLanguageModel = (*GeminiLLM)(nil)

// NewGeminiLLM creates a new Gemini LLM instance
func NewGeminiLLM(apiKey, model string, logger *zap.Logger) (*GeminiLLM, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = defaultModel
		logger.Info("Using default model", zap.String("model", model))
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiLLM{
		client: client,
		logger: logger,
		model:  model,
	}, nil
}

// Generate produces a plain-text completion for the given prompt.
func (g *GeminiLLM) Generate(ctx context.Context, system, prompt string) (string, error) {
	return g.generate(ctx, system, prompt, "")
}

// GenerateJSON produces a completion constrained to JSON output.
func (g *GeminiLLM) GenerateJSON(ctx context.Context, system, prompt string) ([]byte, error) {
	text, err := g.generate(ctx, system, prompt, "application/json")
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}

func (g *GeminiLLM) generate(ctx context.Context, system, prompt, mimeType string) (string, error) {
	config := &genai.GenerateContentConfig{}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if mimeType != "" {
		config.ResponseMIMEType = mimeType
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	response, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		g.logger.Error("Gemini generation failed", zap.Error(err))
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return "", fmt.Errorf("no candidates in response")
	}

	var sb strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty response from model")
	}
	return sb.String(), nil
}
