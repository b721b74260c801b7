package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/voicearena/server/domain/repositories"
)

// HTTPExtractor implements EmbeddingExtractor against a voice-embedding
// sidecar service. The model runs out of process; this client sends raw
// samples and gets the fixed-length vector back.
type HTTPExtractor struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// Ensure HTTPExtractor implements the EmbeddingExtractor interface
var _ repositories.EmbeddingExtractor = (*HTTPExtractor)(nil)

// NewHTTPExtractor creates an extractor client for the given sidecar URL.
func NewHTTPExtractor(baseURL string, logger *zap.Logger) *HTTPExtractor {
	return &HTTPExtractor{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

type embedRequest struct {
	Samples    []float32 `json:"samples"`
	SampleRate int       `json:"sample_rate"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Extract posts the audio to the sidecar and returns the embedding vector.
func (e *HTTPExtractor) Extract(ctx context.Context, samples []float32, sampleRate int) ([]float32, error) {
	payload, err := json.Marshal(embedRequest{Samples: samples, SampleRate: sampleRate})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embed", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding service %s: %s", resp.Status, string(body))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("embedding decode: %w", err)
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("embedding service returned an empty vector")
	}
	return out.Embedding, nil
}
