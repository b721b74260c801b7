package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestExtract(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Bad request body: %v", err)
		}
		if req.SampleRate != 16000 {
			t.Errorf("Expected sample rate 16000, got %d", req.SampleRate)
		}
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float32{0.1, 0.2}})
	}))
	defer server.Close()

	extractor := NewHTTPExtractor(server.URL, zap.NewNop())

	vec, err := extractor.Extract(context.Background(), []float32{0.5, -0.5}, 16000)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(vec) != 2 || vec[0] != 0.1 {
		t.Errorf("Unexpected embedding: %v", vec)
	}
}

func TestExtractServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	extractor := NewHTTPExtractor(server.URL, zap.NewNop())

	if _, err := extractor.Extract(context.Background(), []float32{0.5}, 16000); err == nil {
		t.Error("Service errors should surface so identification can degrade")
	}
}

func TestExtractEmptyVector(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{})
	}))
	defer server.Close()

	extractor := NewHTTPExtractor(server.URL, zap.NewNop())

	if _, err := extractor.Extract(context.Background(), []float32{0.5}, 16000); err == nil {
		t.Error("An empty vector is unusable and should be an error")
	}
}
