package commands

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

type stubTranscriber struct {
	text string
	err  error
}

func (s *stubTranscriber) Transcribe(ctx context.Context, samples []float32, sampleRate int) (string, error) {
	return s.text, s.err
}

type stubLLM struct {
	response string
	err      error
	called   bool
}

func (s *stubLLM) Generate(ctx context.Context, system, prompt string) (string, error) {
	return s.response, s.err
}

func (s *stubLLM) GenerateJSON(ctx context.Context, system, prompt string) ([]byte, error) {
	s.called = true
	return []byte(s.response), s.err
}

var testCommands = []string{"up", "down", "left", "right"}

func TestIsSilenceArtifact(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"", true},
		{"thank you", true},
		{"thank you.", true},
		{"Thank You.", true},
		{"  Thanks for watching  ", true},
		{"go up", false},
		{"thank you very much", false},
	}
	for _, c := range cases {
		if got := IsSilenceArtifact(c.text); got != c.want {
			t.Errorf("IsSilenceArtifact(%q) = %v, want %v", c.text, got, c.want)
		}
	}
}

func TestParseDirectMatchSkipsLLM(t *testing.T) {
	llm := &stubLLM{}
	p := NewParser(&stubTranscriber{text: "Up"}, llm, testCommands, zap.NewNop())

	parsed := p.Parse(context.Background(), nil, 16000)
	if parsed.Command == nil || *parsed.Command != "up" {
		t.Fatalf("Expected command up, got %+v", parsed.Command)
	}
	if parsed.Confidence != 0.95 {
		t.Errorf("Expected confidence 0.95, got %f", parsed.Confidence)
	}
	if parsed.RawText == nil || *parsed.RawText != "Up" {
		t.Errorf("Raw text should be preserved, got %+v", parsed.RawText)
	}
	if llm.called {
		t.Error("Direct match should not call the LLM")
	}
}

func TestParseViaLLM(t *testing.T) {
	llm := &stubLLM{response: `{"command": "down", "confidence": 0.9}`}
	p := NewParser(&stubTranscriber{text: "go down now"}, llm, testCommands, zap.NewNop())

	parsed := p.Parse(context.Background(), nil, 16000)
	if parsed.Command == nil || *parsed.Command != "down" {
		t.Fatalf("Expected command down, got %+v", parsed.Command)
	}
	if parsed.Confidence != 0.9 {
		t.Errorf("Expected confidence 0.9, got %f", parsed.Confidence)
	}
	if !llm.called {
		t.Error("Non-direct utterance should call the LLM")
	}
}

func TestParseLLMFencedResponse(t *testing.T) {
	llm := &stubLLM{response: "```json\n{\"command\": \"left\", \"confidence\": 0.8}\n```"}
	p := NewParser(&stubTranscriber{text: "move to the left"}, llm, testCommands, zap.NewNop())

	parsed := p.Parse(context.Background(), nil, 16000)
	if parsed.Command == nil || *parsed.Command != "left" {
		t.Fatalf("Fenced JSON should still parse, got %+v", parsed.Command)
	}
}

func TestParseKeepsTranscriptWhenNoCommand(t *testing.T) {
	llm := &stubLLM{response: `{"command": null, "confidence": 0.0}`}
	p := NewParser(&stubTranscriber{text: "what a lovely day"}, llm, testCommands, zap.NewNop())

	parsed := p.Parse(context.Background(), nil, 16000)
	if parsed.Command != nil {
		t.Errorf("Expected no command, got %v", *parsed.Command)
	}
	if parsed.RawText == nil || *parsed.RawText != "what a lovely day" {
		t.Error("Transcript must survive even without a command")
	}
}

func TestParseRejectsInventedCommand(t *testing.T) {
	llm := &stubLLM{response: `{"command": "teleport", "confidence": 0.9}`}
	p := NewParser(&stubTranscriber{text: "teleport me"}, llm, testCommands, zap.NewNop())

	parsed := p.Parse(context.Background(), nil, 16000)
	if parsed.Command != nil {
		t.Errorf("Commands outside the list must be rejected, got %v", *parsed.Command)
	}
}

func TestParseDegradesOnTranscriberError(t *testing.T) {
	p := NewParser(&stubTranscriber{err: errors.New("engine down")}, &stubLLM{}, testCommands, zap.NewNop())

	parsed := p.Parse(context.Background(), nil, 16000)
	if parsed.Command != nil || parsed.RawText != nil || parsed.Confidence != 0 {
		t.Errorf("Transcriber failure should yield an empty result, got %+v", parsed)
	}
}

func TestParseDegradesOnLLMError(t *testing.T) {
	llm := &stubLLM{err: errors.New("timeout")}
	p := NewParser(&stubTranscriber{text: "please go right"}, llm, testCommands, zap.NewNop())

	parsed := p.Parse(context.Background(), nil, 16000)
	if parsed.Command != nil {
		t.Error("LLM failure should yield no command")
	}
	if parsed.RawText == nil || *parsed.RawText != "please go right" {
		t.Error("Transcript should survive an LLM failure")
	}
}

func TestParseEmptyTranscript(t *testing.T) {
	llm := &stubLLM{}
	p := NewParser(&stubTranscriber{text: "  "}, llm, testCommands, zap.NewNop())

	parsed := p.Parse(context.Background(), nil, 16000)
	if parsed.RawText != nil {
		t.Error("Whitespace-only transcript should yield nil raw text")
	}
	if llm.called {
		t.Error("Empty transcript should not reach the LLM")
	}
}
