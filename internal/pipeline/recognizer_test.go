package pipeline

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/voicearena/server/domain/entities"
	"github.com/voicearena/server/internal/commands"
	"github.com/voicearena/server/internal/speakers"
)

type fakeExtractor struct {
	embedding []float32
	err       error
}

func (f *fakeExtractor) Extract(ctx context.Context, samples []float32, sampleRate int) ([]float32, error) {
	return f.embedding, f.err
}

type fakeStore struct {
	profiles []entities.SpeakerProfile
	err      error
}

func (f *fakeStore) GetAll(ctx context.Context) ([]entities.SpeakerProfile, error) {
	return f.profiles, f.err
}
func (f *fakeStore) Get(ctx context.Context, name string) (*entities.SpeakerProfile, error) {
	return nil, nil
}
func (f *fakeStore) Save(ctx context.Context, profile entities.SpeakerProfile) error { return nil }
func (f *fakeStore) Remove(ctx context.Context, name string) (bool, error)           { return false, nil }
func (f *fakeStore) ListNames(ctx context.Context) ([]string, error)                 { return nil, nil }

type fakeTranscriber struct{ text string }

func (f *fakeTranscriber) Transcribe(ctx context.Context, samples []float32, sampleRate int) (string, error) {
	return f.text, nil
}

type fakeLLM struct{ response string }

func (f *fakeLLM) Generate(ctx context.Context, system, prompt string) (string, error) {
	return f.response, nil
}
func (f *fakeLLM) GenerateJSON(ctx context.Context, system, prompt string) ([]byte, error) {
	return []byte(f.response), nil
}

// loudWindow is well above the silence floor.
func loudWindow(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = 0.08
	}
	return out
}

func newTestRecognizer(t *testing.T, transcript string, extractor *fakeExtractor, store *fakeStore) (*Recognizer, *Pool) {
	t.Helper()
	pool := NewPool(2)
	parser := commands.NewParser(
		&fakeTranscriber{text: transcript},
		&fakeLLM{response: `{"command": null, "confidence": 0.0}`},
		[]string{"up", "down"},
		zap.NewNop(),
	)
	rec := NewRecognizer(pool, speakers.NewMatcher(0.8), extractor, store, parser, 16000, zap.NewNop())
	return rec, pool
}

func TestProcessWindowSilentSkips(t *testing.T) {
	rec, pool := newTestRecognizer(t, "up", &fakeExtractor{}, &fakeStore{})
	defer pool.Close()

	quiet := make([]float32, 24000)
	result := rec.ProcessWindow(context.Background(), quiet, speakers.NewTracker(), nil)
	if result != nil {
		t.Errorf("Silent window should emit nothing, got %+v", result)
	}
}

func TestProcessWindowMergesBothPaths(t *testing.T) {
	extractor := &fakeExtractor{embedding: []float32{1, 0}}
	store := &fakeStore{profiles: []entities.SpeakerProfile{{Name: "Alice", Embedding: []float32{1, 0}}}}
	rec, pool := newTestRecognizer(t, "up", extractor, store)
	defer pool.Close()

	result := rec.ProcessWindow(context.Background(), loudWindow(24000), speakers.NewTracker(), nil)
	if result == nil {
		t.Fatal("Expected a result for voiced audio")
	}
	if result.Speaker != "Alice" {
		t.Errorf("Expected speaker Alice, got %s", result.Speaker)
	}
	if result.Command == nil || *result.Command != "up" {
		t.Errorf("Expected command up, got %+v", result.Command)
	}
	if result.Volume <= 0 || result.Volume > 1 {
		t.Errorf("Volume out of range: %f", result.Volume)
	}
	if result.SpeechDuration != 0.1 {
		t.Errorf("First window should report 0.1s speech, got %f", result.SpeechDuration)
	}
}

func TestProcessWindowEmitsWithoutCommand(t *testing.T) {
	extractor := &fakeExtractor{embedding: []float32{1, 0}}
	rec, pool := newTestRecognizer(t, "hello there everyone", extractor, &fakeStore{})
	defer pool.Close()

	result := rec.ProcessWindow(context.Background(), loudWindow(24000), speakers.NewTracker(), nil)
	if result == nil {
		t.Fatal("Plain speech without a command must still emit a result")
	}
	if result.Command != nil {
		t.Errorf("Expected no command, got %v", *result.Command)
	}
	if result.RawText == nil || *result.RawText != "hello there everyone" {
		t.Error("Raw transcript must be visible to the client")
	}
}

func TestProcessWindowDropsSilenceArtifact(t *testing.T) {
	extractor := &fakeExtractor{embedding: []float32{1, 0}}
	rec, pool := newTestRecognizer(t, "thank you.", extractor, &fakeStore{})
	defer pool.Close()

	result := rec.ProcessWindow(context.Background(), loudWindow(24000), speakers.NewTracker(), nil)
	if result != nil {
		t.Errorf("Artifact transcript must be dropped, got %+v", result)
	}
}

func TestProcessWindowExtractorFailureDegrades(t *testing.T) {
	extractor := &fakeExtractor{err: errors.New("model crashed")}
	store := &fakeStore{profiles: []entities.SpeakerProfile{{Name: "Alice", Embedding: []float32{1, 0}}}}
	rec, pool := newTestRecognizer(t, "go go go", extractor, store)
	defer pool.Close()

	result := rec.ProcessWindow(context.Background(), loudWindow(24000), speakers.NewTracker(), nil)
	if result == nil {
		t.Fatal("Extractor failure must not suppress the transcription result")
	}
	if result.Speaker != entities.UnknownSpeaker {
		t.Errorf("Expected Unknown speaker, got %s", result.Speaker)
	}
	if result.SpeakerConfidence != 0 {
		t.Errorf("Expected confidence 0, got %f", result.SpeakerConfidence)
	}
}

func TestProcessWindowAllowListRestriction(t *testing.T) {
	extractor := &fakeExtractor{embedding: []float32{1, 0}}
	store := &fakeStore{profiles: []entities.SpeakerProfile{
		{Name: "Alice", Embedding: []float32{1, 0}},
		{Name: "Bob", Embedding: []float32{0, 1}},
	}}
	rec, pool := newTestRecognizer(t, "moving on up", extractor, store)
	defer pool.Close()

	result := rec.ProcessWindow(context.Background(), loudWindow(24000), speakers.NewTracker(), []string{"Bob"})
	if result == nil {
		t.Fatal("Expected a result")
	}
	if result.Speaker == "Alice" {
		t.Error("Allow-list should have excluded Alice")
	}
}
