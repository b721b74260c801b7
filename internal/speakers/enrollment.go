package speakers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/voicearena/server/domain/entities"
	"github.com/voicearena/server/domain/repositories"
)

// Enrollment extracts a voice embedding from accumulated audio and persists
// it as a speaker profile. Re-enrolling an existing name replaces the stored
// embedding.
type Enrollment struct {
	extractor repositories.EmbeddingExtractor
	store     repositories.SpeakerProfileStore
	logger    *zap.Logger
}

// NewEnrollment creates an enrollment service.
func NewEnrollment(extractor repositories.EmbeddingExtractor, store repositories.SpeakerProfileStore, logger *zap.Logger) *Enrollment {
	return &Enrollment{extractor: extractor, store: store, logger: logger}
}

// Enroll builds and saves a profile for name from the given audio. It returns
// a success flag plus a human-readable message for the client; failures are
// reported in the message, never as a panic or connection fault.
func (e *Enrollment) Enroll(ctx context.Context, name string, samples []float32, sampleRate int) (bool, string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, "Speaker name is required"
	}

	embedding, err := e.extractor.Extract(ctx, samples, sampleRate)
	if err != nil {
		e.logger.Error("Embedding extraction failed during enrollment",
			zap.String("name", name),
			zap.Error(err))
		return false, "Could not extract a voice profile from the audio"
	}

	existing, err := e.store.Get(ctx, name)
	if err != nil {
		e.logger.Error("Profile lookup failed during enrollment",
			zap.String("name", name),
			zap.Error(err))
		return false, "Speaker storage is unavailable"
	}

	profile := entities.SpeakerProfile{
		Name:       name,
		Embedding:  embedding,
		EnrolledAt: time.Now().UTC(),
	}
	if err := e.store.Save(ctx, profile); err != nil {
		e.logger.Error("Profile save failed during enrollment",
			zap.String("name", name),
			zap.Error(err))
		return false, "Failed to save the speaker profile"
	}

	if existing != nil {
		return true, fmt.Sprintf("Updated voice profile for %s", name)
	}
	return true, fmt.Sprintf("Enrolled %s", name)
}
