package repositories

import (
	"context"

	"github.com/voicearena/server/domain/entities"
)

// SpeakerProfileStore persists enrolled speaker profiles as a flat list
// keyed by case-insensitive name.
type SpeakerProfileStore interface {
	// GetAll returns every enrolled profile, embeddings included.
	GetAll(ctx context.Context) ([]entities.SpeakerProfile, error)
	// Get returns the profile for name, or nil if not enrolled.
	Get(ctx context.Context, name string) (*entities.SpeakerProfile, error)
	// Save adds the profile, or replaces an existing one with the same name.
	Save(ctx context.Context, profile entities.SpeakerProfile) error
	// Remove deletes the profile for name. Returns false if it did not exist.
	Remove(ctx context.Context, name string) (bool, error)
	// ListNames returns the display names of all enrolled speakers.
	ListNames(ctx context.Context) ([]string, error)
}
