package entities

import (
	"errors"
	"strings"
	"time"
)

// UnknownSpeaker is the name reported when no enrolled profile matches.
const UnknownSpeaker = "Unknown"

// SpeakerProfile is an enrolled speaker: a display name, the voice embedding
// produced by the embedding model, and when it was (last) enrolled.
// Names are unique case-insensitively.
type SpeakerProfile struct {
	Name       string    `json:"name"`
	Embedding  []float32 `json:"embedding"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// Key returns the canonical storage key for the profile name.
func (p *SpeakerProfile) Key() string {
	return strings.ToLower(strings.TrimSpace(p.Name))
}

// Validate checks the profile before persisting.
func (p *SpeakerProfile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("speaker name is required")
	}
	if len(p.Embedding) == 0 {
		return errors.New("speaker embedding is required")
	}
	return nil
}

// SpeakerMatch is the outcome of identifying one audio window against the
// enrolled profiles.
type SpeakerMatch struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	IsKnown    bool    `json:"is_known"`
}

// NoMatch is the degraded result used when identification cannot run at all
// (no profiles enrolled, or the embedding model failed).
func NoMatch() SpeakerMatch {
	return SpeakerMatch{Name: UnknownSpeaker, Confidence: 0, IsKnown: false}
}
