package speakers

import (
	"math"
	"sort"
	"strings"

	"github.com/voicearena/server/domain/entities"
)

// Matcher compares a voice embedding against enrolled profiles using cosine
// similarity.
type Matcher struct {
	threshold float64
}

// NewMatcher creates a matcher with the given similarity threshold.
func NewMatcher(threshold float64) *Matcher {
	return &Matcher{threshold: threshold}
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// filterAllowed restricts candidates to the allow-list. A nil or empty list
// allows everyone.
func filterAllowed(profiles []entities.SpeakerProfile, allowList []string) []entities.SpeakerProfile {
	if len(allowList) == 0 {
		return profiles
	}
	allowed := make(map[string]bool, len(allowList))
	for _, name := range allowList {
		allowed[strings.ToLower(name)] = true
	}
	out := make([]entities.SpeakerProfile, 0, len(profiles))
	for _, p := range profiles {
		if allowed[strings.ToLower(p.Name)] {
			out = append(out, p)
		}
	}
	return out
}

// Identify returns the best match for the embedding among the candidate
// profiles. Ties break in encounter order: the first maximum wins. If the
// best similarity is below the threshold the result is Unknown but still
// carries that similarity so callers can show near-misses.
func (m *Matcher) Identify(embedding []float32, profiles []entities.SpeakerProfile, allowList []string) entities.SpeakerMatch {
	if len(embedding) == 0 {
		return entities.NoMatch()
	}
	candidates := filterAllowed(profiles, allowList)
	if len(candidates) == 0 {
		return entities.NoMatch()
	}

	bestName := ""
	bestSimilarity := -1.0
	for _, p := range candidates {
		similarity := cosineSimilarity(embedding, p.Embedding)
		if similarity > bestSimilarity {
			bestSimilarity = similarity
			bestName = p.Name
		}
	}

	if bestSimilarity >= m.threshold && bestName != "" {
		return entities.SpeakerMatch{Name: bestName, Confidence: bestSimilarity, IsKnown: true}
	}
	confidence := bestSimilarity
	if confidence < 0 {
		confidence = 0
	}
	return entities.SpeakerMatch{Name: entities.UnknownSpeaker, Confidence: confidence, IsKnown: false}
}

// IdentifyWithAlternatives returns every candidate's similarity sorted
// descending, truncated to topK, each flagged known/unknown by the threshold.
func (m *Matcher) IdentifyWithAlternatives(embedding []float32, profiles []entities.SpeakerProfile, topK int) []entities.SpeakerMatch {
	if len(embedding) == 0 || len(profiles) == 0 {
		return []entities.SpeakerMatch{entities.NoMatch()}
	}

	matches := make([]entities.SpeakerMatch, 0, len(profiles))
	for _, p := range profiles {
		similarity := cosineSimilarity(embedding, p.Embedding)
		matches = append(matches, entities.SpeakerMatch{
			Name:       p.Name,
			Confidence: similarity,
			IsKnown:    similarity >= m.threshold,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}
