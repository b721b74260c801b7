package repositories

import "context"

// LargeLanguageModel abstracts any chat/LLM provider.
// Calls are fallible and possibly slow; callers apply their own timeouts via
// the context.
type LargeLanguageModel interface {
	// Generate takes a system instruction and user prompt and returns the
	// model's plain-text reply.
	Generate(ctx context.Context, system, prompt string) (string, error)
	// GenerateJSON is like Generate but requests a JSON object response and
	// returns the raw bytes for the caller to decode.
	GenerateJSON(ctx context.Context, system, prompt string) ([]byte, error)
}
