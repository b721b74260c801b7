package narrator

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/voicearena/server/domain/entities"
	"github.com/voicearena/server/domain/repositories"
)

const (
	// Minimum gap between narrations so the commentary never talks over
	// itself.
	cooldown = 5 * time.Second

	synthesisTimeout = 8 * time.Second
)

const systemPrompt = `You are an excitable sports commentator for a voice-controlled arena game.
Respond with ONE short sentence (under 15 words) reacting to the move.
No emoji, no quotes, just the line.`

// Narrator produces short spoken commentary for recognized commands: one LLM
// one-liner fed through speech synthesis. Everything is best-effort; a failed
// narration is logged and dropped.
type Narrator struct {
	llm    repositories.LargeLanguageModel
	tts    repositories.TextToSpeech
	logger *zap.Logger

	mu   sync.Mutex
	last time.Time
}

// New creates a narrator over the given generation and synthesis backends.
func New(llm repositories.LargeLanguageModel, tts repositories.TextToSpeech, logger *zap.Logger) *Narrator {
	return &Narrator{
		llm:    llm,
		tts:    tts,
		logger: logger,
	}
}

// Narrate turns a recognition result into a commentary line and synthesized
// audio (base64-encoded PCM). Returns ok=false while cooling down or when
// either backend fails.
func (n *Narrator) Narrate(ctx context.Context, result *entities.RecognitionResult) (string, string, bool) {
	if result == nil || result.Command == nil {
		return "", "", false
	}

	n.mu.Lock()
	if time.Since(n.last) < cooldown {
		n.mu.Unlock()
		return "", "", false
	}
	n.last = time.Now()
	n.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, synthesisTimeout)
	defer cancel()

	prompt := fmt.Sprintf("%s just shouted %q!", result.Speaker, *result.Command)
	line, err := n.llm.Generate(ctx, systemPrompt, prompt)
	if err != nil {
		n.logger.Warn("Narration generation failed", zap.Error(err))
		return "", "", false
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", "", false
	}

	audio, err := n.tts.Synthesize(ctx, line)
	if err != nil {
		n.logger.Warn("Narration synthesis failed", zap.Error(err))
		return "", "", false
	}

	n.logger.Info("Narration ready",
		zap.String("speaker", result.Speaker),
		zap.String("line", line))
	return line, base64.StdEncoding.EncodeToString(audio), true
}
