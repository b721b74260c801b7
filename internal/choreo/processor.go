package choreo

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/voicearena/server/domain/entities"
	"github.com/voicearena/server/domain/repositories"
	"github.com/voicearena/server/internal/metrics"
)

// A usable description needs at least this many transcript characters.
const minTranscriptLength = 10

// ErrTranscriptTooShort means the captured speech was too thin to
// choreograph. It is the only error the processing chain surfaces; once a
// transcript exists, generation always yields a plan.
var ErrTranscriptTooShort = errors.New("transcript too short to choreograph")

// Processor runs the one-shot choreography pipeline on captured audio:
// transcription, the minimum-length gate, plan generation, validation.
type Processor struct {
	transcriber repositories.Transcriber
	generator   *Generator
	sampleRate  int
	logger      *zap.Logger
}

// NewProcessor creates a choreography processor.
func NewProcessor(transcriber repositories.Transcriber, generator *Generator, sampleRate int, logger *zap.Logger) *Processor {
	return &Processor{
		transcriber: transcriber,
		generator:   generator,
		sampleRate:  sampleRate,
		logger:      logger,
	}
}

// Transcribe turns captured audio into a dance description, applying the
// minimum-length gate.
func (p *Processor) Transcribe(ctx context.Context, samples []float32) (string, error) {
	transcript, err := p.transcriber.Transcribe(ctx, samples, p.sampleRate)
	if err != nil {
		p.logger.Error("Choreography transcription failed", zap.Error(err))
		return "", err
	}

	transcript = strings.TrimSpace(transcript)
	if len(transcript) < minTranscriptLength {
		p.logger.Info("Choreography transcript too short",
			zap.Int("length", len(transcript)))
		return "", ErrTranscriptTooShort
	}

	p.logger.Info("Choreography transcript ready",
		zap.Int("length", len(transcript)))
	return transcript, nil
}

// Generate produces a validated plan from a transcript. It never fails; the
// fallback plan stands in for any generator trouble.
func (p *Processor) Generate(ctx context.Context, transcript string) entities.ChoreographyPlan {
	plan := p.generator.Generate(ctx, transcript)
	metrics.DancePlansGenerated.Inc()
	return plan
}

// Process runs both stages back to back. The generator is never called when
// the transcript fails the minimum-length gate.
func (p *Processor) Process(ctx context.Context, samples []float32) (entities.ChoreographyPlan, string, error) {
	transcript, err := p.Transcribe(ctx, samples)
	if err != nil {
		return entities.ChoreographyPlan{}, "", err
	}
	return p.Generate(ctx, transcript), transcript, nil
}
