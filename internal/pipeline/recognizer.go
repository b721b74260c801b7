package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/voicearena/server/domain/entities"
	"github.com/voicearena/server/domain/repositories"
	"github.com/voicearena/server/internal/audio"
	"github.com/voicearena/server/internal/commands"
	"github.com/voicearena/server/internal/metrics"
	"github.com/voicearena/server/internal/speakers"
)

// Recognizer runs speaker identification and command parsing concurrently
// against one audio window and merges the outcomes.
type Recognizer struct {
	pool       *Pool
	matcher    *speakers.Matcher
	extractor  repositories.EmbeddingExtractor
	profiles   repositories.SpeakerProfileStore
	parser     *commands.Parser
	sampleRate int
	logger     *zap.Logger
}

// NewRecognizer wires the fan-out over the shared worker pool.
func NewRecognizer(
	pool *Pool,
	matcher *speakers.Matcher,
	extractor repositories.EmbeddingExtractor,
	profiles repositories.SpeakerProfileStore,
	parser *commands.Parser,
	sampleRate int,
	logger *zap.Logger,
) *Recognizer {
	return &Recognizer{
		pool:       pool,
		matcher:    matcher,
		extractor:  extractor,
		profiles:   profiles,
		parser:     parser,
		sampleRate: sampleRate,
		logger:     logger,
	}
}

// ProcessWindow recognizes one consumed window. It blocks until both the
// speaker-ID and transcription tasks have joined, preserving per-connection
// ordering. A nil result means the window produced nothing worth emitting:
// silent audio, an artifact transcript, or an internal failure.
func (r *Recognizer) ProcessWindow(ctx context.Context, window []float32, tracker *speakers.Tracker, allowList []string) *entities.RecognitionResult {
	volume := audio.Volume(window)
	isSpeaking := volume > 0

	if audio.IsSilent(window) {
		metrics.WindowsDroppedSilent.Inc()
		return nil
	}
	metrics.WindowsProcessed.Inc()

	started := time.Now()

	// Each task gets its own copy of the window so neither mutates shared
	// state. The speaker path additionally gets a peak-normalized copy, which
	// is what the embedding model expects.
	speakerAudio := prepareForModel(window)
	commandAudio := make([]float32, len(window))
	copy(commandAudio, window)

	var match entities.SpeakerMatch
	var parsed commands.Parsed

	speakerTask := r.pool.Submit(func() {
		match = r.identify(ctx, speakerAudio, allowList)
	})
	commandTask := r.pool.Submit(func() {
		parsed = r.parser.Parse(ctx, commandAudio, r.sampleRate)
	})

	speakerTask.Wait()
	commandTask.Wait()

	metrics.RecognitionLatency.Observe(time.Since(started).Seconds())

	// Speech duration uses the resolved speaker name so the meter follows
	// whoever the matcher settled on.
	speechDuration := tracker.Observe(match.Name, isSpeaking)

	rawText := ""
	if parsed.RawText != nil {
		rawText = *parsed.RawText
	}
	if commands.IsSilenceArtifact(rawText) {
		metrics.WindowsDroppedArtifact.Inc()
		return nil
	}

	if parsed.Command != nil {
		metrics.CommandsRecognized.Inc()
	}

	return &entities.RecognitionResult{
		Timestamp:         time.Now().UTC().Format(time.RFC3339Nano),
		Speaker:           match.Name,
		SpeakerConfidence: match.Confidence,
		Command:           parsed.Command,
		RawText:           parsed.RawText,
		CommandConfidence: parsed.Confidence,
		Volume:            volume,
		SpeechDuration:    speechDuration,
	}
}

// identify extracts an embedding and matches it against enrolled profiles.
// Every failure path degrades to Unknown rather than surfacing an error.
func (r *Recognizer) identify(ctx context.Context, samples []float32, allowList []string) entities.SpeakerMatch {
	embedding, err := r.extractor.Extract(ctx, samples, r.sampleRate)
	if err != nil {
		r.logger.Warn("Embedding extraction failed", zap.Error(err))
		return entities.NoMatch()
	}

	profiles, err := r.profiles.GetAll(ctx)
	if err != nil {
		r.logger.Warn("Profile load failed during identification", zap.Error(err))
		return entities.NoMatch()
	}

	return r.matcher.Identify(embedding, profiles, allowList)
}

// prepareForModel returns a peak-normalized copy of the window.
func prepareForModel(window []float32) []float32 {
	out := make([]float32, len(window))
	var peak float32
	for _, s := range window {
		if s > peak {
			peak = s
		} else if -s > peak {
			peak = -s
		}
	}
	if peak == 0 {
		copy(out, window)
		return out
	}
	for i, s := range window {
		out[i] = s / peak
	}
	return out
}
