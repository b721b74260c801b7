package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/voicearena/server/domain/repositories"
)

// Parsed is the outcome of one transcription + command-extraction pass.
// Command is nil when speech was heard but no valid command was detected.
type Parsed struct {
	Command    *string
	RawText    *string
	Confidence float64
}

// Phrases the transcription engine emits spuriously on near-silent input.
// Matched case-insensitively with a trailing period stripped.
var silenceArtifacts = []string{
	"thank you",
	"thanks for watching",
	"subscribe",
	"like and subscribe",
	"thanks for listening",
	"please subscribe",
	"thank you for watching",
}

// IsSilenceArtifact reports whether text is empty or a known spurious
// transcription of silence.
func IsSilenceArtifact(text string) bool {
	if text == "" {
		return true
	}
	normalized := strings.TrimSuffix(strings.TrimSpace(strings.ToLower(text)), ".")
	for _, phrase := range silenceArtifacts {
		if normalized == phrase {
			return true
		}
	}
	return false
}

// Parser turns an audio window into a transcript and, when possible, a game
// command. Direct single-word matches skip the language model entirely.
type Parser struct {
	transcriber   repositories.Transcriber
	llm           repositories.LargeLanguageModel
	validCommands []string
	logger        *zap.Logger
}

// NewParser creates a command parser over the given collaborators.
func NewParser(transcriber repositories.Transcriber, llm repositories.LargeLanguageModel, validCommands []string, logger *zap.Logger) *Parser {
	return &Parser{
		transcriber:   transcriber,
		llm:           llm,
		validCommands: validCommands,
		logger:        logger,
	}
}

// Transcribe exposes raw transcription for callers that need the full text
// without command extraction (choreography capture).
func (p *Parser) Transcribe(ctx context.Context, samples []float32, sampleRate int) (string, error) {
	return p.transcriber.Transcribe(ctx, samples, sampleRate)
}

// Parse transcribes the window and extracts a command. Collaborator failures
// degrade to a command-less result; Parse never returns an error.
func (p *Parser) Parse(ctx context.Context, samples []float32, sampleRate int) Parsed {
	rawText, err := p.transcriber.Transcribe(ctx, samples, sampleRate)
	if err != nil {
		p.logger.Warn("Transcription failed", zap.Error(err))
		return Parsed{}
	}
	rawText = strings.TrimSpace(rawText)
	if rawText == "" {
		return Parsed{}
	}

	// Direct match: the utterance is exactly one valid command.
	lowered := strings.ToLower(rawText)
	for _, cmd := range p.validCommands {
		if lowered == cmd {
			command := cmd
			return Parsed{Command: &command, RawText: &rawText, Confidence: 0.95}
		}
	}

	command, confidence := p.extractWithLLM(ctx, rawText)
	return Parsed{Command: command, RawText: &rawText, Confidence: confidence}
}

type llmExtraction struct {
	Command    *string `json:"command"`
	Confidence float64 `json:"confidence"`
}

func (p *Parser) extractWithLLM(ctx context.Context, rawText string) (*string, float64) {
	raw, err := p.llm.GenerateJSON(ctx, p.systemPrompt(), fmt.Sprintf("Transcribed speech: %q", rawText))
	if err != nil {
		p.logger.Warn("Command extraction failed", zap.Error(err))
		return nil, 0
	}

	var result llmExtraction
	if err := json.Unmarshal(stripMarkdownFences(raw), &result); err != nil {
		p.logger.Warn("Command extraction returned malformed JSON",
			zap.ByteString("response", raw),
			zap.Error(err))
		return nil, 0
	}

	// The model occasionally invents commands outside the list.
	if result.Command != nil {
		valid := false
		for _, cmd := range p.validCommands {
			if *result.Command == cmd {
				valid = true
				break
			}
		}
		if !valid {
			return nil, 0
		}
	}
	return result.Command, result.Confidence
}

func (p *Parser) systemPrompt() string {
	quoted := make([]string, len(p.validCommands))
	for i, cmd := range p.validCommands {
		quoted[i] = fmt.Sprintf("%q", cmd)
	}

	return fmt.Sprintf(`You are a voice command parser for a game. Extract game commands from transcribed speech.

Valid commands: %s

Rules:
1. Only extract commands from the list above
2. Ignore filler words, partial words, or unclear speech
3. If multiple commands are mentioned, return only the FIRST clear command
4. If no valid command is detected, return null

Respond with JSON only, no other text:
{"command": "<command>" | null, "confidence": <0.0-1.0>}`, strings.Join(quoted, ", "))
}

// stripMarkdownFences removes a ```json ... ``` wrapper some models add
// despite being told not to.
func stripMarkdownFences(raw []byte) []byte {
	text := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(text, "```") {
		return raw
	}
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimPrefix(text, "json")
	if i := strings.Index(text, "```"); i >= 0 {
		text = text[:i]
	}
	return []byte(strings.TrimSpace(text))
}
