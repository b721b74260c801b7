package choreo

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/voicearena/server/domain/entities"
	"github.com/voicearena/server/domain/repositories"
	"github.com/voicearena/server/internal/metrics"
)

// How long the plan generation call may take before we fall back.
const generationTimeout = 10 * time.Second

const generatorSystemPrompt = "You are a dance choreographer. Output only valid JSON."

// Generator asks the language model for a structured dance plan and repairs
// the result. Generation never fails: any error anywhere in the chain yields
// the fixed fallback plan.
type Generator struct {
	llm    repositories.LargeLanguageModel
	logger *zap.Logger
}

// NewGenerator creates a plan generator.
func NewGenerator(llm repositories.LargeLanguageModel, logger *zap.Logger) *Generator {
	return &Generator{llm: llm, logger: logger}
}

// Generate turns a spoken description into a validated choreography plan.
func (g *Generator) Generate(ctx context.Context, transcript string) entities.ChoreographyPlan {
	ctx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	raw, err := g.llm.GenerateJSON(ctx, generatorSystemPrompt, buildPrompt(transcript))
	if err != nil {
		g.logger.Warn("Choreography generation failed, using fallback",
			zap.Error(err))
		metrics.DanceFallbacks.Inc()
		return entities.FallbackPlan()
	}

	plan, err := ValidatePlan(raw)
	if err != nil {
		g.logger.Warn("Choreography plan failed validation, using fallback",
			zap.ByteString("response", raw),
			zap.Error(err))
		metrics.DanceFallbacks.Inc()
		return entities.FallbackPlan()
	}

	g.logger.Info("Choreography plan generated",
		zap.Int("keyframes", len(plan.Keyframes)),
		zap.Float64("duration", plan.Duration))
	return plan
}

func buildPrompt(transcript string) string {
	return fmt.Sprintf(`You are a creative dance choreographer. Convert the user's description into a structured dance sequence for a stick figure character.

Available poses (angles in degrees):
- IDLE: Standing neutral
- ARMS_UP: Both arms raised overhead (90°)
- ARMS_WAVE_LEFT: Left arm up (90°), right arm down (0°)
- ARMS_WAVE_RIGHT: Right arm up (90°), left arm down (0°)
- SPIN_LEFT: Body rotates left (-45°)
- SPIN_RIGHT: Body rotates right (45°)
- KICK_LEFT: Left leg extended (90°)
- KICK_RIGHT: Right leg extended (90°)
- JUMP: Both legs bent, body elevated
- BOW: Body bent forward (-45°)

User description: %q

Create a dance sequence with 8-15 keyframes that matches the description. Space keyframes 1-2 seconds apart for smooth motion. Be creative and match the user's description closely.

Return ONLY valid JSON (no markdown, no explanation):
{
  "duration": 12.0,
  "keyframes": [
    {"time": 0.0, "pose": "IDLE"},
    {"time": 2.0, "pose": "ARMS_UP"},
    {"time": 4.0, "pose": "SPIN_LEFT"}
  ]
}`, transcript)
}
