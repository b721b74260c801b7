package choreo

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/kaptinlin/jsonrepair"

	"github.com/voicearena/server/domain/entities"
)

const (
	minKeyframes = 3
	maxKeyframes = 20

	// Playback pads one second past the final keyframe.
	tailSeconds = 1.0
)

// rawPlan mirrors the generator's JSON loosely enough to validate it by hand.
// Pointer fields distinguish "absent" from zero values.
type rawPlan struct {
	Duration  *float64      `json:"duration"`
	Keyframes *[]rawKeyframe `json:"keyframes"`
}

type rawKeyframe struct {
	Time *float64 `json:"time"`
	Pose *string  `json:"pose"`
}

// ValidatePlan checks and repairs a generator response. Malformed JSON is run
// through jsonrepair before giving up. Unknown poses are rewritten to the
// neutral pose instead of failing the plan; structural problems (missing
// keys, too few keyframes, keyframes without time or pose) are errors, for
// which callers substitute the fallback plan.
//
// The returned plan has keyframes sorted ascending by time, and its duration
// is always recomputed as the last keyframe time plus one second, overriding
// whatever the generator supplied.
func ValidatePlan(raw []byte) (entities.ChoreographyPlan, error) {
	var parsed rawPlan
	if err := unmarshalRepaired(raw, &parsed); err != nil {
		return entities.ChoreographyPlan{}, fmt.Errorf("parse plan: %w", err)
	}

	if parsed.Duration == nil || parsed.Keyframes == nil {
		return entities.ChoreographyPlan{}, fmt.Errorf("plan missing duration or keyframes")
	}

	frames := *parsed.Keyframes
	if len(frames) < minKeyframes {
		return entities.ChoreographyPlan{}, fmt.Errorf("too few keyframes: %d", len(frames))
	}
	if len(frames) > maxKeyframes {
		frames = frames[:maxKeyframes]
	}

	keyframes := make([]entities.Keyframe, 0, len(frames))
	for i, f := range frames {
		if f.Time == nil || f.Pose == nil {
			return entities.ChoreographyPlan{}, fmt.Errorf("keyframe %d missing time or pose", i)
		}
		pose := entities.Pose(*f.Pose)
		if !pose.IsValid() {
			pose = entities.PoseNeutral
		}
		keyframes = append(keyframes, entities.Keyframe{Time: *f.Time, Pose: pose})
	}

	sort.SliceStable(keyframes, func(i, j int) bool {
		return keyframes[i].Time < keyframes[j].Time
	})

	return entities.ChoreographyPlan{
		Duration:  keyframes[len(keyframes)-1].Time + tailSeconds,
		Keyframes: keyframes,
	}, nil
}

// unmarshalRepaired unmarshals data into v, running it through jsonrepair on
// a syntax error before retrying.
func unmarshalRepaired(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	if _, ok := err.(*json.SyntaxError); ok {
		fixed, repairErr := jsonrepair.JSONRepair(string(data))
		if repairErr != nil {
			return err
		}
		return json.Unmarshal([]byte(fixed), v)
	}
	return err
}
