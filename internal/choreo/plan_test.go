package choreo

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/voicearena/server/domain/entities"
)

func TestValidatePlanHappyPath(t *testing.T) {
	raw := []byte(`{
		"duration": 99,
		"keyframes": [
			{"time": 4.0, "pose": "SPIN_LEFT"},
			{"time": 0.0, "pose": "IDLE"},
			{"time": 2.0, "pose": "ARMS_UP"}
		]
	}`)

	plan, err := ValidatePlan(raw)
	if err != nil {
		t.Fatalf("ValidatePlan failed: %v", err)
	}

	if len(plan.Keyframes) != 3 {
		t.Fatalf("Expected 3 keyframes, got %d", len(plan.Keyframes))
	}
	// Sorted ascending by time.
	for i := 1; i < len(plan.Keyframes); i++ {
		if plan.Keyframes[i].Time < plan.Keyframes[i-1].Time {
			t.Error("Keyframes not sorted ascending by time")
		}
	}
	// Duration always recomputed from the last keyframe, the stated 99 is
	// ignored.
	if plan.Duration != 5.0 {
		t.Errorf("Expected duration 5.0, got %f", plan.Duration)
	}
}

func TestValidatePlanOverridesMatchingDurationToo(t *testing.T) {
	raw := []byte(`{
		"duration": 3.0,
		"keyframes": [
			{"time": 0.0, "pose": "IDLE"},
			{"time": 1.0, "pose": "JUMP"},
			{"time": 2.0, "pose": "BOW"}
		]
	}`)

	plan, err := ValidatePlan(raw)
	if err != nil {
		t.Fatalf("ValidatePlan failed: %v", err)
	}
	if plan.Duration != 3.0 {
		t.Errorf("Duration should be last keyframe + 1.0 = 3.0, got %f", plan.Duration)
	}
}

func TestValidatePlanRewritesUnknownPose(t *testing.T) {
	raw := []byte(`{
		"duration": 4,
		"keyframes": [
			{"time": 0, "pose": "BOW"},
			{"time": 1, "pose": "BADPOSE"},
			{"time": 2, "pose": "MOONWALK"}
		]
	}`)

	plan, err := ValidatePlan(raw)
	if err != nil {
		t.Fatalf("Unknown poses must not fail the plan: %v", err)
	}
	if plan.Keyframes[0].Pose != entities.PoseBow {
		t.Errorf("Valid pose should survive, got %s", plan.Keyframes[0].Pose)
	}
	if plan.Keyframes[1].Pose != entities.PoseNeutral {
		t.Errorf("Unknown pose should become neutral, got %s", plan.Keyframes[1].Pose)
	}
	if plan.Keyframes[2].Pose != entities.PoseNeutral {
		t.Errorf("Unknown pose should become neutral, got %s", plan.Keyframes[2].Pose)
	}
}

func TestValidatePlanTruncatesKeyframes(t *testing.T) {
	frames := "["
	for i := 0; i < 25; i++ {
		if i > 0 {
			frames += ","
		}
		frames += fmt.Sprintf(`{"time": %d, "pose": "JUMP"}`, i)
	}
	frames += "]"
	raw := []byte(`{"duration": 30, "keyframes": ` + frames + `}`)

	plan, err := ValidatePlan(raw)
	if err != nil {
		t.Fatalf("ValidatePlan failed: %v", err)
	}
	if len(plan.Keyframes) != 20 {
		t.Errorf("Expected truncation to 20 keyframes, got %d", len(plan.Keyframes))
	}
	if plan.Duration != 20.0 {
		t.Errorf("Duration should follow the truncated last keyframe (19+1), got %f", plan.Duration)
	}
}

func TestValidatePlanStructuralFailures(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"missing duration", `{"keyframes": [{"time":0,"pose":"IDLE"},{"time":1,"pose":"IDLE"},{"time":2,"pose":"IDLE"}]}`},
		{"missing keyframes", `{"duration": 10}`},
		{"keyframes not a list", `{"duration": 10, "keyframes": "IDLE"}`},
		{"too few keyframes", `{"duration": 10, "keyframes": [{"time":0,"pose":"IDLE"},{"time":1,"pose":"IDLE"}]}`},
		{"keyframe missing pose", `{"duration": 10, "keyframes": [{"time":0,"pose":"IDLE"},{"time":1},{"time":2,"pose":"IDLE"}]}`},
		{"keyframe missing time", `{"duration": 10, "keyframes": [{"time":0,"pose":"IDLE"},{"pose":"IDLE"},{"time":2,"pose":"IDLE"}]}`},
	}
	for _, c := range cases {
		if _, err := ValidatePlan([]byte(c.raw)); err == nil {
			t.Errorf("%s: expected a validation error", c.name)
		}
	}
}

func TestValidatePlanRepairsMalformedJSON(t *testing.T) {
	// Trailing comma plus unquoted keys, the kind of JSON models emit.
	raw := []byte(`{duration: 6, keyframes: [
		{time: 0, pose: "IDLE"},
		{time: 2, pose: "ARMS_UP"},
		{time: 4, pose: "BOW"},
	]}`)

	plan, err := ValidatePlan(raw)
	if err != nil {
		t.Fatalf("jsonrepair should rescue this input: %v", err)
	}
	if len(plan.Keyframes) != 3 {
		t.Errorf("Expected 3 keyframes after repair, got %d", len(plan.Keyframes))
	}
}

func TestFallbackPlanShape(t *testing.T) {
	plan := entities.FallbackPlan()

	if len(plan.Keyframes) != 7 {
		t.Errorf("Fallback should have 7 keyframes, got %d", len(plan.Keyframes))
	}
	if plan.Duration != 12.0 {
		t.Errorf("Fallback duration should be 12s, got %f", plan.Duration)
	}
	for _, kf := range plan.Keyframes {
		if !kf.Pose.IsValid() {
			t.Errorf("Fallback contains invalid pose %s", kf.Pose)
		}
	}
	// The fallback must round-trip as JSON for the wire.
	if _, err := json.Marshal(plan); err != nil {
		t.Errorf("Fallback plan should marshal: %v", err)
	}
}
