package entities

// Pose is one of the fixed stick-figure poses the renderer understands.
type Pose string

const (
	PoseIdle          Pose = "IDLE"
	PoseArmsUp        Pose = "ARMS_UP"
	PoseArmsWaveLeft  Pose = "ARMS_WAVE_LEFT"
	PoseArmsWaveRight Pose = "ARMS_WAVE_RIGHT"
	PoseSpinLeft      Pose = "SPIN_LEFT"
	PoseSpinRight     Pose = "SPIN_RIGHT"
	PoseKickLeft      Pose = "KICK_LEFT"
	PoseKickRight     Pose = "KICK_RIGHT"
	PoseJump          Pose = "JUMP"
	PoseBow           Pose = "BOW"
)

// PoseNeutral is substituted for any pose the generator invents.
const PoseNeutral = PoseIdle

var validPoses = map[Pose]bool{
	PoseIdle: true, PoseArmsUp: true,
	PoseArmsWaveLeft: true, PoseArmsWaveRight: true,
	PoseSpinLeft: true, PoseSpinRight: true,
	PoseKickLeft: true, PoseKickRight: true,
	PoseJump: true, PoseBow: true,
}

// IsValid reports whether the pose belongs to the fixed vocabulary.
func (p Pose) IsValid() bool {
	return validPoses[p]
}

// Keyframe is one timed pose in a choreography plan.
type Keyframe struct {
	Time float64 `json:"time"`
	Pose Pose    `json:"pose"`
}

// ChoreographyPlan is a validated dance sequence. After validation the
// keyframes are sorted ascending by time, every pose is from the fixed
// vocabulary, and Duration equals the last keyframe time plus one second.
type ChoreographyPlan struct {
	Duration  float64    `json:"duration"`
	Keyframes []Keyframe `json:"keyframes"`
}

// FallbackPlan is the hard-coded dance used when generation or validation
// fails. The sub-protocol never surfaces an error once a transcript exists.
func FallbackPlan() ChoreographyPlan {
	return ChoreographyPlan{
		Duration: 12.0,
		Keyframes: []Keyframe{
			{Time: 0.0, Pose: PoseIdle},
			{Time: 2.0, Pose: PoseArmsUp},
			{Time: 4.0, Pose: PoseArmsWaveLeft},
			{Time: 6.0, Pose: PoseArmsWaveRight},
			{Time: 8.0, Pose: PoseSpinLeft},
			{Time: 10.0, Pose: PoseBow},
			{Time: 12.0, Pose: PoseIdle},
		},
	}
}
