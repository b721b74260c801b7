package entities

// RecognitionResult is the merged outcome of one 1.5 s audio window:
// who spoke, what they said, and how loudly / for how long.
// Produced per window, serialized to the client, and discarded.
type RecognitionResult struct {
	Timestamp         string  `json:"timestamp"`
	Speaker           string  `json:"speaker"`
	SpeakerConfidence float64 `json:"speaker_confidence"`
	Command           *string `json:"command"`
	RawText           *string `json:"raw_text"`
	CommandConfidence float64 `json:"command_confidence"`
	Volume            float64 `json:"volume"`
	SpeechDuration    float64 `json:"speech_duration"`
}
