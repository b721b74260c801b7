package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/voicearena/server/domain/entities"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Client-to-server control message types
const (
	MessageTypeStartEnrollment    MessageType = "start_enrollment"
	MessageTypeCompleteEnrollment MessageType = "complete_enrollment"
	MessageTypeCancelEnrollment   MessageType = "cancel_enrollment"
	MessageTypeListSpeakers       MessageType = "list_speakers"
	MessageTypeRemoveSpeaker      MessageType = "remove_speaker"
	MessageTypeStartListening     MessageType = "start_listening"
	MessageTypeStopListening      MessageType = "stop_listening"
	MessageTypeStartDance         MessageType = "start_dance"
	MessageTypeCancelDance        MessageType = "cancel_dance"
	MessageTypeFinishDance        MessageType = "finish_dance"
	MessageTypePing               MessageType = "ping"
)

// Server-to-client event types
const (
	MessageTypeEnrollmentStarted   MessageType = "enrollment_started"
	MessageTypeEnrollmentComplete  MessageType = "enrollment_complete"
	MessageTypeEnrollmentCancelled MessageType = "enrollment_cancelled"
	MessageTypeSpeakersList        MessageType = "speakers_list"
	MessageTypeSpeakerRemoved      MessageType = "speaker_removed"
	MessageTypeListeningStarted    MessageType = "listening_started"
	MessageTypeListeningStopped    MessageType = "listening_stopped"
	MessageTypeDanceStarted        MessageType = "dance_recording_started"
	MessageTypeDanceProgress       MessageType = "dance_recording_progress"
	MessageTypeDanceStatus         MessageType = "dance_status"
	MessageTypeDancePlan           MessageType = "dance_plan"
	MessageTypeDanceCancelled      MessageType = "dance_cancelled"
	MessageTypeDanceError          MessageType = "dance_error"
	MessageTypeCommand             MessageType = "command"
	MessageTypeNarration           MessageType = "narration"
	MessageTypePong                MessageType = "pong"
	MessageTypeError               MessageType = "error"
)

// ControlMessage is the union of all client-to-server control messages.
// Only the type discriminator is mandatory; name is required by the
// enrollment and speaker-removal messages.
type ControlMessage struct {
	Type MessageType `json:"type"`
	Name string      `json:"name,omitempty"`
}

// ParseControl decodes a control message and enforces per-type required
// fields.
func ParseControl(payload []byte) (*ControlMessage, error) {
	var msg ControlMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("message missing type field")
	}

	switch msg.Type {
	case MessageTypeStartEnrollment, MessageTypeRemoveSpeaker:
		if msg.Name == "" {
			return nil, fmt.Errorf("%s requires a name", msg.Type)
		}
	}
	return &msg, nil
}

// EnrollmentStartedEvent acknowledges that enrollment capture began.
type EnrollmentStartedEvent struct {
	Type MessageType `json:"type"`
	Name string      `json:"name"`
}

// EnrollmentCompleteEvent reports the outcome of a completed enrollment.
type EnrollmentCompleteEvent struct {
	Type    MessageType `json:"type"`
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Name    string      `json:"name"`
}

// SpeakersListEvent carries the names of all enrolled speakers.
type SpeakersListEvent struct {
	Type     MessageType `json:"type"`
	Speakers []string    `json:"speakers"`
}

// SpeakerRemovedEvent reports the outcome of a speaker removal.
type SpeakerRemovedEvent struct {
	Type    MessageType `json:"type"`
	Name    string      `json:"name"`
	Success bool        `json:"success"`
}

// DanceStartedEvent announces the capture window that just opened.
type DanceStartedEvent struct {
	Type     MessageType `json:"type"`
	Duration float64     `json:"duration"`
}

// DanceProgressEvent is emitted periodically while a capture runs.
type DanceProgressEvent struct {
	Type      MessageType `json:"type"`
	Elapsed   float64     `json:"elapsed"`
	Remaining float64     `json:"remaining"`
}

// DanceStatusEvent carries a human-readable processing status line.
type DanceStatusEvent struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

// DancePlanEvent delivers the validated choreography plan.
type DancePlanEvent struct {
	Type       MessageType               `json:"type"`
	Plan       entities.ChoreographyPlan `json:"plan"`
	Transcript string                    `json:"transcript"`
}

// CommandEvent is the per-window recognition result, annotated with the
// player the matched speaker maps to.
type CommandEvent struct {
	Type   MessageType `json:"type"`
	Player string      `json:"player"`
	entities.RecognitionResult
}

// NarrationEvent carries base64-encoded synthesized commentary audio.
type NarrationEvent struct {
	Type  MessageType `json:"type"`
	Text  string      `json:"text"`
	Audio string      `json:"audio"`
}

// SimpleEvent is an event that carries nothing beyond its type.
type SimpleEvent struct {
	Type MessageType `json:"type"`
}

// ErrorEvent reports a protocol-level problem without closing the
// connection.
type ErrorEvent struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

// CreateErrorEvent creates a generic error event.
func CreateErrorEvent(message string) *ErrorEvent {
	return &ErrorEvent{Type: MessageTypeError, Message: message}
}

// CreateDanceErrorEvent creates a choreography-specific error event.
func CreateDanceErrorEvent(message string) *ErrorEvent {
	return &ErrorEvent{Type: MessageTypeDanceError, Message: message}
}

// CreateSimpleEvent creates an event with only a type discriminator.
func CreateSimpleEvent(t MessageType) *SimpleEvent {
	return &SimpleEvent{Type: t}
}
