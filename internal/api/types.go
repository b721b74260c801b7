package api

import "time"

// TokenRequest represents the request payload for client authentication
type TokenRequest struct {
	ClientID string `json:"client_id" validate:"required"`
}

// TokenResponse represents the response payload for client authentication
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	ClientID  string    `json:"client_id"`
}

// SpeakersResponse lists enrolled speaker names
type SpeakersResponse struct {
	Speakers []string `json:"speakers"`
}

// RemovedResponse reports a speaker removal outcome
type RemovedResponse struct {
	Name    string `json:"name"`
	Removed bool   `json:"removed"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
