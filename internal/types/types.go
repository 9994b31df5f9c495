package types

import (
	"travel-assistant/internal/store"
)

type ChatRequest struct {
	Message  string `json:"message"`
	Language string `json:"language,omitempty"`
}

type LocationRequest struct {
	Location string `json:"location"`
}

type DestinationRequest struct {
	Message string `json:"message"`
}

// DestinationResponse is {} when no destination was detected.
type DestinationResponse struct {
	Region string `json:"region,omitempty"`
}

type SessionResponse struct {
	SessionID   string          `json:"sessionId"`
	Destination string          `json:"destination,omitempty"`
	Messages    []store.Message `json:"messages"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AdminLoginResponse carries the bearer token for the upload and rebuild
// routes. ExpiresIn is in seconds.
type AdminLoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"`
	Message   string `json:"message,omitempty"`
}

type AdminResponse struct {
	Message string `json:"message"`
	Output  string `json:"output,omitempty"`
}
