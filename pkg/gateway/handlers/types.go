package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// SessionIDHeader carries the caller's session ID. Absent on first
// contact; the gateway mints a session and returns its ID in the same
// header.
const SessionIDHeader = "X-Session-ID"

// ChatRequest is the body of POST /v1/chat.
type ChatRequest struct {
	// Message is the user's message text. Required.
	Message string `json:"message"`

	// Model optionally overrides the configured default model.
	Model string `json:"model,omitempty"`

	// MaxTokens optionally caps the completion length.
	MaxTokens int `json:"max_tokens,omitempty"`
}

// ChatResponse is the body of a successful POST /v1/chat.
type ChatResponse struct {
	// Reply is the generated completion.
	Reply string `json:"reply"`

	// Model is the model that served the request.
	Model string `json:"model"`

	// SessionID echoes the session the request was billed to.
	SessionID string `json:"session_id"`

	// UnitsUsedThisCall is the consumption-unit cost of this call.
	UnitsUsedThisCall int64 `json:"units_used_this_call"`

	// UnitsRemainingToday is the unit budget left for the current UTC day.
	UnitsRemainingToday int64 `json:"units_remaining_today"`
}

// HistoryResponse is the body of GET /v1/history.
type HistoryResponse struct {
	SessionID string        `json:"session_id"`
	Messages  []historyItem `json:"messages"`
	Total     int           `json:"total"`
	Offset    int           `json:"offset"`
}

type historyItem struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// ErrorResponse is the envelope for all error bodies.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one error.
type ErrorDetail struct {
	// Type is a stable machine-readable error type.
	Type string `json:"type"`

	// Message is a human-readable description.
	Message string `json:"message"`

	// Reason names the exhausted budget on rate-limit denials.
	Reason string `json:"reason,omitempty"`

	// RetryAfterSeconds is set on rate-limit denials.
	RetryAfterSeconds int64 `json:"retry_after_seconds,omitempty"`
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a standard error envelope.
func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{
		Type:    errType,
		Message: message,
	}})
}
