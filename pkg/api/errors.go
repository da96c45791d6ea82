package api

import (
	"encoding/json"
	"net/http"
)

// Stable error codes surfaced in the response envelope
const (
	CodeMissingStoreName       = "MISSING_STORE_NAME"
	CodeInvalidStoreName       = "INVALID_STORE_NAME"
	CodeInvalidEngine          = "INVALID_ENGINE"
	CodeEngineUnavailable      = "ENGINE_UNAVAILABLE"
	CodeQuotaExceeded          = "QUOTA_EXCEEDED"
	CodeRateLimitExceeded      = "RATE_LIMIT_EXCEEDED"
	CodeNotFound               = "NOT_FOUND"
	CodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	CodeOperationInProgress    = "OPERATION_IN_PROGRESS"
	CodeInvalidJSON            = "INVALID_JSON"
	CodeInternalServerError    = "INTERNAL_SERVER_ERROR"
)

// Error is an operational API error: expected, carrying a stable code and
// an HTTP status. Anything else that escapes a handler is a programmer
// error and maps to INTERNAL_SERVER_ERROR via the recovery middleware.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// NewError creates an operational error
func NewError(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

type errorEnvelope struct {
	Error *Error `json:"error"`
}

func writeError(w http.ResponseWriter, err *Error) {
	writeJSON(w, err.Status, errorEnvelope{Error: err})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
