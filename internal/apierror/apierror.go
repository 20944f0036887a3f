// Package apierror defines the stable error kinds surfaced by the HTTP API.
package apierror

import (
	"encoding/json"
	"net/http"
)

// Error is a typed API error carrying an HTTP status and a stable code
// string. It implements the standard error interface.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

// Body is the wire shape of an error response.
type Body struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

func InvalidContract(message string) *Error {
	return New(http.StatusBadRequest, "client_invalid_contract", message)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, "unauthorized", message)
}

func UnknownProvider(message string) *Error {
	return New(http.StatusNotFound, "unknown_provider", message)
}

func PayloadTooLarge(message string) *Error {
	return New(http.StatusRequestEntityTooLarge, "payload_too_large", message)
}

func UnsupportedMediaType(message string) *Error {
	return New(http.StatusUnsupportedMediaType, "unsupported_media_type", message)
}

func Throttled(message string) *Error {
	return New(http.StatusTooManyRequests, "provider_throttled", message)
}

func Internal(message string) *Error {
	return New(http.StatusInternalServerError, "internal_error", message)
}

// Write renders err as the standard JSON error body onto w, carrying the
// given trace id in its trace_id field (omitted when empty).
func Write(w http.ResponseWriter, err *Error, traceID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Status)
	_ = json.NewEncoder(w).Encode(Body{
		Code:    err.Code,
		Message: err.Message,
		TraceID: traceID,
	})
}
