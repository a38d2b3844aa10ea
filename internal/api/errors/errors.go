// Package errors writes API error responses in a single JSON envelope:
//
//	{"error": {"code": "...", "message": "..."}}
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"arc-go/internal/arc"
)

// Machine-readable error codes.
const (
	CodeValidationError   = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodePayloadTooLarge   = "PAYLOAD_TOO_LARGE"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeInternalError     = "INTERNAL_ERROR"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError writes an error response with the given status, code and message.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// ValidationError writes a 400.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, message)
}

// NotFound writes a 404.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// PayloadTooLarge writes a 413.
func PayloadTooLarge(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, message)
}

// Conflict writes a 409 for lifecycle violations.
func Conflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, CodeInvalidTransition, message)
}

// InternalError writes a 500. The message should not leak internals.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, message)
}

// StatusFor maps an archive error to its HTTP status.
func StatusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case stderrors.Is(err, arc.ErrNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, arc.ErrBadInput):
		return http.StatusBadRequest
	case stderrors.Is(err, arc.ErrSizeExceeded), stderrors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case stderrors.Is(err, arc.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// FromError writes the response matching an archive error.
// Returns the status written so callers can decide whether to log.
func FromError(w http.ResponseWriter, err error) int {
	status := StatusFor(err)
	switch status {
	case http.StatusNotFound:
		NotFound(w, err.Error())
	case http.StatusBadRequest:
		ValidationError(w, err.Error())
	case http.StatusRequestEntityTooLarge:
		PayloadTooLarge(w, err.Error())
	case http.StatusConflict:
		Conflict(w, err.Error())
	default:
		InternalError(w, "internal error")
	}
	return status
}
