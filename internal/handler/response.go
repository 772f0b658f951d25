package handler

// RESPONSE HELPERS:
// Every error response from the API has the same shape:
//
//	{"error": "not_found", "message": "report not found with id abc123"}
//
// plus "field" for validation errors and "details" for unexpected errors
// when the server runs outside production.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/report-portal/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`             // machine-readable code, e.g. "not_found"
	Message string `json:"message"`           // human-readable description
	Field   string `json:"field,omitempty"`   // offending input field, if any
	Details string `json:"details,omitempty"` // underlying error, non-production only
}

// MessageResponse is used for operations with nothing else to return.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must be set before the body is written.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// errorStatus maps a sentinel from apperror to a status and an error code.
var errorStatus = []struct {
	target error
	status int
	code   string
}{
	{apperror.ErrValidation, http.StatusBadRequest, "validation_error"},
	{apperror.ErrDuplicateEmail, http.StatusBadRequest, "duplicate_email"},
	{apperror.ErrInvalidCredentials, http.StatusBadRequest, "invalid_credentials"},
	{apperror.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{apperror.ErrNotFound, http.StatusNotFound, "not_found"},
	{apperror.ErrPayloadTooLarge, http.StatusRequestEntityTooLarge, "payload_too_large"},
}

// writeError translates a domain error into an HTTP response.
//
// Services return apperror values wrapped with context; errors.As digs out
// the *AppError for its message, errors.Is picks the status. Anything
// unrecognised becomes a 500 whose text is only exposed when expose is true.
func writeError(w http.ResponseWriter, err error, expose bool) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		for _, m := range errorStatus {
			if errors.Is(err, m.target) {
				writeJSON(w, m.status, ErrorResponse{
					Error:   m.code,
					Message: appErr.Message,
					Field:   appErr.Field,
				})
				return
			}
		}
	}

	resp := ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	}
	if expose {
		resp.Details = err.Error()
	}
	writeJSON(w, http.StatusInternalServerError, resp)
}

// decodeError converts a JSON body decoding failure into a domain error.
func decodeError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperror.PayloadTooLarge(tooLarge.Limit)
	}
	return apperror.ValidationFailed("body", "Invalid JSON body")
}

// NotFound answers requests no route matched.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{
		Error:   "not_found",
		Message: "Route not found",
	})
}

// MethodNotAllowed answers requests whose path matched but method did not.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{
		Error:   "method_not_allowed",
		Message: "Method not allowed",
	})
}

// isClientError reports whether err maps to a 4xx response.
func isClientError(err error) bool {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		return false
	}
	for _, m := range errorStatus {
		if errors.Is(err, m.target) {
			return true
		}
	}
	return false
}
