// Package handler is the HTTP layer: it decodes requests, calls a service and
// encodes the result. No business rule lives here.
package handler

import (
	"net/http"

	"github.com/sakif/report-portal/internal/apperror"
	"github.com/sakif/report-portal/internal/auth"
)

// Options are the HTTP-level limits and switches shared by all handlers.
type Options struct {
	// MaxReportBytes caps the JSON body of POST /reports.
	MaxReportBytes int64
	// MaxUploadBytes caps a single uploaded file.
	MaxUploadBytes int64
	// ExposeErrors adds the underlying error text to 500 responses.
	ExposeErrors bool
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		MaxReportBytes: 10 << 20,
		MaxUploadBytes: 10 << 20,
	}
}

// requireUser returns the caller id set by auth.RequireAuth, or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request, opts Options) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.MissingAuth(), opts.ExposeErrors)
		return "", false
	}
	return userID, true
}

// Health is the liveness probe.
//
// HTTP: GET /health → 200 {"status":"ok"}
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
