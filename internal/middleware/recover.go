package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// panicResponse has the same shape as the API's error body.
type panicResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Recover turns a panic in a handler into a JSON 500 in the API's error
// format. With expose set, the panic value is returned in "details", like
// any other unexpected error outside production. http.ErrAbortHandler is
// re-raised so net/http can abort the connection as intended.
func Recover(logger *slog.Logger, expose bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error("panic recovered",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("panic", fmt.Sprint(rec)),
					slog.String("stack", string(debug.Stack())),
				)

				resp := panicResponse{
					Error:   "internal_error",
					Message: "An internal error occurred",
				}
				if expose {
					resp.Details = fmt.Sprintf("panic: %v", rec)
				}

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(resp)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
