package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoUser writes the authenticated user id, or "anonymous".
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	id, ok := UserIDFromContext(r.Context())
	if !ok {
		id = "anonymous"
	}
	_, _ = w.Write([]byte(id))
})

func doRequest(h http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	ts := newTestTokenService(t)
	valid, err := ts.Generate("user-42")
	require.NoError(t, err)
	expired, err := ts.GenerateWithDuration("user-42", -time.Minute)
	require.NoError(t, err)

	h := RequireAuth(ts)(echoUser)

	tests := []struct {
		name        string
		header      string
		wantStatus  int
		wantCode    string
		wantMessage string
		wantBody    string
	}{
		{"valid bearer", "Bearer " + valid, http.StatusOK, "", "", "user-42"},
		{"lowercase scheme", "bearer " + valid, http.StatusOK, "", "", "user-42"},
		{"no header", "", http.StatusUnauthorized, "missing_auth", "No token, authorization denied", ""},
		{"bearer without token", "Bearer ", http.StatusUnauthorized, "missing_auth", "No token, authorization denied", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, "missing_auth", "No token, authorization denied", ""},
		{"garbage token", "Bearer garbage", http.StatusUnauthorized, "unauthorized", "Token is not valid", ""},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized, "unauthorized", "Token is not valid", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(h, tt.header)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantBody, rec.Body.String())
				return
			}

			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			var body errorBody
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantCode, body.Error)
			assert.Equal(t, tt.wantMessage, body.Message)
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	ts := newTestTokenService(t)
	valid, err := ts.Generate("user-7")
	require.NoError(t, err)

	h := OptionalAuth(ts)(echoUser)

	t.Run("valid token attaches user", func(t *testing.T) {
		rec := doRequest(h, "Bearer "+valid)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-7", rec.Body.String())
	})

	t.Run("no token passes through", func(t *testing.T) {
		rec := doRequest(h, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "anonymous", rec.Body.String())
	})

	t.Run("invalid token passes through anonymously", func(t *testing.T) {
		rec := doRequest(h, "Bearer nope")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "anonymous", rec.Body.String())
	})
}
