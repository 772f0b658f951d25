package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/report-portal/internal/auth"
	"github.com/sakif/report-portal/internal/config"
	"github.com/sakif/report-portal/internal/upload"
)

type fakeUploader struct{ err error }

func (f fakeUploader) Upload(_ context.Context, img upload.Image) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.example.com/x." + img.Extension(), nil
}

func testConfig() config.Config {
	return config.Config{
		Port:               8000,
		Env:                config.EnvDevelopment,
		DatabaseURL:        ":memory:",
		DatabaseName:       "report_portal",
		JWTSecret:          "server-test-secret-0123456789",
		TokenTTL:           time.Hour,
		MaxReportBytes:     1 << 20,
		MaxUploadBytes:     1 << 20,
		CORSAllowedOrigins: []string{"*"},
	}
}

func newTestServer(t *testing.T, cfg config.Config, up upload.Uploader) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv, err := New(context.Background(), cfg, logger, up,
		WithPasswordService(auth.NewPasswordServiceWithCost(4)))
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Close(context.Background())
	})
	return ts
}

func call(t *testing.T, method, url, token, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

// =========================================================================
// END-TO-END
// =========================================================================

func TestServer_ReportLifecycle(t *testing.T) {
	ts := newTestServer(t, testConfig(), fakeUploader{})

	resp, body := call(t, http.MethodPost, ts.URL+"/api/register", "", `{"email":"e2e@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = call(t, http.MethodPost, ts.URL+"/api/login", "", `{"email":"E2E@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &login))

	resp, body = call(t, http.MethodPost, ts.URL+"/api/reports", login.Token, `{"title":"Orientation","attendance":120}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created map[string]any
	require.NoError(t, json.Unmarshal(body, &created))
	id := created["id"].(string)
	assert.Equal(t, float64(120), created["attendance"])

	resp, body = call(t, http.MethodGet, ts.URL+"/api/reports", login.Token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)

	resp, _ = call(t, http.MethodGet, ts.URL+"/api/reports/"+id, login.Token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = call(t, http.MethodDelete, ts.URL+"/api/reports/"+id, login.Token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = call(t, http.MethodGet, ts.URL+"/api/reports/"+id, login.Token, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_ReportsRequireToken(t *testing.T) {
	ts := newTestServer(t, testConfig(), fakeUploader{})

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/reports"},
		{http.MethodGet, "/api/reports"},
		{http.MethodGet, "/api/reports/abc"},
		{http.MethodDelete, "/api/reports/abc"},
	} {
		resp, _ := call(t, tc.method, ts.URL+tc.path, "", "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, tc.method+" "+tc.path)
	}
}

func TestServer_OperationalRoutes(t *testing.T) {
	ts := newTestServer(t, testConfig(), fakeUploader{})

	resp, body := call(t, http.MethodGet, ts.URL+"/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	resp, body = call(t, http.MethodGet, ts.URL+"/metrics", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "report_portal_http_requests_total")

	resp, body = call(t, http.MethodGet, ts.URL+"/api/unknown", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"not_found","message":"Route not found"}`, string(body))

	resp, _ = call(t, http.MethodPatch, ts.URL+"/api/register", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServer_CORSPreflight(t *testing.T) {
	ts := newTestServer(t, testConfig(), fakeUploader{})

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/reports", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://frontend.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_ProductionHidesErrorDetails(t *testing.T) {
	cfg := testConfig()
	cfg.Env = config.EnvProduction
	ts := newTestServer(t, cfg, fakeUploader{err: errors.New("secret bucket name")})

	// Anonymous upload reaching a failing provider.
	form := "--b\r\nContent-Disposition: form-data; name=\"image\"; filename=\"a.png\"\r\n" +
		"Content-Type: image/png\r\n\r\n\x89PNG\r\n\x1a\n0000\r\n--b--\r\n"
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/upload", strings.NewReader(form))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=b")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotContains(t, string(body), "secret bucket name")
}

func TestNew_RejectsShortJWTSecret(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = "short"

	_, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), fakeUploader{})
	assert.Error(t, err)
}

// =========================================================================
// STORE SELECTION
// =========================================================================

func TestIsMongoURL(t *testing.T) {
	assert.True(t, isMongoURL("mongodb://localhost:27017"))
	assert.True(t, isMongoURL("mongodb+srv://cluster0.example.net/reports"))
	assert.False(t, isMongoURL("sqlite://data/app.db"))
	assert.False(t, isMongoURL(":memory:"))
	assert.False(t, isMongoURL("data/app.db"))
}

func TestMongoDatabaseName(t *testing.T) {
	tests := []struct {
		uri, want string
	}{
		{"mongodb://localhost:27017", "fallback"},
		{"mongodb://localhost:27017/", "fallback"},
		{"mongodb://localhost:27017/reports", "reports"},
		{"mongodb://h1:27017,h2:27017/reports?replicaSet=rs0", "reports"},
		{"mongodb+srv://user:pw@cluster0.example.net/?retryWrites=true", "fallback"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mongoDatabaseName(tt.uri, "fallback"), tt.uri)
	}
}

func TestOpenStore_SQLiteFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "app.db")

	st, err := openStore(context.Background(), "sqlite://"+path, "")
	require.NoError(t, err)
	defer st.close(context.Background())

	assert.Equal(t, "sqlite", st.kind)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}
