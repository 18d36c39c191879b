package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torstats/torstats/pkg/types"
	"github.com/torstats/torstats/server/internal/alerts"
	"github.com/torstats/torstats/server/internal/config"
	"github.com/torstats/torstats/server/internal/store"
	"github.com/torstats/torstats/server/internal/ws"
)

func testHandler(t *testing.T, auth config.AuthConfig, uiDir string) http.Handler {
	t.Helper()
	st := store.New(t.TempDir())
	st.Put(&types.Summary{GeneratedAt: time.Now(), Churn: types.ChurnSummary{Snapshots: 2}})
	cfg := config.ServerConfig{Auth: auth}
	return newHandler(cfg, st, alerts.New(config.AlertsConfig{}), ws.New(st, time.Hour), uiDir)
}

func status(t *testing.T, h http.Handler, path, key string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr.Code
}

func TestNewHandler_NoAuth(t *testing.T) {
	h := testHandler(t, config.AuthConfig{Mode: "none"}, "")
	assert.Equal(t, http.StatusOK, status(t, h, "/api/v1/health", ""))
	assert.Equal(t, http.StatusOK, status(t, h, "/api/v1/summary", ""))
	assert.Equal(t, http.StatusOK, status(t, h, "/metrics", ""))
	assert.Equal(t, http.StatusNotFound, status(t, h, "/", ""))
}

func TestNewHandler_APIKey(t *testing.T) {
	t.Setenv("TORSTATS_TEST_KEY", "secret")
	h := testHandler(t, config.AuthConfig{Mode: "apikey", KeyEnv: "TORSTATS_TEST_KEY"}, "")

	assert.Equal(t, http.StatusOK, status(t, h, "/api/v1/health", ""), "health stays open")
	for _, p := range []string{"/api/v1/summary", "/api/v1/series", "/api/v1/alerts", "/metrics", "/stats/churn-rate.png", "/ws"} {
		assert.Equal(t, http.StatusUnauthorized, status(t, h, p, ""), p)
	}
	assert.Equal(t, http.StatusOK, status(t, h, "/api/v1/summary", "secret"))
	assert.Equal(t, http.StatusOK, status(t, h, "/metrics", "secret"))
}

func TestNewHandler_UIDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>torstats</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))
	h := testHandler(t, config.AuthConfig{}, dir)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/charts/churn", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "torstats")

	assert.Equal(t, http.StatusOK, status(t, h, "/app.js", ""))
}
