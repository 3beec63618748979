package app

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solarcli/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Server: config.ServerConfig{
			Port:            0,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			IdleTimeout:     5 * time.Second,
			ShutdownTimeout: time.Second,
			MaxUploadBytes:  1 << 20,
		},
		Security: config.SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit:      config.RateLimitConfig{Enabled: false},
		},
		Logging: config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
		Paths: config.PathsConfig{
			DataDir:   filepath.Join(dir, "data"),
			OutputDir: filepath.Join(dir, "output"),
			WebDir:    filepath.Join(dir, "web"),
			LogsDir:   filepath.Join(dir, "logs"),
		},
		Cleaning: config.CleaningConfig{ZScoreThreshold: 3},
	}
}

func TestNewApplication(t *testing.T) {
	a, err := New(testConfig(t), slog.Default())
	require.NoError(t, err)
	require.NotNil(t, a.Router())
}

func TestNewApplicationRequiresConfig(t *testing.T) {
	_, err := New(nil, slog.Default())
	assert.Error(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	a, err := New(testConfig(t), slog.Default())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestMetricsEndpoint(t *testing.T) {
	a, err := New(testConfig(t), slog.Default())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestSecurityHeadersApplied(t *testing.T) {
	a, err := New(testConfig(t), slog.Default())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRunStopsOnContextCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Port = 0

	a, err := New(cfg, slog.Default())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
