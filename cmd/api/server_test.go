package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/fi-statement-converter/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			Host:               "127.0.0.1",
			Port:               8080,
			RateLimitPerSecond: 100,
			RateLimitBurst:     2,
			MaxUploadBytes:     1 << 20,
			AllowedOrigins:     []string{"https://app.example.com"},
			ShutdownTimeout:    time.Second,
		},
		Storage: config.StorageConfig{
			BasePath:        t.TempDir(),
			Retention:       time.Hour,
			RetentionSpec:   "@every 1h",
			RetentionEnable: true,
		},
		Extraction: config.ExtractionConfig{Workers: 2, ConverterTimeout: 5 * time.Second},
		Observability: config.ObservabilityConfig{
			MetricsEnabled: true,
			LogLevel:       "info",
			LogFormat:      "json",
		},
	}
}

func TestNewRouter(t *testing.T) {
	deps, err := InitDependencies(testConfig(t), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer deps.Cleanup()
	router := NewRouter(deps)

	body, err := json.Marshal(map[string]string{"text": "Name: Jane Doe\nPAN: ABCDE1234F"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/convert/text", bytes.NewReader(body))
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Contains(t, rec.Body.String(), `"ABCDE1234F"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `statement_http_requests_total{code="200",method="POST",route="POST /api/v1/convert/text"} 1`)
	assert.Contains(t, rec.Body.String(), `statement_extractions_total{instrument="DEPOSIT",status="success"} 1`)
}

func TestNewRouter_RateLimited(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.RateLimitPerSecond = 1
	deps, err := InitDependencies(cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	router := NewRouter(deps)

	codes := make([]int, 0, 3)
	for range 3 {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestInitDependencies_MetricsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Observability.MetricsEnabled = false
	cfg.Storage.RetentionEnable = false

	deps, err := InitDependencies(cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.Nil(t, deps.Metrics)
	require.NoError(t, deps.Scheduler.Start())
	deps.Cleanup()

	rec := httptest.NewRecorder()
	NewRouter(deps).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(config.ObservabilityConfig{LogLevel: "warn", LogFormat: "text"}, &buf).Info("hidden")
	assert.Empty(t, buf.String())

	NewLogger(config.ObservabilityConfig{LogLevel: "debug", LogFormat: "json"}, &buf).Debug("shown")
	assert.True(t, strings.HasPrefix(buf.String(), "{"))

	buf.Reset()
	NewLogger(config.ObservabilityConfig{LogLevel: "nonsense", LogFormat: "text"}, &buf).Info("fallback")
	assert.Contains(t, buf.String(), "msg=fallback")
}
