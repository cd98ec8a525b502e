package relay

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"relay-hq/gemini/pkg/config"
	"relay-hq/gemini/pkg/relay/types"
	"relay-hq/gemini/pkg/security/secrets"
	"relay-hq/gemini/pkg/telemetry/tracing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newGemini(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"pong"}]}}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	return rec
}

func TestNew_ServesPrompts(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "AIzaRelayTestKey")

	cfg := config.NewDefaultConfig()
	cfg.Upstream.BaseURL = newGemini(t).URL
	cfg.CORS.AllowedOrigin = "https://app.example.com"

	reg := prometheus.NewRegistry()
	r, err := New(cfg, Options{Registry: reg})
	require.NoError(t, err)
	defer r.Close()

	rec := post(r.Handler, `{"prompt":"ping"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var env types.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NotNil(t, env.Result)
	assert.Equal(t, "pong", *env.Result)

	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	count, err := testutil.GatherAndCount(reg, "gemini_relay_requests_total", "gemini_relay_upstream_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNew_MissingCredential(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	cfg := config.NewDefaultConfig()
	cfg.Upstream.BaseURL = newGemini(t).URL

	r, err := New(cfg, Options{Registry: prometheus.NewRegistry()})
	require.NoError(t, err)
	defer r.Close()

	rec := post(r.Handler, `{"prompt":"ping"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"ok":false,"error":"GEMINI_API_KEY not configured"}`, rec.Body.String())
}

func TestNew_SecretsDirectory(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "AIzaFromEnv")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, secrets.GeminiAPIKey), []byte("AIzaFromFile\n"), 0o600))

	cfg := config.NewDefaultConfig()
	cfg.Secrets.Dir = dir

	r, err := New(cfg, Options{Registry: prometheus.NewRegistry()})
	require.NoError(t, err)
	defer r.Close()

	key, err := r.Secrets.GetSecret(t.Context(), secrets.GeminiAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "AIzaFromFile", key)
}

func TestNew_MetricsDisabled(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Telemetry.Metrics.Enabled = false

	r, err := New(cfg, Options{Secrets: secrets.NewEnvProvider("")})
	require.NoError(t, err)
	defer r.Close()

	assert.Nil(t, r.Metrics)
}

func TestNew_InvalidBaseURL(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Upstream.BaseURL = "ftp://example.test"

	_, err := New(cfg, Options{Registry: prometheus.NewRegistry()})
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(config.LoggingConfig{Level: "info", Format: "json", RedactSecrets: true}, &buf)
	require.NoError(t, err)

	logger.Info("calling", "url", "https://x/?key=AIzaSecretValue123")
	assert.NotContains(t, buf.String(), "AIzaSecretValue123")

	_, err = NewLogger(config.LoggingConfig{Level: "loud"}, &buf)
	assert.Error(t, err)
}

func TestNew_Tracing(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "AIzaRelayTestKey")

	exporter := tracetest.NewInMemoryExporter()
	tracer, err := tracing.NewWithExporter(config.TracingConfig{
		Enabled:     true,
		ServiceName: "gemini-relay",
		Sampler:     tracing.SamplerAlways,
	}, "test", exporter)
	require.NoError(t, err)
	defer tracer.Close()

	cfg := config.NewDefaultConfig()
	cfg.Upstream.BaseURL = newGemini(t).URL

	r, err := New(cfg, Options{Registry: prometheus.NewRegistry(), Tracer: tracer})
	require.NoError(t, err)
	defer r.Close()

	rec := post(r.Handler, `{"prompt":"ping"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	client, server := spans[0], spans[1]
	assert.Equal(t, tracing.SpanGenerateContent, client.Name)
	assert.Equal(t, tracing.SpanRelay, server.Name)
	assert.Equal(t, server.SpanContext.SpanID(), client.Parent.SpanID())

	var outcome string
	for _, kv := range server.Attributes {
		if string(kv.Key) == tracing.AttrOutcome {
			outcome = kv.Value.AsString()
		}
	}
	assert.Equal(t, "success", outcome)

	for _, s := range spans {
		for _, kv := range s.Attributes {
			assert.NotContains(t, kv.Value.Emit(), "AIzaRelayTestKey")
		}
	}
}

func TestNew_TracingDisabledByDefault(t *testing.T) {
	cfg := config.NewDefaultConfig()

	r, err := New(cfg, Options{Registry: prometheus.NewRegistry()})
	require.NoError(t, err)
	defer r.Close()

	assert.False(t, r.Tracer.Enabled())
}
