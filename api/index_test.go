package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relay-hq/gemini/pkg/relay/types"
)

func upstreamStub(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Hi there"}]}}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) types.Envelope {
	t.Helper()
	var env types.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestNewHandler_RelaysPrompt(t *testing.T) {
	upstream := upstreamStub(t)
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("GEMINI_RELAY_UPSTREAM_BASE_URL", upstream.URL)
	t.Setenv("ALLOWED_ORIGIN", "https://app.example.com")
	t.Setenv("GEMINI_RELAY_ALLOWED_ORIGIN", "")

	h, err := newHandler()
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api", strings.NewReader(`{"prompt":"Say hi"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	env := decode(t, rec)
	assert.True(t, env.OK)
	require.NotNil(t, env.Result)
	assert.Equal(t, "Hi there", *env.Result)
}

func TestNewHandler_MissingKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	h, err := newHandler()
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"prompt":"Say hi"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, types.MsgKeyNotConfigured, decode(t, rec).Error)
}

func TestNewHandler_InvalidEnvironment(t *testing.T) {
	t.Setenv("GEMINI_RELAY_UPSTREAM_TIMEOUT", "soon")

	_, err := newHandler()
	assert.Error(t, err)
}

func TestInitFailure(t *testing.T) {
	t.Setenv("ALLOWED_ORIGIN", "")
	t.Setenv("GEMINI_RELAY_ALLOWED_ORIGIN", "")
	h := initFailure(errors.New("failed to load config"))

	t.Run("preflight", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, rec.Body.String())
	})

	t.Run("post", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"prompt":"x"}`)))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		env := decode(t, rec)
		assert.False(t, env.OK)
		assert.Equal(t, types.MsgInternalError, env.Error)
		assert.Equal(t, "failed to load config", env.Details)
	})
}
