package relay

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"relay-hq/gemini/pkg/config"
	"relay-hq/gemini/pkg/evidence"
	"relay-hq/gemini/pkg/evidence/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_EvidenceDisabledByDefault(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "AIzaRelayTestKey")

	cfg := config.NewDefaultConfig()
	cfg.Upstream.BaseURL = newGemini(t).URL

	r, err := New(cfg, Options{})
	require.NoError(t, err)
	defer r.Close()

	assert.Nil(t, r.Evidence)
	assert.Nil(t, r.Recorder)
	assert.Nil(t, r.Pruner)
}

func TestNew_EvidenceRecordsRequests(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "AIzaRelayTestKey")

	cfg := config.NewDefaultConfig()
	cfg.Upstream.BaseURL = newGemini(t).URL
	cfg.Evidence.Enabled = true
	cfg.Evidence.Backend = "memory"

	store := storage.NewMemoryStorage()
	r, err := New(cfg, Options{Evidence: store})
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, post(r.Handler, `{"prompt":"ping"}`).Code)
	require.Equal(t, http.StatusBadRequest, post(r.Handler, `{}`).Code)

	// Close drains the recorder into the store.
	require.NoError(t, r.Close())

	records, err := store.Query(context.Background(), &evidence.Query{SortBy: "request_time", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "success", records[0].Outcome)
	assert.NotEmpty(t, records[0].RequestID)
	assert.NotEmpty(t, records[0].PromptHash)
	assert.NotEmpty(t, records[0].ResponseHash)
	assert.Equal(t, "bad_request", records[1].Outcome)
}

func TestNew_EvidenceSQLite(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "AIzaRelayTestKey")

	path := filepath.Join(t.TempDir(), "evidence.db")
	cfg := config.NewDefaultConfig()
	cfg.Upstream.BaseURL = newGemini(t).URL
	cfg.Evidence.Enabled = true
	cfg.Evidence.SQLite.Path = path
	cfg.Evidence.Retention.PruneSchedule = "@daily"

	r, err := New(cfg, Options{})
	require.NoError(t, err)
	require.NotNil(t, r.Pruner.NextPruning())

	require.Equal(t, http.StatusOK, post(r.Handler, `{"prompt":"ping"}`).Code)
	require.NoError(t, r.Close())

	store, err := storage.NewSQLiteStorage(storage.SQLiteConfig{Path: path}, nil)
	require.NoError(t, err)
	defer store.Close()

	since := time.Now().Add(-time.Hour)
	count, err := store.Count(context.Background(), &evidence.Query{StartTime: &since})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestNew_EvidenceInvalidBackend(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Evidence.Enabled = true
	cfg.Evidence.Backend = "postgres"

	_, err := New(cfg, Options{})
	assert.Error(t, err)
}
