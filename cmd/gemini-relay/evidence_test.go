package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relay-hq/gemini/pkg/cli"
	"relay-hq/gemini/pkg/evidence"
	"relay-hq/gemini/pkg/evidence/storage"
)

// seedEvidence writes records to a fresh database and points the
// configuration at it.
func seedEvidence(t *testing.T, records ...*evidence.Record) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "evidence.db")
	t.Setenv("GEMINI_RELAY_EVIDENCE_SQLITE_PATH", path)
	t.Setenv("GEMINI_RELAY_EVIDENCE_BACKEND", "sqlite")

	store, err := storage.NewSQLiteStorage(storage.SQLiteConfig{Path: path}, nil)
	require.NoError(t, err)
	defer store.Close()

	for _, r := range records {
		require.NoError(t, store.Store(context.Background(), r))
	}
	return path
}

func evidenceRecord(i int, age time.Duration, outcome string, status int) *evidence.Record {
	return &evidence.Record{
		ID:          fmt.Sprintf("rec-%02d", i),
		RequestID:   fmt.Sprintf("req-%02d", i),
		RequestTime: time.Now().Add(-age).UTC(),
		Method:      "POST",
		Path:        "/",
		Outcome:     outcome,
		Status:      status,
		Latency:     time.Duration(i+1) * 100 * time.Millisecond,
	}
}

func defaultEvidence(t *testing.T) string {
	return seedEvidence(t,
		evidenceRecord(0, time.Minute, "success", 200),
		evidenceRecord(1, time.Hour, "upstream_error", 502),
		evidenceRecord(2, 48*time.Hour, "success", 200),
	)
}

func TestEvidenceQuery_Text(t *testing.T) {
	defaultEvidence(t)

	out, err := executeCommand(t, "evidence", "query")
	require.NoError(t, err)

	assert.Contains(t, out, "Matching records: 3 (showing 3)")
	assert.Contains(t, out, "Record ID: rec-00")
	assert.Contains(t, out, "Outcome: upstream_error (502)")
}

func TestEvidenceQuery_Filters(t *testing.T) {
	defaultEvidence(t)

	out, err := executeCommand(t, "evidence", "query", "--since", "24h", "--outcome", "success")
	require.NoError(t, err)
	assert.Contains(t, out, "Matching records: 1 (showing 1)")
	assert.Contains(t, out, "rec-00")
	assert.NotContains(t, out, "rec-02")
}

func TestEvidenceQuery_Pagination(t *testing.T) {
	defaultEvidence(t)

	out, err := executeCommand(t, "evidence", "query", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Matching records: 3 (showing 1)")
	assert.Contains(t, out, "... and 2 more records")
}

func TestEvidenceQuery_JSON(t *testing.T) {
	defaultEvidence(t)

	out, err := executeCommand(t, "evidence", "query", "--format", "json", "--sort", "latency", "--order", "asc")
	require.NoError(t, err)

	var records []evidence.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records), out)
	require.Len(t, records, 3)
	assert.Equal(t, "rec-00", records[0].ID)
	assert.Equal(t, "rec-02", records[2].ID)
}

func TestEvidenceQuery_CSVFile(t *testing.T) {
	defaultEvidence(t)
	file := filepath.Join(t.TempDir(), "out.csv")

	_, err := executeCommand(t, "evidence", "query", "--format", "csv", "--output", file)
	require.NoError(t, err)

	f, err := os.Open(file)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 4, "header plus three records")
}

func TestEvidenceQuery_InvalidInput(t *testing.T) {
	defaultEvidence(t)

	tests := [][]string{
		{"--format", "xml"},
		{"--time-range", "yesterday"},
		{"--time-range", "2025-01-02T00:00:00Z/2025-01-01T00:00:00Z"},
		{"--since", "1h", "--time-range", "2025-01-01T00:00:00Z/2025-01-02T00:00:00Z"},
		{"--sort", "cost"},
		{"--outcome", "blocked"},
		{"--limit", "20000"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			_, err := executeCommand(t, append([]string{"evidence", "query"}, args...)...)
			assert.Error(t, err)
		})
	}
}

func TestEvidenceQuery_MemoryBackend(t *testing.T) {
	t.Setenv("GEMINI_RELAY_EVIDENCE_BACKEND", "memory")

	_, err := executeCommand(t, "evidence", "query")
	require.Error(t, err)
	assert.Equal(t, 2, cli.ExitCode(err))
}

func TestEvidenceReport(t *testing.T) {
	defaultEvidence(t)

	out, err := executeCommand(t, "evidence", "report")
	require.NoError(t, err)
	assert.Contains(t, out, "Total records: 3")
	assert.Contains(t, out, "upstream_error")
	assert.Contains(t, out, "max 300ms")

	out, err = executeCommand(t, "evidence", "report", "--format", "json", "--since", "24h")
	require.NoError(t, err)

	var report evidenceReport
	require.NoError(t, json.Unmarshal([]byte(out), &report), out)
	assert.Equal(t, int64(2), report.Total)
	assert.Equal(t, 1, report.ByOutcome["success"])
	assert.Equal(t, 1, report.ByStatus[502])
	assert.Equal(t, 200*time.Millisecond, report.MaxLatency)
}

func TestEvidenceReport_YAML(t *testing.T) {
	defaultEvidence(t)

	out, err := executeCommand(t, "evidence", "report", "--format", "yaml", "--since", "24h")
	require.NoError(t, err)
	assert.Contains(t, out, "total: 2")
	assert.Contains(t, out, "by_outcome:")
	assert.Contains(t, out, "max_latency: 200ms")
}

func TestEvidencePrune(t *testing.T) {
	path := defaultEvidence(t)

	out, err := executeCommand(t, "evidence", "prune", "--days", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Pruned 1 records (2 remaining)")

	out, err = executeCommand(t, "evidence", "prune", "--days", "0", "--max-records", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Pruned 1 records (1 remaining)")

	store, err := storage.NewSQLiteStorage(storage.SQLiteConfig{Path: path}, nil)
	require.NoError(t, err)
	defer store.Close()

	left, err := store.Query(context.Background(), &evidence.Query{})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "rec-00", left[0].ID)
}

func TestEvidencePrune_NegativeDays(t *testing.T) {
	defaultEvidence(t)

	_, err := executeCommand(t, "evidence", "prune", "--days", "-1")
	require.Error(t, err)
}
