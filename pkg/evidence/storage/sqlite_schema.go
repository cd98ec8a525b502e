package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the evidence tables. Timestamps and durations are stored
// as integer nanoseconds so range filters compare numerically regardless
// of driver or time zone.
const Schema = `
CREATE TABLE IF NOT EXISTS evidence (
    id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL,
    trace_id TEXT NOT NULL DEFAULT '',

    request_time INTEGER NOT NULL,
    recorded_time INTEGER NOT NULL,

    method TEXT NOT NULL,
    path TEXT NOT NULL,
    remote_addr TEXT NOT NULL DEFAULT '',
    user_agent TEXT NOT NULL DEFAULT '',
    origin TEXT NOT NULL DEFAULT '',

    model TEXT NOT NULL,
    prompt_hash TEXT NOT NULL DEFAULT '',
    prompt_bytes INTEGER NOT NULL DEFAULT 0,

    outcome TEXT NOT NULL,
    status INTEGER NOT NULL,
    latency_ns INTEGER NOT NULL DEFAULT 0,

    upstream_status INTEGER NOT NULL DEFAULT 0,
    upstream_latency_ns INTEGER NOT NULL DEFAULT 0,
    response_hash TEXT NOT NULL DEFAULT '',
    response_bytes INTEGER NOT NULL DEFAULT 0,

    error TEXT NOT NULL DEFAULT '',
    error_details TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_evidence_request_time ON evidence(request_time);
CREATE INDEX IF NOT EXISTS idx_evidence_request_id ON evidence(request_id);
CREATE INDEX IF NOT EXISTS idx_evidence_outcome ON evidence(outcome);
CREATE INDEX IF NOT EXISTS idx_evidence_status ON evidence(status);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

// columns lists the evidence columns in scan order.
const columns = `id, request_id, trace_id,
	request_time, recorded_time,
	method, path, remote_addr, user_agent, origin,
	model, prompt_hash, prompt_bytes,
	outcome, status, latency_ns,
	upstream_status, upstream_latency_ns, response_hash, response_bytes,
	error, error_details`
