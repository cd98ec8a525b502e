package evidence

import (
	"context"
	"io"
	"time"
)

// Record is the audit entry for a single relay request.
type Record struct {
	// Identity
	ID        string `json:"id"`                 // UUID v4
	RequestID string `json:"request_id"`         // X-Request-ID
	TraceID   string `json:"trace_id,omitempty"` // W3C trace ID when sampled

	// Timestamps
	RequestTime  time.Time `json:"request_time"`  // When the request arrived
	RecordedTime time.Time `json:"recorded_time"` // When the record was built

	// Caller
	Method     string `json:"method"`
	Path       string `json:"path"`
	RemoteAddr string `json:"remote_addr,omitempty"`
	UserAgent  string `json:"user_agent,omitempty"`
	Origin     string `json:"origin,omitempty"`

	// Prompt
	Model       string `json:"model"`
	PromptHash  string `json:"prompt_hash,omitempty"` // SHA-256, hex
	PromptBytes int    `json:"prompt_bytes"`

	// Result returned to the caller
	Outcome string        `json:"outcome"` // metrics.Outcome* label
	Status  int           `json:"status"`
	Latency time.Duration `json:"latency"`

	// Upstream call. UpstreamStatus is zero when no response arrived and
	// UpstreamLatency is zero when the call was never made.
	UpstreamStatus  int           `json:"upstream_status,omitempty"`
	UpstreamLatency time.Duration `json:"upstream_latency,omitempty"`
	ResponseHash    string        `json:"response_hash,omitempty"` // SHA-256 of the upstream body
	ResponseBytes   int           `json:"response_bytes,omitempty"`

	// Failure, as sent in the envelope (already redacted)
	Error        string `json:"error,omitempty"`
	ErrorDetails string `json:"error_details,omitempty"`
}

// Query defines filter parameters for querying evidence records.
type Query struct {
	// Time range, inclusive on both ends.
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	// Filters
	RequestID string `json:"request_id,omitempty"`
	Outcome   string `json:"outcome,omitempty"`
	Status    int    `json:"status,omitempty"`

	// MinLatency keeps only records at least this slow.
	MinLatency time.Duration `json:"min_latency,omitempty"`

	// Pagination. A zero Limit means no limit.
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// Sorting: "request_time", "latency", "upstream_latency" or "status";
	// order "asc" or "desc". Defaults to newest first.
	SortBy    string `json:"sort_by,omitempty"`
	SortOrder string `json:"sort_order,omitempty"`
}

// Storage defines the interface for evidence storage backends.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Store persists an evidence record.
	Store(ctx context.Context, record *Record) error

	// Query retrieves evidence records matching the query filters.
	// Returns an empty slice if no records match.
	Query(ctx context.Context, query *Query) ([]*Record, error)

	// QueryStream delivers matching records on a channel for exports that
	// should not hold the full result in memory. Both channels are closed
	// when the query completes; errCh carries at most one error.
	QueryStream(ctx context.Context, query *Query) (<-chan *Record, <-chan error, error)

	// Count returns the number of records matching the query filters.
	// Pagination fields are ignored.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes records matching the query filters and returns how
	// many were deleted. Pagination fields are ignored.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases any resources held by the storage backend.
	Close() error
}

// Exporter writes evidence records in a specific format.
type Exporter interface {
	Export(ctx context.Context, records []*Record, w io.Writer) error
}
