package query

import (
	"fmt"

	"relay-hq/gemini/pkg/evidence"
	"relay-hq/gemini/pkg/telemetry/metrics"
)

const (
	// DefaultLimit is the default number of records to return if not specified.
	DefaultLimit = 100

	// MaxLimit is the maximum number of records that can be returned in a single query.
	MaxLimit = 10000
)

// SortColumns maps the accepted sort fields to storage columns.
var SortColumns = map[string]string{
	"request_time":     "request_time",
	"latency":          "latency_ns",
	"upstream_latency": "upstream_latency_ns",
	"status":           "status",
}

// Outcomes lists the outcome labels a record can carry. Preflights are
// not recorded.
var Outcomes = map[string]bool{
	metrics.OutcomeSuccess:          true,
	metrics.OutcomeMethodNotAllowed: true,
	metrics.OutcomeBadRequest:       true,
	metrics.OutcomeConfigError:      true,
	metrics.OutcomeUpstreamError:    true,
	metrics.OutcomeServerError:      true,
}

// Validate returns a QueryError if any query parameter is invalid.
func Validate(q *evidence.Query) error {
	if q.Limit < 0 {
		return evidence.NewQueryError(q, fmt.Errorf("limit must be >= 0, got %d", q.Limit))
	}
	if q.Limit > MaxLimit {
		return evidence.NewQueryError(q, fmt.Errorf("limit must be <= %d, got %d", MaxLimit, q.Limit))
	}
	if q.Offset < 0 {
		return evidence.NewQueryError(q, fmt.Errorf("offset must be >= 0, got %d", q.Offset))
	}

	if q.SortBy != "" {
		if _, ok := SortColumns[q.SortBy]; !ok {
			return evidence.NewQueryError(q, fmt.Errorf("invalid sort field: %s", q.SortBy))
		}
	}
	if q.SortOrder != "" && q.SortOrder != "asc" && q.SortOrder != "desc" {
		return evidence.NewQueryError(q, fmt.Errorf("invalid sort order: %s (must be 'asc' or 'desc')", q.SortOrder))
	}

	if q.StartTime != nil && q.EndTime != nil && q.StartTime.After(*q.EndTime) {
		return evidence.NewQueryError(q, fmt.Errorf("start_time must be before end_time"))
	}

	if q.Outcome != "" && !Outcomes[q.Outcome] {
		return evidence.NewQueryError(q, fmt.Errorf("invalid outcome: %s", q.Outcome))
	}
	if q.Status != 0 && (q.Status < 100 || q.Status > 599) {
		return evidence.NewQueryError(q, fmt.Errorf("invalid status: %d", q.Status))
	}
	if q.MinLatency < 0 {
		return evidence.NewQueryError(q, fmt.Errorf("min_latency must not be negative"))
	}

	return nil
}

// ApplyDefaults applies default values to a query.
func ApplyDefaults(q *evidence.Query) {
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.SortBy == "" {
		q.SortBy = "request_time"
	}
	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}
}

// Column returns the storage column for a sort field, falling back to
// request_time for unknown or empty fields.
func Column(sortBy string) string {
	if col, ok := SortColumns[sortBy]; ok {
		return col
	}
	return "request_time"
}
