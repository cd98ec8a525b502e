package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"relay-hq/gemini/pkg/evidence"
)

// flushEvery is how many streamed rows are written between flushes.
const flushEvery = 100

// Header is the CSV column row. Durations are in milliseconds.
var Header = []string{
	"id", "request_id", "trace_id",
	"request_time", "recorded_time",
	"method", "path", "remote_addr", "user_agent", "origin",
	"model", "prompt_hash", "prompt_bytes",
	"outcome", "status", "latency_ms",
	"upstream_status", "upstream_latency_ms", "response_hash", "response_bytes",
	"error", "error_details",
}

// CSVExporter exports evidence records as CSV.
type CSVExporter struct {
	// IncludeHeader writes Header as the first row.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

// Export writes records as CSV rows.
func (e *CSVExporter) Export(ctx context.Context, records []*evidence.Record, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(Header); err != nil {
			return evidence.NewExportError("csv", len(records), err)
		}
	}
	for _, record := range records {
		if err := writer.Write(recordToRow(record)); err != nil {
			return evidence.NewExportError("csv", len(records), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return evidence.NewExportError("csv", len(records), err)
	}
	return nil
}

// ExportStream writes records from recordsCh as CSV rows, flushing
// periodically so long exports show progress.
func (e *CSVExporter) ExportStream(ctx context.Context, recordsCh <-chan *evidence.Record, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(Header); err != nil {
			return evidence.NewExportError("csv", 0, err)
		}
	}

	count := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case record, ok := <-recordsCh:
			if !ok {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return evidence.NewExportError("csv", count, err)
				}
				return nil
			}

			if err := writer.Write(recordToRow(record)); err != nil {
				return evidence.NewExportError("csv", count, err)
			}
			count++

			if count%flushEvery == 0 {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return evidence.NewExportError("csv", count, err)
				}
			}
		}
	}
}

// recordToRow converts a record to a CSV row matching Header.
func recordToRow(r *evidence.Record) []string {
	formatTime := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(time.RFC3339Nano)
	}
	ms := func(d time.Duration) string {
		return strconv.FormatInt(d.Milliseconds(), 10)
	}

	return []string{
		r.ID, r.RequestID, r.TraceID,
		formatTime(r.RequestTime), formatTime(r.RecordedTime),
		r.Method, r.Path, r.RemoteAddr, r.UserAgent, r.Origin,
		r.Model, r.PromptHash, strconv.Itoa(r.PromptBytes),
		r.Outcome, strconv.Itoa(r.Status), ms(r.Latency),
		strconv.Itoa(r.UpstreamStatus), ms(r.UpstreamLatency), r.ResponseHash, strconv.Itoa(r.ResponseBytes),
		r.Error, r.ErrorDetails,
	}
}
