package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"relay-hq/gemini/pkg/cli"
	"relay-hq/gemini/pkg/config"
	"relay-hq/gemini/pkg/evidence"
	"relay-hq/gemini/pkg/evidence/export"
	"relay-hq/gemini/pkg/evidence/query"
	"relay-hq/gemini/pkg/evidence/retention"
	"relay-hq/gemini/pkg/evidence/storage"
	"relay-hq/gemini/pkg/relay"

	"github.com/spf13/cobra"
)

type evidenceOptions struct {
	since      time.Duration
	timeRange  string
	requestID  string
	outcome    string
	status     int
	minLatency time.Duration
	limit      int
	offset     int
	sortBy     string
	order      string
	format     string
	output     string

	days       int
	maxRecords int64
}

var evidenceFlags evidenceOptions

var evidenceCmd = &cobra.Command{
	Use:   "evidence",
	Short: "Query and maintain the evidence database",
	Long: `Query, summarize and prune the audit trail written by the relay when
evidence recording is enabled.

Evidence records hold request metadata and SHA-256 hashes of the prompt and
the upstream response. Prompt and response text are never stored.

Subcommands:
  query   - Query evidence records with filters
  report  - Summarize outcomes and latency
  prune   - Apply the retention policy now`,
}

var evidenceQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query evidence records",
	Long: `Query evidence records with filters.

Time Range Format:
  RFC3339 interval format: "start/end"
  Example: "2025-11-19T00:00:00Z/2025-11-20T00:00:00Z"

Examples:
  # Last 24 hours
  gemini-relay evidence query --since 24h

  # Upstream failures, slowest first
  gemini-relay evidence query --outcome upstream_error --sort latency --order desc

  # Export to CSV
  gemini-relay evidence query --format csv --output evidence.csv`,
	RunE: queryEvidence,
}

var evidenceReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize evidence records",
	Long: `Summarize evidence records by outcome and status with latency statistics.

Examples:
  gemini-relay evidence report --since 168h
  gemini-relay evidence report --format json`,
	RunE: reportEvidence,
}

var evidencePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Apply the evidence retention policy",
	Long: `Delete evidence records older than the retention period and trim the
store to the configured maximum record count. Values from the config file
can be overridden with flags.

Examples:
  gemini-relay evidence prune
  gemini-relay evidence prune --days 7 --max-records 100000`,
	RunE: pruneEvidence,
}

func init() {
	rootCmd.AddCommand(evidenceCmd)
	evidenceCmd.AddCommand(evidenceQueryCmd, evidenceReportCmd, evidencePruneCmd)

	for _, c := range []*cobra.Command{evidenceQueryCmd, evidenceReportCmd} {
		c.Flags().DurationVar(&evidenceFlags.since, "since", 0, "only records newer than this duration (e.g. 24h)")
		c.Flags().StringVar(&evidenceFlags.timeRange, "time-range", "", "time range (RFC3339 interval: start/end)")
		c.Flags().StringVar(&evidenceFlags.outcome, "outcome", "", "filter by outcome")
		c.Flags().IntVar(&evidenceFlags.status, "status", 0, "filter by HTTP status")
		c.Flags().StringVarP(&evidenceFlags.output, "output", "o", "", "output file (default: stdout)")
	}

	evidenceQueryCmd.Flags().StringVar(&evidenceFlags.requestID, "request-id", "", "filter by request ID")
	evidenceQueryCmd.Flags().DurationVar(&evidenceFlags.minLatency, "min-latency", 0, "minimum request latency")
	evidenceQueryCmd.Flags().IntVar(&evidenceFlags.limit, "limit", query.DefaultLimit, "max results")
	evidenceQueryCmd.Flags().IntVar(&evidenceFlags.offset, "offset", 0, "pagination offset")
	evidenceQueryCmd.Flags().StringVar(&evidenceFlags.sortBy, "sort", "request_time", "sort by: request_time, latency, upstream_latency, status")
	evidenceQueryCmd.Flags().StringVar(&evidenceFlags.order, "order", "desc", "sort order: asc, desc")
	evidenceQueryCmd.Flags().StringVar(&evidenceFlags.format, "format", "text", "output format: text, json, csv")

	evidenceReportCmd.Flags().StringVar(&evidenceFlags.format, "format", "text", "output format: text, json, yaml")

	evidencePruneCmd.Flags().IntVar(&evidenceFlags.days, "days", 0, "retention period in days (0 keeps records forever)")
	evidencePruneCmd.Flags().Int64Var(&evidenceFlags.maxRecords, "max-records", 0, "maximum records to keep (0 is unlimited)")
}

// openEvidenceStore opens the configured evidence store for a one-shot
// command. The memory backend lives inside the server process and cannot
// be inspected from here.
func openEvidenceStore(cmd *cobra.Command) (evidence.Storage, *config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, nil, cli.NewCommandError("evidence", err)
	}
	if cfg.Evidence.Backend == "memory" {
		return nil, nil, cli.NewConfigError("evidence.backend", "the memory backend cannot be read outside the server")
	}

	logger, err := relay.NewLogger(config.LoggingConfig{Level: "warn", Format: "text", RedactSecrets: true}, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}

	store, err := storage.New(cfg.Evidence, logger.Slog())
	if err != nil {
		return nil, nil, cli.NewCommandError("evidence", fmt.Errorf("failed to open evidence storage: %w", err))
	}
	return store, cfg, nil
}

// buildEvidenceQuery turns the shared filter flags into a query.
func buildEvidenceQuery(now time.Time) (*evidence.Query, error) {
	q := &evidence.Query{
		RequestID:  evidenceFlags.requestID,
		Outcome:    evidenceFlags.outcome,
		Status:     evidenceFlags.status,
		MinLatency: evidenceFlags.minLatency,
	}

	if evidenceFlags.since > 0 && evidenceFlags.timeRange != "" {
		return nil, fmt.Errorf("--since and --time-range are mutually exclusive")
	}
	if evidenceFlags.since > 0 {
		start := now.Add(-evidenceFlags.since)
		q.StartTime = &start
	}

	if evidenceFlags.timeRange != "" {
		parts := strings.Split(evidenceFlags.timeRange, "/")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid time range format (expected: start/end)")
		}

		startTime, err := time.Parse(time.RFC3339, parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid start time: %w", err)
		}
		q.StartTime = &startTime

		endTime, err := time.Parse(time.RFC3339, parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid end time: %w", err)
		}
		q.EndTime = &endTime
	}

	return q, nil
}

// evidenceOutput returns the destination for command output and a
// function that closes it.
func evidenceOutput(cmd *cobra.Command) (io.Writer, func() error, error) {
	if evidenceFlags.output == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.OpenFile(evidenceFlags.output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

func queryEvidence(cmd *cobra.Command, args []string) error {
	format := evidenceFlags.format
	if format != "text" && format != "json" && format != "csv" {
		return fmt.Errorf("unknown format %q (want text, json or csv)", format)
	}

	q, err := buildEvidenceQuery(time.Now())
	if err != nil {
		return err
	}
	q.Limit = evidenceFlags.limit
	q.Offset = evidenceFlags.offset
	q.SortBy = evidenceFlags.sortBy
	q.SortOrder = evidenceFlags.order
	if err := query.Validate(q); err != nil {
		return err
	}
	query.ApplyDefaults(q)

	store, _, err := openEvidenceStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	out, closeOut, err := evidenceOutput(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	switch format {
	case "json":
		err = streamEvidence(ctx, store, q, out, export.NewJSONExporter(true).ExportStream)
	case "csv":
		err = streamEvidence(ctx, store, q, out, export.NewCSVExporter(true).ExportStream)
	default:
		var records []*evidence.Record
		records, err = store.Query(ctx, q)
		if err == nil {
			var total int64
			total, err = store.Count(ctx, q)
			if err == nil {
				writeEvidenceText(out, records, q, total)
			}
		}
	}

	if cerr := closeOut(); err == nil {
		err = cerr
	}
	if err != nil {
		return cli.NewCommandError("evidence", err)
	}
	return nil
}

type streamExporter func(ctx context.Context, records <-chan *evidence.Record, w io.Writer) error

// streamEvidence exports matching records without holding the result set
// in memory.
func streamEvidence(ctx context.Context, store evidence.Storage, q *evidence.Query, w io.Writer, exp streamExporter) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	records, errCh, err := store.QueryStream(ctx, q)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if err := exp(ctx, records, w); err != nil {
		cancel()
		// Unblock the producer so it can observe cancellation.
		for range records {
		}
		return fmt.Errorf("export failed: %w", err)
	}
	if err := <-errCh; err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	return nil
}

func writeEvidenceText(w io.Writer, records []*evidence.Record, q *evidence.Query, total int64) {
	if q.StartTime != nil || q.EndTime != nil {
		start, end := "beginning", "now"
		if q.StartTime != nil {
			start = q.StartTime.Format(time.RFC3339)
		}
		if q.EndTime != nil {
			end = q.EndTime.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "Time range: %s to %s\n", start, end)
	}
	fmt.Fprintf(w, "Matching records: %d (showing %d)\n", total, len(records))

	if len(records) == 0 {
		fmt.Fprintln(w, "No records found.")
		return
	}

	for _, r := range records {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Record ID: %s\n", r.ID)
		fmt.Fprintf(w, "Timestamp: %s\n", r.RequestTime.Format(time.RFC3339))
		if r.RequestID != "" {
			fmt.Fprintf(w, "Request ID: %s\n", r.RequestID)
		}
		fmt.Fprintf(w, "Outcome: %s (%d)\n", r.Outcome, r.Status)
		fmt.Fprintf(w, "Latency: %s\n", r.Latency.Round(time.Millisecond))
		if r.UpstreamStatus != 0 {
			fmt.Fprintf(w, "Upstream: %d in %s\n", r.UpstreamStatus, r.UpstreamLatency.Round(time.Millisecond))
		}
		if r.Error != "" {
			fmt.Fprintf(w, "Error: %s\n", r.Error)
		}
	}

	if shown := int64(q.Offset + len(records)); shown < total {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "... and %d more records\n", total-shown)
		fmt.Fprintln(w, "Use --limit and --offset for pagination.")
	}
}

// evidenceReport summarizes a set of evidence records.
type evidenceReport struct {
	Total      int64          `json:"total" yaml:"total"`
	ByOutcome  map[string]int `json:"by_outcome" yaml:"by_outcome"`
	ByStatus   map[int]int    `json:"by_status" yaml:"by_status"`
	AvgLatency time.Duration  `json:"avg_latency_ns" yaml:"avg_latency"`
	P95Latency time.Duration  `json:"p95_latency_ns" yaml:"p95_latency"`
	MaxLatency time.Duration  `json:"max_latency_ns" yaml:"max_latency"`
	First      *time.Time     `json:"first,omitempty" yaml:"first,omitempty"`
	Last       *time.Time     `json:"last,omitempty" yaml:"last,omitempty"`
}

func (r evidenceReport) String() string {
	var sb strings.Builder
	sb.WriteString("Evidence Report\n")
	sb.WriteString("===============\n")
	fmt.Fprintf(&sb, "Total records: %d\n", r.Total)
	if r.Total == 0 {
		return strings.TrimRight(sb.String(), "\n")
	}
	fmt.Fprintf(&sb, "Period: %s to %s\n", r.First.Format(time.RFC3339), r.Last.Format(time.RFC3339))

	sb.WriteString("\nBy outcome:\n")
	outcomes := make([]string, 0, len(r.ByOutcome))
	for o := range r.ByOutcome {
		outcomes = append(outcomes, o)
	}
	sort.Strings(outcomes)
	for _, o := range outcomes {
		fmt.Fprintf(&sb, "  %-20s %d\n", o, r.ByOutcome[o])
	}

	sb.WriteString("\nBy status:\n")
	statuses := make([]int, 0, len(r.ByStatus))
	for s := range r.ByStatus {
		statuses = append(statuses, s)
	}
	sort.Ints(statuses)
	for _, s := range statuses {
		fmt.Fprintf(&sb, "  %-20d %d\n", s, r.ByStatus[s])
	}

	sb.WriteString("\nLatency:\n")
	fmt.Fprintf(&sb, "  avg %s\n", r.AvgLatency.Round(time.Millisecond))
	fmt.Fprintf(&sb, "  p95 %s\n", r.P95Latency.Round(time.Millisecond))
	fmt.Fprintf(&sb, "  max %s", r.MaxLatency.Round(time.Millisecond))
	return sb.String()
}

// summarize streams records into a report.
func summarize(ctx context.Context, store evidence.Storage, q *evidence.Query) (evidenceReport, error) {
	report := evidenceReport{
		ByOutcome: make(map[string]int),
		ByStatus:  make(map[int]int),
	}

	q.SortBy = "request_time"
	q.SortOrder = "asc"
	records, errCh, err := store.QueryStream(ctx, q)
	if err != nil {
		return report, err
	}

	var latencies []time.Duration
	var sum time.Duration
	for r := range records {
		report.Total++
		report.ByOutcome[r.Outcome]++
		report.ByStatus[r.Status]++
		latencies = append(latencies, r.Latency)
		sum += r.Latency
		if r.Latency > report.MaxLatency {
			report.MaxLatency = r.Latency
		}
		if report.First == nil {
			t := r.RequestTime
			report.First = &t
		}
		t := r.RequestTime
		report.Last = &t
	}
	if err := <-errCh; err != nil {
		return report, err
	}

	if n := len(latencies); n > 0 {
		report.AvgLatency = sum / time.Duration(n)
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
		report.P95Latency = latencies[(n*95+99)/100-1]
	}
	return report, nil
}

func reportEvidence(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(evidenceFlags.format)
	if err != nil {
		return err
	}

	q, err := buildEvidenceQuery(time.Now())
	if err != nil {
		return err
	}
	if err := query.Validate(q); err != nil {
		return err
	}

	store, _, err := openEvidenceStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	report, err := summarize(ctx, store, q)
	if err != nil {
		return cli.NewCommandError("evidence", fmt.Errorf("query failed: %w", err))
	}

	out, closeOut, err := evidenceOutput(cmd)
	if err != nil {
		return err
	}
	err = cli.NewFormatter(format).FormatTo(out, report)
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	return err
}

func pruneEvidence(cmd *cobra.Command, args []string) error {
	store, cfg, err := openEvidenceStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	rc := retention.ConfigFrom(cfg.Evidence.Retention)
	// Scheduling is the server's job.
	rc.PruneSchedule = ""
	if cmd.Flags().Changed("days") {
		rc.RetentionDays = evidenceFlags.days
	}
	if cmd.Flags().Changed("max-records") {
		rc.MaxRecords = evidenceFlags.maxRecords
	}
	if rc.RetentionDays < 0 || rc.MaxRecords < 0 {
		return cli.NewConfigError("evidence.retention", "days and max-records must not be negative")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	pruner := retention.NewPruner(store, rc, nil, nil)
	deleted, err := pruner.Prune(ctx)
	if err != nil {
		return cli.NewCommandError("evidence", err)
	}

	remaining, err := store.Count(ctx, &evidence.Query{})
	if err != nil {
		return cli.NewCommandError("evidence", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Pruned %d records (%d remaining)\n", deleted, remaining)
	return nil
}
