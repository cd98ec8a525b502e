package retention

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"relay-hq/gemini/pkg/config"
	"relay-hq/gemini/pkg/evidence"
	"relay-hq/gemini/pkg/evidence/export"
	"relay-hq/gemini/pkg/telemetry/metrics"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// RetentionDays is the number of days to retain evidence.
	// 0 keeps evidence forever.
	RetentionDays int

	// MaxRecords caps the number of stored records. 0 means unlimited.
	MaxRecords int64

	// PruneSchedule is a cron expression. Empty disables scheduling.
	PruneSchedule string

	// ArchiveBeforeDelete writes records to ArchivePath before deletion.
	ArchiveBeforeDelete bool

	// ArchivePath is the directory to store archived evidence.
	ArchivePath string
}

// ConfigFrom converts the retention section of the configuration file.
func ConfigFrom(cfg config.RetentionConfig) Config {
	return Config{
		RetentionDays:       cfg.Days,
		MaxRecords:          cfg.MaxRecords,
		PruneSchedule:       cfg.PruneSchedule,
		ArchiveBeforeDelete: cfg.ArchiveBeforeDelete,
		ArchivePath:         cfg.ArchivePath,
	}
}

// Pruner enforces retention policies on evidence records.
type Pruner struct {
	storage   evidence.Storage
	config    Config
	logger    *slog.Logger
	metrics   *metrics.Collector
	scheduler *Scheduler

	// now is replaced in tests.
	now func() time.Time
}

// NewPruner creates a new retention pruner. logger and collector may be nil.
func NewPruner(storage evidence.Storage, cfg Config, logger *slog.Logger, collector *metrics.Collector) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pruner{
		storage: storage,
		config:  cfg,
		logger:  logger.With("component", "evidence.retention"),
		metrics: collector,
		now:     time.Now,
	}
	p.scheduler = NewScheduler(p)
	return p
}

// Prune deletes evidence in two phases: records older than RetentionDays,
// then the oldest records beyond MaxRecords. It returns the total number
// of records deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.RetentionDays > 0 {
		deleted, err := p.pruneByAge(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by age failed: %w", err)
		}
		total += deleted
	}

	if p.config.MaxRecords > 0 {
		deleted, err := p.pruneByCount(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by count failed: %w", err)
		}
		total += deleted
	}

	p.metrics.RecordEvidencePruned(total)

	if total > 0 {
		p.logger.Info("evidence pruning completed",
			"total_deleted", total,
			"retention_days", p.config.RetentionDays,
			"max_records", p.config.MaxRecords,
		)
	} else {
		p.logger.Debug("no records pruned",
			"retention_days", p.config.RetentionDays,
			"max_records", p.config.MaxRecords,
		)
	}

	return total, nil
}

// pruneByAge deletes records older than the retention period.
func (p *Pruner) pruneByAge(ctx context.Context) (int64, error) {
	cutoff := p.now().AddDate(0, 0, -p.config.RetentionDays)
	q := &evidence.Query{EndTime: &cutoff}

	if p.config.ArchiveBeforeDelete {
		records, err := p.storage.Query(ctx, &evidence.Query{EndTime: &cutoff, SortOrder: "asc"})
		if err != nil {
			return 0, evidence.NewRetentionError(p.config.RetentionDays, err)
		}
		if err := p.archive(ctx, "age", records); err != nil {
			return 0, evidence.NewRetentionError(p.config.RetentionDays, err)
		}
	}

	deleted, err := p.storage.Delete(ctx, q)
	if err != nil {
		return 0, evidence.NewRetentionError(p.config.RetentionDays, err)
	}

	p.logger.Debug("pruned records by age", "deleted_count", deleted, "cutoff_time", cutoff)
	return deleted, nil
}

// pruneByCount deletes the oldest records if the total exceeds MaxRecords.
func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.storage.Count(ctx, &evidence.Query{})
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	if count <= p.config.MaxRecords {
		return 0, nil
	}

	excess := count - p.config.MaxRecords
	oldest, err := p.storage.Query(ctx, &evidence.Query{
		SortBy:    "request_time",
		SortOrder: "asc",
		Limit:     int(excess),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to query oldest records: %w", err)
	}
	if len(oldest) == 0 {
		return 0, nil
	}

	// Records sharing the cutoff timestamp go too; the cap is approximate.
	cutoff := oldest[len(oldest)-1].RequestTime

	if p.config.ArchiveBeforeDelete {
		doomed, err := p.storage.Query(ctx, &evidence.Query{
			EndTime:   &cutoff,
			SortBy:    "request_time",
			SortOrder: "asc",
		})
		if err != nil {
			return 0, fmt.Errorf("failed to query records to archive: %w", err)
		}
		if err := p.archive(ctx, "count", doomed); err != nil {
			return 0, fmt.Errorf("archive failed: %w", err)
		}
	}

	deleted, err := p.storage.Delete(ctx, &evidence.Query{EndTime: &cutoff})
	if err != nil {
		return 0, fmt.Errorf("delete failed: %w", err)
	}

	p.logger.Info("record count exceeded limit, pruned oldest",
		"count", count,
		"max_records", p.config.MaxRecords,
		"deleted_count", deleted,
	)
	return deleted, nil
}

// archive writes records to a timestamped JSON file in ArchivePath.
func (p *Pruner) archive(ctx context.Context, reason string, records []*evidence.Record) error {
	if len(records) == 0 {
		return nil
	}

	if err := os.MkdirAll(p.config.ArchivePath, 0o755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	name := fmt.Sprintf("evidence-%s-%s.json", reason, p.now().UTC().Format("2006-01-02-150405"))
	path := filepath.Join(p.config.ArchivePath, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}

	if err := export.NewJSONExporter(true).Export(ctx, records, f); err != nil {
		f.Close()
		return fmt.Errorf("failed to export records to archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close archive file: %w", err)
	}

	p.logger.Info("evidence archived",
		"archive_file", path,
		"record_count", len(records),
	)
	return nil
}

// Start starts the pruning scheduler.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops the pruning scheduler.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// Close stops the scheduler; it lets a Pruner sit in a list of io.Closers.
func (p *Pruner) Close() error {
	p.Stop()
	return nil
}

// NextPruning returns the time of the next scheduled pruning, or nil.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
