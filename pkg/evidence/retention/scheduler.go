package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// cronLogger routes the cron library's own messages through slog.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, kv ...any) { c.l.Debug("cron: "+msg, kv...) }

func (c cronLogger) Error(err error, msg string, kv ...any) {
	c.l.Error("cron: "+msg, append(kv, "error", err)...)
}

// Scheduler triggers a Pruner on its PruneSchedule. Overlapping runs are
// skipped and a panicking run does not take the relay down.
type Scheduler struct {
	pruner *Pruner
	logger *slog.Logger

	mu        sync.Mutex
	cron      *cron.Cron
	entry     cron.EntryID
	stopWatch func() bool
}

func NewScheduler(pruner *Pruner) *Scheduler {
	return &Scheduler{
		pruner: pruner,
		logger: pruner.logger.With("component", "evidence.scheduler"),
	}
}

// Start begins scheduled pruning and ties its lifetime to ctx. An empty
// schedule is not an error; pruning is then only run on demand.
func (s *Scheduler) Start(ctx context.Context) error {
	expr := s.pruner.config.PruneSchedule
	if expr == "" {
		s.logger.Info("no prune schedule configured")
		return nil
	}
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return fmt.Errorf("prune schedule %q: %w", expr, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}

	log := cronLogger{s.logger}
	c := cron.New(
		cron.WithLogger(log),
		cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
	)
	s.entry = c.Schedule(schedule, cron.FuncJob(func() { s.run(ctx) }))
	c.Start()
	s.cron = c
	s.stopWatch = context.AfterFunc(ctx, s.Stop)

	s.logger.Info("retention scheduler started",
		"schedule", expr,
		"retention_days", s.pruner.config.RetentionDays,
		"max_records", s.pruner.config.MaxRecords,
	)
	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	start := time.Now()
	deleted, err := s.pruner.Prune(ctx)
	if err != nil {
		s.logger.Error("scheduled pruning failed", "error", err)
		return
	}
	s.logger.Debug("scheduled pruning finished", "deleted", deleted, "took", time.Since(start))
}

// Stop cancels future runs and waits for one in progress. Calling it
// again, or without a schedule, does nothing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return
	}
	s.stopWatch()
	<-s.cron.Stop().Done()
	s.cron = nil
	s.logger.Info("retention scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cron != nil
}

// NextRun is the time of the next scheduled prune, or nil when stopped.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return nil
	}
	next := s.cron.Entry(s.entry).Next
	if next.IsZero() {
		return nil
	}
	return &next
}
