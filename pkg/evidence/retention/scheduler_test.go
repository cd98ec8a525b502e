package retention

import (
	"context"
	"testing"
	"time"

	"relay-hq/gemini/pkg/evidence/storage"
)

func TestScheduler_NoSchedule(t *testing.T) {
	p := NewPruner(storage.NewMemoryStorage(), Config{RetentionDays: 30}, nil, nil)

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if p.scheduler.IsRunning() {
		t.Error("expected scheduler not to run without a schedule")
	}
	if p.NextPruning() != nil {
		t.Error("expected no next pruning time")
	}
	p.Stop()
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	p := NewPruner(storage.NewMemoryStorage(), Config{PruneSchedule: "not a schedule"}, nil, nil)

	if err := p.Start(context.Background()); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
	if p.scheduler.IsRunning() {
		t.Error("scheduler should not run after a failed start")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	p := NewPruner(storage.NewMemoryStorage(), Config{RetentionDays: 30, PruneSchedule: "0 3 * * *"}, nil, nil)

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if !p.scheduler.IsRunning() {
		t.Fatal("expected scheduler to be running")
	}

	next := p.NextPruning()
	if next == nil {
		t.Fatal("expected a next pruning time")
	}
	if next.Hour() != 3 || next.Minute() != 0 {
		t.Errorf("expected next run at 03:00, got %v", next)
	}

	p.Stop()
	if p.scheduler.IsRunning() {
		t.Error("expected scheduler stopped")
	}
	p.Stop()
}

func TestScheduler_StopsWithContext(t *testing.T) {
	p := NewPruner(storage.NewMemoryStorage(), Config{PruneSchedule: "@hourly"}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for p.scheduler.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("scheduler still running after context cancel")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestScheduler_RunsPruning(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for a one-second cron tick")
	}

	store := storage.NewMemoryStorage()
	seedDays(t, store, 100)

	p := NewPruner(store, Config{RetentionDays: 30, PruneSchedule: "@every 1s"}, nil, nil)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer p.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for remaining(t, store) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("scheduled pruning did not run")
		}
		time.Sleep(50 * time.Millisecond)
	}
}
