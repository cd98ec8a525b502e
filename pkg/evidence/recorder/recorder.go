package recorder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"relay-hq/gemini/pkg/evidence"
	"relay-hq/gemini/pkg/telemetry/metrics"

	"github.com/google/uuid"
)

// Config contains configuration for the evidence recorder.
type Config struct {
	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout bounds each storage write and how long Record waits for
	// buffer space before dropping a record.
	// Default: 5 seconds
	WriteTimeout time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Metrics may be nil.
	Metrics *metrics.Collector
}

// Recorder writes evidence records to storage on a background goroutine.
//
// All methods are safe to call on a nil *Recorder, in which case they do
// nothing.
type Recorder struct {
	storage    evidence.Storage
	config     Config
	recordChan chan *evidence.Record
	done       chan struct{}
	wg         sync.WaitGroup
	logger     *slog.Logger
	metrics    *metrics.Collector

	mu     sync.RWMutex
	closed bool
}

// New creates a recorder and starts its writer goroutine. Call Close to
// flush pending records.
func New(storage evidence.Storage, cfg Config) *Recorder {
	if cfg.AsyncBuffer <= 0 {
		cfg.AsyncBuffer = 1000
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		storage:    storage,
		config:     cfg,
		recordChan: make(chan *evidence.Record, cfg.AsyncBuffer),
		done:       make(chan struct{}),
		logger:     logger.With("component", "evidence.recorder"),
		metrics:    cfg.Metrics,
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("evidence recorder initialized",
		"async_buffer", cfg.AsyncBuffer,
		"write_timeout", cfg.WriteTimeout,
	)

	return r
}

// Record enqueues a record for writing. It fills in ID and RecordedTime
// when they are unset. It returns immediately unless the buffer is full,
// in which case it waits up to WriteTimeout and then drops the record.
// The caller must not modify the record afterwards.
func (r *Recorder) Record(ctx context.Context, record *evidence.Record) error {
	if r == nil {
		return nil
	}

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.RecordedTime.IsZero() {
		record.RecordedTime = time.Now().UTC()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.metrics.RecordEvidenceWrite(metrics.EvidenceDropped, 0)
		return evidence.NewRecorderError(record.ID, evidence.ErrRecorderClosed)
	}

	timer := time.NewTimer(r.config.WriteTimeout)
	defer timer.Stop()

	select {
	case r.recordChan <- record:
		return nil
	case <-timer.C:
		r.logger.ErrorContext(ctx, "evidence buffer full, dropping record",
			"record_id", record.ID,
			"buffer_capacity", r.config.AsyncBuffer,
		)
		r.metrics.RecordEvidenceWrite(metrics.EvidenceDropped, 0)
		return evidence.NewRecorderError(record.ID, fmt.Errorf("%w after %s", evidence.ErrBufferFull, r.config.WriteTimeout))
	case <-ctx.Done():
		r.metrics.RecordEvidenceWrite(metrics.EvidenceDropped, 0)
		return evidence.NewRecorderError(record.ID, ctx.Err())
	}
}

// Close stops accepting records, writes everything still buffered and
// waits for the writer to finish. It is safe to call more than once.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.done)
	r.mu.Unlock()

	r.wg.Wait()
	r.logger.Info("evidence recorder shut down")
	return nil
}

// worker drains the channel until Close.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			r.writeRecord(record)

		case <-r.done:
			for {
				select {
				case record := <-r.recordChan:
					r.writeRecord(record)
				default:
					return
				}
			}
		}
	}
}

// writeRecord writes a single evidence record to storage.
func (r *Recorder) writeRecord(record *evidence.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()
	err := r.storage.Store(ctx, record)
	duration := time.Since(start)

	if err != nil {
		r.logger.Error("failed to store evidence record",
			"record_id", record.ID,
			"request_id", record.RequestID,
			"error", err,
		)
		r.metrics.RecordEvidenceWrite(metrics.EvidenceFailed, duration)
		return
	}
	r.metrics.RecordEvidenceWrite(metrics.EvidenceStored, duration)

	r.logger.Debug("evidence recorded",
		"record_id", record.ID,
		"request_id", record.RequestID,
		"outcome", record.Outcome,
		"duration_ms", duration.Milliseconds(),
	)

	if duration > r.config.WriteTimeout/2 {
		r.logger.Warn("slow evidence write",
			"record_id", record.ID,
			"duration_ms", duration.Milliseconds(),
			"threshold_ms", (r.config.WriteTimeout / 2).Milliseconds(),
		)
	}
}
