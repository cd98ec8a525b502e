package storage

import (
	"context"
	"sort"
	"sync"

	"relay-hq/gemini/pkg/evidence"
)

// MemoryStorage implements evidence.Storage in memory. Records are lost on
// restart; it serves tests and short-lived deployments.
type MemoryStorage struct {
	records map[string]*evidence.Record
	mu      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]*evidence.Record),
	}
}

// Store persists a copy of the record.
func (s *MemoryStorage) Store(ctx context.Context, record *evidence.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recordCopy := *record
	s.records[record.ID] = &recordCopy
	return nil
}

// Query retrieves copies of the records matching the query filters.
func (s *MemoryStorage) Query(ctx context.Context, q *evidence.Query) ([]*evidence.Record, error) {
	s.mu.RLock()
	results := make([]*evidence.Record, 0, len(s.records))
	for _, record := range s.records {
		if matchesQuery(record, q) {
			recordCopy := *record
			results = append(results, &recordCopy)
		}
	}
	s.mu.RUnlock()

	sortRecords(results, q)

	if q.Offset >= len(results) {
		return []*evidence.Record{}, nil
	}
	results = results[q.Offset:]
	if q.Limit > 0 && q.Limit < len(results) {
		results = results[:q.Limit]
	}
	return results, nil
}

// QueryStream streams the result of Query over a channel.
func (s *MemoryStorage) QueryStream(ctx context.Context, q *evidence.Query) (<-chan *evidence.Record, <-chan error, error) {
	results, err := s.Query(ctx, q)
	if err != nil {
		return nil, nil, err
	}

	recordsCh := make(chan *evidence.Record, 100)
	errCh := make(chan error, 1)

	go func() {
		defer close(recordsCh)
		defer close(errCh)

		for _, record := range results {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case recordsCh <- record:
			}
		}
	}()

	return recordsCh, errCh, nil
}

// Count returns the number of records matching the query filters.
func (s *MemoryStorage) Count(ctx context.Context, q *evidence.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, record := range s.records {
		if matchesQuery(record, q) {
			count++
		}
	}
	return count, nil
}

// Delete removes records matching the query filters.
func (s *MemoryStorage) Delete(ctx context.Context, q *evidence.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, record := range s.records {
		if matchesQuery(record, q) {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

// Close is a no-op for memory storage.
func (s *MemoryStorage) Close() error {
	return nil
}

// matchesQuery mirrors the SQLite WHERE clause.
func matchesQuery(r *evidence.Record, q *evidence.Query) bool {
	if q.StartTime != nil && r.RequestTime.Before(*q.StartTime) {
		return false
	}
	if q.EndTime != nil && r.RequestTime.After(*q.EndTime) {
		return false
	}
	if q.RequestID != "" && r.RequestID != q.RequestID {
		return false
	}
	if q.Outcome != "" && r.Outcome != q.Outcome {
		return false
	}
	if q.Status != 0 && r.Status != q.Status {
		return false
	}
	if q.MinLatency > 0 && r.Latency < q.MinLatency {
		return false
	}
	return true
}

// sortRecords orders records like the SQLite ORDER BY, with the record ID
// as tie-breaker.
func sortRecords(records []*evidence.Record, q *evidence.Query) {
	key := func(r *evidence.Record) int64 {
		switch q.SortBy {
		case "latency":
			return int64(r.Latency)
		case "upstream_latency":
			return int64(r.UpstreamLatency)
		case "status":
			return int64(r.Status)
		default:
			return r.RequestTime.UnixNano()
		}
	}
	asc := q.SortOrder == "asc"

	sort.Slice(records, func(i, j int) bool {
		ki, kj := key(records[i]), key(records[j])
		if ki == kj {
			if asc {
				return records[i].ID < records[j].ID
			}
			return records[i].ID > records[j].ID
		}
		if asc {
			return ki < kj
		}
		return ki > kj
	})
}
