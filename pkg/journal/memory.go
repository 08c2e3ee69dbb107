package journal

import (
	"context"
	"sort"
	"sync"
)

const backendMemory = "memory"

// MemoryStore keeps records in process memory. Once maxRecords is reached the
// oldest record is evicted on every write.
type MemoryStore struct {
	mu         sync.RWMutex
	records    []*Record // ordered by StartedAt, oldest first
	maxRecords int
	closed     bool
}

// NewMemoryStore creates an in-memory store. maxRecords <= 0 means unbounded.
func NewMemoryStore(maxRecords int) *MemoryStore {
	return &MemoryStore{maxRecords: maxRecords}
}

func (s *MemoryStore) Store(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageError(backendMemory, "store", ErrClosed)
	}

	rec := cloneRecord(record)

	// Records usually arrive in order; insert from the tail.
	i := sort.Search(len(s.records), func(i int) bool {
		return s.records[i].StartedAt.After(rec.StartedAt)
	})
	s.records = append(s.records, nil)
	copy(s.records[i+1:], s.records[i:])
	s.records[i] = rec

	if s.maxRecords > 0 && len(s.records) > s.maxRecords {
		drop := len(s.records) - s.maxRecords
		s.records = append(s.records[:0:0], s.records[drop:]...)
	}
	return nil
}

func (s *MemoryStore) Query(_ context.Context, q *Query) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageError(backendMemory, "query", ErrClosed)
	}

	results := make([]*Record, 0)
	skipped := 0
	for i := len(s.records) - 1; i >= 0; i-- {
		r := s.records[i]
		if !q.matches(r) {
			continue
		}
		if q != nil && skipped < q.Offset {
			skipped++
			continue
		}
		results = append(results, cloneRecord(r))
		if q != nil && q.Limit > 0 && len(results) >= q.Limit {
			break
		}
	}
	return results, nil
}

func (s *MemoryStore) Count(_ context.Context, q *Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, NewStorageError(backendMemory, "count", ErrClosed)
	}

	var n int64
	for _, r := range s.records {
		if q.matches(r) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Delete(_ context.Context, q *Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, NewStorageError(backendMemory, "delete", ErrClosed)
	}

	kept := s.records[:0]
	var deleted int64
	for _, r := range s.records {
		if q.matches(r) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	clear(s.records[len(kept):])
	s.records = kept
	return deleted, nil
}

func (s *MemoryStore) Trim(_ context.Context, keep int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, NewStorageError(backendMemory, "trim", ErrClosed)
	}
	if keep < 0 {
		keep = 0
	}

	excess := int64(len(s.records)) - keep
	if excess <= 0 {
		return 0, nil
	}
	s.records = append(s.records[:0:0], s.records[excess:]...)
	return excess, nil
}

func (s *MemoryStore) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return NewStorageError(backendMemory, "ping", ErrClosed)
	}
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.records = nil
	return nil
}

func cloneRecord(r *Record) *Record {
	c := *r
	c.Attempted = append([]string{}, r.Attempted...)
	c.RateLimited = append([]string{}, r.RateLimited...)
	return &c
}
