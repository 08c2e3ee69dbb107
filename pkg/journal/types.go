package journal

import (
	"context"
	"time"
)

// Record is one journaled dispatch.
type Record struct {
	// ID is a UUID assigned when the record is created.
	ID string `json:"id"`

	// RequestID correlates the record with request logs.
	RequestID string `json:"request_id,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	RecordedAt time.Time `json:"recorded_at"`

	// StartIndex is the rotation position the dispatch started from.
	StartIndex int `json:"start_index"`

	// Outcome is one of "served", "exhausted" or "failed".
	Outcome string `json:"outcome"`

	// Reason explains an exhausted outcome ("all_cooling", "all_busy").
	Reason string `json:"reason,omitempty"`

	// Backend is the backend that served or failed the request.
	Backend string `json:"backend,omitempty"`

	// Attempted lists the backends invoked, in order.
	Attempted []string `json:"attempted"`

	// RateLimited lists the backends that answered with a rate limit.
	RateLimited []string `json:"rate_limited"`

	Error      string `json:"error,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// Query filters journal records. Zero values match everything.
type Query struct {
	// Since matches records started at or after this time.
	Since *time.Time

	// Until matches records started strictly before this time.
	Until *time.Time

	Backend string
	Outcome string

	// Limit caps the number of records returned. 0 means no limit.
	Limit int

	// Offset skips that many records.
	Offset int
}

// Store persists journal records. Query returns newest records first.
type Store interface {
	// Store persists a record.
	Store(ctx context.Context, record *Record) error

	// Query returns the records matching q, newest first.
	Query(ctx context.Context, q *Query) ([]*Record, error)

	// Count returns the number of records matching q. Limit and Offset are
	// ignored.
	Count(ctx context.Context, q *Query) (int64, error)

	// Delete removes the records matching q and returns how many were removed.
	Delete(ctx context.Context, q *Query) (int64, error)

	// Trim keeps the newest keep records and removes the rest.
	Trim(ctx context.Context, keep int64) (int64, error)

	// Ping reports whether the store is usable.
	Ping(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}

func (q *Query) matches(r *Record) bool {
	if q == nil {
		return true
	}
	if q.Since != nil && r.StartedAt.Before(*q.Since) {
		return false
	}
	if q.Until != nil && !r.StartedAt.Before(*q.Until) {
		return false
	}
	if q.Backend != "" && r.Backend != q.Backend {
		return false
	}
	if q.Outcome != "" && r.Outcome != q.Outcome {
		return false
	}
	return true
}
