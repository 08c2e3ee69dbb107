package routing

import (
	"sync"
	"sync/atomic"
	"time"
)

// DispatchStats is a point-in-time copy of the dispatcher counters.
type DispatchStats struct {
	TotalRequests    int64            `json:"total_requests"`
	Served           int64            `json:"served"`
	Exhausted        int64            `json:"exhausted"`
	Failed           int64            `json:"failed"`
	Failovers        int64            `json:"failovers"`
	ServedPerBackend map[string]int64 `json:"served_per_backend"`
	CooldownsStarted map[string]int64 `json:"cooldowns_started"`
	LastResetTime    time.Time        `json:"last_reset_time"`
}

// AtomicDispatchStats implements thread-safe dispatch statistics using atomic
// operations. All counters are updated without locks.
type AtomicDispatchStats struct {
	totalRequests atomic.Int64
	served        atomic.Int64
	exhausted     atomic.Int64
	failed        atomic.Int64
	failovers     atomic.Int64

	// servedPerBackend and cooldownsStarted hold *atomic.Int64 keyed by name
	servedPerBackend sync.Map
	cooldownsStarted sync.Map

	lastResetTime time.Time
	mu            sync.RWMutex
}

// NewAtomicDispatchStats creates a zeroed stats tracker.
func NewAtomicDispatchStats() *AtomicDispatchStats {
	return &AtomicDispatchStats{
		lastResetTime: time.Now(),
	}
}

func (s *AtomicDispatchStats) record(rec DispatchRecord) {
	s.totalRequests.Add(1)
	s.failovers.Add(int64(len(rec.RateLimited)))

	switch rec.Outcome {
	case OutcomeServed:
		s.served.Add(1)
		increment(&s.servedPerBackend, rec.Backend)
	case OutcomeExhausted:
		s.exhausted.Add(1)
	case OutcomeFailed:
		s.failed.Add(1)
	}

	for _, name := range rec.RateLimited {
		increment(&s.cooldownsStarted, name)
	}
}

func increment(m *sync.Map, key string) {
	val, _ := m.LoadOrStore(key, &atomic.Int64{})
	val.(*atomic.Int64).Add(1)
}

func collect(m *sync.Map) map[string]int64 {
	out := make(map[string]int64)
	m.Range(func(key, value interface{}) bool {
		out[key.(string)] = value.(*atomic.Int64).Load()
		return true
	})
	return out
}

// Snapshot returns a point-in-time snapshot of the statistics.
func (s *AtomicDispatchStats) Snapshot() DispatchStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return DispatchStats{
		TotalRequests:    s.totalRequests.Load(),
		Served:           s.served.Load(),
		Exhausted:        s.exhausted.Load(),
		Failed:           s.failed.Load(),
		Failovers:        s.failovers.Load(),
		ServedPerBackend: collect(&s.servedPerBackend),
		CooldownsStarted: collect(&s.cooldownsStarted),
		LastResetTime:    s.lastResetTime,
	}
}

// Reset resets all statistics to zero.
func (s *AtomicDispatchStats) Reset() {
	s.totalRequests.Store(0)
	s.served.Store(0)
	s.exhausted.Store(0)
	s.failed.Store(0)
	s.failovers.Store(0)

	s.servedPerBackend.Range(func(key, value interface{}) bool {
		s.servedPerBackend.Delete(key)
		return true
	})
	s.cooldownsStarted.Range(func(key, value interface{}) bool {
		s.cooldownsStarted.Delete(key)
		return true
	})

	s.mu.Lock()
	s.lastResetTime = time.Now()
	s.mu.Unlock()
}
