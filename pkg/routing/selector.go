package routing

import "time"

// Selector finds the next backend that is out of cooldown.
type Selector struct {
	registry *Registry
	health   *HealthTracker
}

// NewSelector creates a selector over registry and health.
func NewSelector(registry *Registry, health *HealthTracker) *Selector {
	return &Selector{registry: registry, health: health}
}

// NextHealthy scans Count() positions from start inclusive, wrapping
// around, and returns the first healthy index. It returns false when every
// backend is in cooldown. It never mutates state.
func (s *Selector) NextHealthy(start int, now time.Time) (int, bool) {
	return s.NextHealthyExcluding(start, now, nil)
}

// NextHealthyExcluding is NextHealthy with an extra filter; indexes for
// which skip returns true are passed over.
func (s *Selector) NextHealthyExcluding(start int, now time.Time, skip func(int) bool) (int, bool) {
	n := s.registry.Count()
	if n == 0 {
		return 0, false
	}

	start %= n
	if start < 0 {
		start += n
	}

	for offset := 0; offset < n; offset++ {
		i := (start + offset) % n
		if skip != nil && skip(i) {
			continue
		}
		if s.health.IsHealthy(s.registry.At(i).Name(), now) {
			return i, true
		}
	}
	return 0, false
}
