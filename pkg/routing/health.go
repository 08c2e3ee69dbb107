package routing

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultCooldown is how long a backend is excluded after a rate limit.
const DefaultCooldown = time.Hour

// HealthTracker holds the cooldown deadline of every backend.
//
// A backend is healthy when its deadline is zero or not after now. A new
// rate limit overwrites the deadline; cooldowns never accumulate.
type HealthTracker struct {
	mu            sync.RWMutex
	cooldownUntil map[string]time.Time

	// cooldown is the configured duration in nanoseconds; reloadable
	cooldown atomic.Int64
}

// NewHealthTracker creates a record for every name, all healthy.
// A non-positive cooldown selects DefaultCooldown.
func NewHealthTracker(names []string, cooldown time.Duration) *HealthTracker {
	h := &HealthTracker{
		cooldownUntil: make(map[string]time.Time, len(names)),
	}
	for _, name := range names {
		h.cooldownUntil[name] = time.Time{}
	}
	h.SetCooldown(cooldown)
	return h
}

// Cooldown returns the configured cooldown duration.
func (h *HealthTracker) Cooldown() time.Duration {
	return time.Duration(h.cooldown.Load())
}

// SetCooldown changes the duration applied by future rate limits.
// Cooldowns already in progress keep their deadline.
func (h *HealthTracker) SetCooldown(d time.Duration) {
	if d <= 0 {
		d = DefaultCooldown
	}
	h.cooldown.Store(int64(d))
}

// IsHealthy reports whether name is eligible for selection at now.
func (h *HealthTracker) IsHealthy(name string, now time.Time) bool {
	h.mu.RLock()
	until := h.cooldownUntil[name]
	h.mu.RUnlock()
	return !until.After(now)
}

// MarkCooldown sets the deadline of name to now+d, replacing any previous
// deadline. Unknown names are ignored.
func (h *HealthTracker) MarkCooldown(name string, now time.Time, d time.Duration) time.Time {
	until := now.Add(d)

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.cooldownUntil[name]; !ok {
		return time.Time{}
	}
	h.cooldownUntil[name] = until
	return until
}

// Remaining returns how long name stays in cooldown, never negative.
func (h *HealthTracker) Remaining(name string, now time.Time) time.Duration {
	h.mu.RLock()
	until := h.cooldownUntil[name]
	h.mu.RUnlock()

	if remaining := until.Sub(now); remaining > 0 {
		return remaining
	}
	return 0
}

// CooldownUntil returns the raw deadline of name.
func (h *HealthTracker) CooldownUntil(name string) time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cooldownUntil[name]
}

// Clear makes name healthy immediately. It reports false for unknown names.
func (h *HealthTracker) Clear(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.cooldownUntil[name]; !ok {
		return false
	}
	h.cooldownUntil[name] = time.Time{}
	return true
}
