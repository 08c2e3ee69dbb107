package routing

import "time"

// Backend status values reported by Status.
const (
	StatusHealthy  = "healthy"
	StatusCooldown = "cooldown"
)

// BackendStatus describes one backend for the observability query.
type BackendStatus struct {
	Name                     string     `json:"name"`
	Type                     string     `json:"type"`
	Current                  bool       `json:"current"`
	Status                   string     `json:"status"`
	CooldownRemainingSeconds int64      `json:"cooldown_remaining_seconds"`
	CooldownUntil            *time.Time `json:"cooldown_until,omitempty"`
}

// Snapshot is the dispatcher state returned by the observability query.
type Snapshot struct {
	Backends        []BackendStatus `json:"backends"`
	Cursor          int             `json:"cursor"`
	CooldownSeconds int64           `json:"cooldown_seconds"`
	Healthy         int             `json:"healthy"`
	Stats           DispatchStats   `json:"stats"`
}

// Status reports every backend in registry order. Current marks the
// backend the next request will start from.
func (d *Dispatcher) Status() Snapshot {
	now := d.clock.Now()
	n := d.registry.Count()
	head := d.cursor.Peek(n)

	snap := Snapshot{
		Backends:        make([]BackendStatus, 0, n),
		Cursor:          head,
		CooldownSeconds: int64(d.health.Cooldown() / time.Second),
		Stats:           d.stats.Snapshot(),
	}

	for i := 0; i < n; i++ {
		backend := d.registry.At(i)
		name := backend.Name()

		st := BackendStatus{
			Name:    name,
			Type:    backend.Type(),
			Current: i == head,
			Status:  StatusHealthy,
		}
		if remaining := d.health.Remaining(name, now); remaining > 0 {
			until := d.health.CooldownUntil(name)
			st.Status = StatusCooldown
			st.CooldownRemainingSeconds = int64((remaining + time.Second - 1) / time.Second)
			st.CooldownUntil = &until
		} else {
			snap.Healthy++
		}
		snap.Backends = append(snap.Backends, st)
	}
	return snap
}

// AnyHealthy reports whether at least one backend is out of cooldown.
func (d *Dispatcher) AnyHealthy() bool {
	_, ok := d.selector.NextHealthy(0, d.clock.Now())
	return ok
}
