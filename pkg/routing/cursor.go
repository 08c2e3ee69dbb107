package routing

import "sync/atomic"

// RotationCursor spreads starting backends across successive requests.
// Read-and-advance is a single atomic add, so concurrent requests never
// observe the same start position from one advance.
type RotationCursor struct {
	counter atomic.Uint64
}

// Next returns the current position modulo size and advances by one.
func (c *RotationCursor) Next(size int) int {
	return int((c.counter.Add(1) - 1) % uint64(size))
}

// Peek returns the position the next request will start from.
func (c *RotationCursor) Peek(size int) int {
	return int(c.counter.Load() % uint64(size))
}
