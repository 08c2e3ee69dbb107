package routing

import (
	"context"
	"time"
)

// Dispatch outcomes.
const (
	OutcomeServed    = "served"
	OutcomeExhausted = "exhausted"
	OutcomeFailed    = "failed"
)

// Exhaustion reasons.
const (
	ReasonAllCooling = "all_cooling"
	ReasonAllBusy    = "all_busy"
)

// Attempt results reported to observers.
const (
	AttemptSuccess     = "success"
	AttemptRateLimited = "rate_limited"
	AttemptFailed      = "failed"
)

// Fallback texts delivered as normal stream content on exhaustion.
const (
	FallbackAllCooling = "all backends are in cooldown"
	FallbackAllBusy    = "all backends busy, try later"
)

// DispatchRecord summarises one dispatch for observers.
type DispatchRecord struct {
	StartIndex  int
	Outcome     string
	Reason      string
	Backend     string
	Attempted   []string
	RateLimited []string
	Error       string
	StatusCode  int
	StartedAt   time.Time
	Duration    time.Duration
}

// Observer receives dispatch events. Implementations must be safe for
// concurrent use and must not block.
type Observer interface {
	// AttemptFinished is called after each backend invocation.
	AttemptFinished(backend, result string, elapsed time.Duration)

	// CooldownStarted is called when a backend enters cooldown.
	CooldownStarted(backend string, until time.Time)

	// DispatchFinished is called once per dispatch, after the outcome is known.
	DispatchFinished(ctx context.Context, rec DispatchRecord)
}

// Observers fans events out to several observers.
type Observers []Observer

func (o Observers) AttemptFinished(backend, result string, elapsed time.Duration) {
	for _, obs := range o {
		obs.AttemptFinished(backend, result, elapsed)
	}
}

func (o Observers) CooldownStarted(backend string, until time.Time) {
	for _, obs := range o {
		obs.CooldownStarted(backend, until)
	}
}

func (o Observers) DispatchFinished(ctx context.Context, rec DispatchRecord) {
	for _, obs := range o {
		obs.DispatchFinished(ctx, rec)
	}
}
