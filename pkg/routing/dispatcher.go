package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ForLess01/API-RALF/pkg/providers"
)

const tracerName = "github.com/ForLess01/API-RALF/pkg/routing"

// Result is the successful outcome of a dispatch. Exactly one of Backend or
// Fallback is set.
type Result struct {
	// Backend is the name of the backend whose stream is being returned.
	Backend string

	// StartIndex is the rotation position this request started from.
	StartIndex int

	// Stream yields the backend output, or the fallback text once.
	Stream *Stream

	// Fallback is the terminal message returned when no backend could serve.
	Fallback string

	// Reason is ReasonAllCooling or ReasonAllBusy for a fallback result.
	Reason string

	// Attempts is the number of backends invoked.
	Attempts int
}

// IsFallback reports whether the result carries the exhaustion message
// instead of backend output.
func (r *Result) IsFallback() bool {
	return r.Fallback != ""
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock replaces the wall clock, for tests.
func WithClock(clock Clock) Option {
	return func(d *Dispatcher) { d.clock = clock }
}

// WithObserver registers an observer for dispatch events.
func WithObserver(obs Observer) Option {
	return func(d *Dispatcher) {
		if obs != nil {
			d.observers = append(d.observers, obs)
		}
	}
}

// WithLogger sets the dispatcher's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// Dispatcher picks a backend for each request and fails over across
// backends that report a rate limit.
//
// Every request advances the rotation cursor exactly once. Each backend is
// invoked at most once per request, so a dispatch makes at most Count()
// invocations. Any failure that is not a rate limit ends the dispatch.
//
// Dispatcher is safe for concurrent use.
type Dispatcher struct {
	registry  *Registry
	health    *HealthTracker
	selector  *Selector
	cursor    RotationCursor
	clock     Clock
	observers Observers
	stats     *AtomicDispatchStats
	tracer    trace.Tracer
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher over registry. A nil health tracker is
// replaced by one with DefaultCooldown for every registered name.
func NewDispatcher(registry *Registry, health *HealthTracker, opts ...Option) (*Dispatcher, error) {
	if registry == nil || registry.Count() == 0 {
		return nil, ErrNoBackends
	}
	if health == nil {
		health = NewHealthTracker(registry.Names(), DefaultCooldown)
	}

	d := &Dispatcher{
		registry: registry,
		health:   health,
		selector: NewSelector(registry, health),
		clock:    SystemClock{},
		stats:    NewAtomicDispatchStats(),
		tracer:   otel.Tracer(tracerName),
		logger:   slog.Default().With("component", "routing.dispatcher"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Registry returns the backend registry.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Health returns the health tracker.
func (d *Dispatcher) Health() *HealthTracker { return d.health }

// Stats returns a snapshot of the dispatch counters.
func (d *Dispatcher) Stats() DispatchStats { return d.stats.Snapshot() }

// SetCooldown changes the cooldown applied by future rate limits.
func (d *Dispatcher) SetCooldown(cooldown time.Duration) {
	d.health.SetCooldown(cooldown)
	d.logger.Info("cooldown updated", "cooldown", d.health.Cooldown())
}

// Reset clears the cooldown of the named backend.
func (d *Dispatcher) Reset(name string) error {
	if _, ok := d.registry.Index(name); !ok {
		return &BackendNotFoundError{Name: name, Available: d.registry.Names()}
	}
	if d.health.Clear(name) {
		d.logger.Info("backend cooldown cleared", "backend", name)
	}
	return nil
}

// Dispatch routes one conversation.
//
// On success the returned Result holds the chosen backend's stream, with the
// first chunk already received. The served dispatch reaches the observers
// only once that stream ends, so a mid-stream failure is part of its record.
// When every backend is cooling, or every backend tried reported a rate
// limit, the Result holds a fallback message instead and err is nil. A
// non-rate-limit failure returns *BackendError. Cancellation of ctx returns
// ctx.Err().
func (d *Dispatcher) Dispatch(ctx context.Context, messages []providers.Message) (*Result, error) {
	n := d.registry.Count()
	start := d.cursor.Next(n)
	startedAt := d.clock.Now()

	ctx, span := d.tracer.Start(ctx, "routing.Dispatch", trace.WithAttributes(
		attribute.Int("ralf.start_index", start),
		attribute.Int("ralf.backends", n),
		attribute.Int("ralf.messages", len(messages)),
	))
	defer span.End()

	rec := DispatchRecord{StartIndex: start, StartedAt: startedAt}

	idx, ok := d.selector.NextHealthy(start, startedAt)
	if !ok {
		return d.exhausted(ctx, span, rec, ReasonAllCooling, FallbackAllCooling), nil
	}

	tried := make([]bool, n)
	skip := func(i int) bool { return tried[i] }

	for step := 0; step < n; step++ {
		if err := ctx.Err(); err != nil {
			return nil, d.failed(ctx, span, rec, "", err)
		}

		backend := d.registry.At(idx)
		name := backend.Name()
		tried[idx] = true

		// Another request may have cooled this backend since it was selected.
		if now := d.clock.Now(); !d.health.IsHealthy(name, now) {
			d.logger.Debug("selected backend entered cooldown, reselecting", "backend", name)
			if idx, ok = d.selector.NextHealthyExcluding(idx, now, skip); !ok {
				break
			}
			continue
		}

		rec.Attempted = append(rec.Attempted, name)
		attemptStart := time.Now()
		stream, err := d.invoke(ctx, backend, messages)
		elapsed := time.Since(attemptStart)

		if err == nil {
			d.observers.AttemptFinished(name, AttemptSuccess, elapsed)
			rec.Outcome = OutcomeServed
			rec.Backend = name
			stream.onEnd = func(streamErr error) {
				if streamErr != nil {
					rec.Error = streamErr.Error()
					rec.StatusCode = providers.StatusCode(streamErr)
				}
				d.finish(ctx, rec)
			}

			span.SetAttributes(
				attribute.String("ralf.backend", name),
				attribute.String("ralf.outcome", OutcomeServed),
				attribute.Int("ralf.attempts", len(rec.Attempted)),
			)
			d.logger.Debug("dispatch served",
				"backend", name,
				"start", start,
				"attempts", len(rec.Attempted),
			)
			return &Result{
				Backend:    name,
				StartIndex: start,
				Stream:     stream,
				Attempts:   len(rec.Attempted),
			}, nil
		}

		if ctx.Err() != nil {
			return nil, d.failed(ctx, span, rec, name, ctx.Err())
		}

		if !IsRateLimit(err) {
			d.observers.AttemptFinished(name, AttemptFailed, elapsed)
			return nil, d.failed(ctx, span, rec, name, &BackendError{
				Backend:    name,
				Message:    providers.ErrorMessage(err),
				StatusCode: providers.StatusCode(err),
				Err:        err,
			})
		}

		now := d.clock.Now()
		until := d.health.MarkCooldown(name, now, d.health.Cooldown())
		rec.RateLimited = append(rec.RateLimited, name)
		d.observers.AttemptFinished(name, AttemptRateLimited, elapsed)
		d.observers.CooldownStarted(name, until)
		span.AddEvent("rate_limited", trace.WithAttributes(attribute.String("ralf.backend", name)))

		d.logger.Warn("backend rate limited, failing over",
			"backend", name,
			"cooldown_until", until,
			"error", err,
		)

		if idx, ok = d.selector.NextHealthyExcluding(idx, now, skip); !ok {
			break
		}
	}

	return d.exhausted(ctx, span, rec, ReasonAllBusy, FallbackAllBusy), nil
}

// invoke calls the backend and waits for its first chunk. A first chunk that
// carries an error is reported as an invocation failure so the caller can
// still fail over.
func (d *Dispatcher) invoke(ctx context.Context, backend providers.Provider, messages []providers.Message) (*Stream, error) {
	ch, err := backend.Chat(ctx, messages)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, fmt.Errorf("backend %s returned no stream", backend.Name())
	}

	select {
	case first, ok := <-ch:
		if !ok {
			return newBackendStream(nil, nil), nil
		}
		if first != nil && first.Error != nil {
			drain(ch)
			return nil, first.Error
		}
		return newBackendStream(first, ch), nil
	case <-ctx.Done():
		drain(ch)
		return nil, ctx.Err()
	}
}

// drain discards what is left on ch so the producing goroutine can exit.
func drain(ch <-chan *providers.StreamChunk) {
	go func() {
		for range ch {
		}
	}()
}

func (d *Dispatcher) exhausted(ctx context.Context, span trace.Span, rec DispatchRecord, reason, text string) *Result {
	rec.Outcome = OutcomeExhausted
	rec.Reason = reason
	d.finish(ctx, rec)

	span.SetAttributes(
		attribute.String("ralf.outcome", OutcomeExhausted),
		attribute.String("ralf.reason", reason),
	)
	d.logger.Warn("no backend available",
		"reason", reason,
		"attempted", rec.Attempted,
		"rate_limited", rec.RateLimited,
	)

	return &Result{
		StartIndex: rec.StartIndex,
		Stream:     newFallbackStream(text),
		Fallback:   text,
		Reason:     reason,
		Attempts:   len(rec.Attempted),
	}
}

func (d *Dispatcher) failed(ctx context.Context, span trace.Span, rec DispatchRecord, backend string, err error) error {
	rec.Outcome = OutcomeFailed
	rec.Backend = backend
	rec.Error = err.Error()

	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		rec.StatusCode = backendErr.StatusCode
		d.logger.Error("backend failed",
			"backend", backend,
			"status", backendErr.StatusCode,
			"error", backendErr.Message,
		)
	}
	d.finish(ctx, rec)

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String("ralf.outcome", OutcomeFailed))
	return err
}

func (d *Dispatcher) finish(ctx context.Context, rec DispatchRecord) {
	rec.Duration = d.clock.Now().Sub(rec.StartedAt)
	d.stats.record(rec)
	d.observers.DispatchFinished(ctx, rec)
}
