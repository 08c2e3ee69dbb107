package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/ForLess01/API-RALF/pkg/providers"
	"github.com/ForLess01/API-RALF/pkg/proxy"
	"github.com/ForLess01/API-RALF/pkg/proxy/middleware"
	"github.com/ForLess01/API-RALF/pkg/proxy/types"
	"github.com/ForLess01/API-RALF/pkg/routing"
	"github.com/ForLess01/API-RALF/pkg/telemetry/logging"
	"github.com/ForLess01/API-RALF/pkg/telemetry/tracing"
)

// Routes served by the chat handlers, used as metric and span labels.
const (
	RouteChat        = "/chat"
	RouteCompletions = "/v1/chat/completions"
)

// Request outcomes reported to the RequestRecorder.
const (
	OutcomeServed      = "served"
	OutcomeFallback    = "fallback"
	OutcomeInvalid     = "invalid"
	OutcomeError       = "error"
	OutcomeStreamError = "stream_error"
	OutcomeCanceled    = "canceled"
)

// Dispatcher is the routing surface used by the handlers.
// *routing.Dispatcher implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, messages []providers.Message) (*routing.Result, error)
	Status() routing.Snapshot
	Reset(name string) error
}

// RequestRecorder receives per-route request metrics.
// *metrics.Collector implements it.
type RequestRecorder interface {
	RecordRequest(route, outcome string, duration time.Duration)
	RecordStreamChunks(route string, n int)
}

type nopRecorder struct{}

func (nopRecorder) RecordRequest(string, string, time.Duration) {}
func (nopRecorder) RecordStreamChunks(string, int)              {}

// Option configures the chat handlers.
type Option func(*chatBase)

// WithRecorder sets the metrics sink.
func WithRecorder(rec RequestRecorder) Option {
	return func(b *chatBase) {
		if rec != nil {
			b.recorder = rec
		}
	}
}

// WithMaxBodyBytes limits the size of request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(b *chatBase) {
		if n > 0 {
			b.maxBody = n
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *chatBase) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// chatBase holds what the chat and completions handlers share: parsing
// limits, dispatch and the bookkeeping done once a request ends.
type chatBase struct {
	dispatcher Dispatcher
	recorder   RequestRecorder
	maxBody    int64
	logger     *slog.Logger
}

func newChatBase(d Dispatcher, opts []Option) chatBase {
	b := chatBase{
		dispatcher: d,
		recorder:   nopRecorder{},
		maxBody:    proxy.DefaultMaxBodyBytes,
		logger:     slog.Default().With("component", "proxy.handlers"),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// begin checks the method and tags the server span. It returns false when
// the request has already been answered.
func (b *chatBase) begin(w http.ResponseWriter, r *http.Request, route string, start time.Time) bool {
	tracing.SetRequestAttributes(trace.SpanFromContext(r.Context()), middleware.GetRequestID(r.Context()), route)

	if r.Method != http.MethodPost {
		b.writeError(r.Context(), w, types.NewMethodNotAllowedError(r.Method))
		b.recorder.RecordRequest(route, OutcomeInvalid, time.Since(start))
		return false
	}
	return true
}

// reject answers a request that failed parsing or validation.
func (b *chatBase) reject(w http.ResponseWriter, r *http.Request, route string, err error, start time.Time) {
	b.logger.WarnContext(r.Context(), "rejected request", "route", route, "error", err)
	b.writeError(r.Context(), w, proxy.HandleError(err))
	b.recorder.RecordRequest(route, OutcomeInvalid, time.Since(start))
}

// dispatch runs the failover dispatch. On a backend failure the error
// response is written here and nil is returned.
func (b *chatBase) dispatch(w http.ResponseWriter, r *http.Request, route string, msgs []providers.Message, start time.Time) *routing.Result {
	ctx := r.Context()

	res, err := b.dispatcher.Dispatch(ctx, msgs)
	if err != nil {
		tracing.SetError(trace.SpanFromContext(ctx), err)
		b.logger.ErrorContext(ctx, "dispatch failed",
			"route", route,
			"error", err,
			"latency_ms", time.Since(start).Milliseconds(),
		)
		b.writeError(ctx, w, proxy.HandleError(err))
		b.recorder.RecordRequest(route, OutcomeError, time.Since(start))
		return nil
	}
	return res
}

// finish logs and records a relayed response.
func (b *chatBase) finish(ctx context.Context, route string, res *routing.Result, out proxy.RelayResult, start time.Time) {
	span := trace.SpanFromContext(ctx)
	tracing.SetRelayAttributes(span, res.Backend, res.IsFallback(), out.Chunks)
	b.recorder.RecordStreamChunks(route, out.Chunks)

	outcome := OutcomeServed
	switch {
	case out.StreamErr != nil:
		outcome = OutcomeStreamError
		tracing.SetError(span, out.StreamErr)
		b.logger.ErrorContext(ctx, "backend stream failed",
			"route", route,
			"chunks", out.Chunks,
			"error", out.StreamErr,
		)
	case out.WriteErr != nil:
		outcome = OutcomeCanceled
		b.logger.WarnContext(ctx, "caller went away during stream",
			"route", route,
			"chunks", out.Chunks,
			"error", out.WriteErr,
		)
	case res.IsFallback():
		outcome = OutcomeFallback
		b.logger.WarnContext(ctx, "no backend available",
			"route", route,
			"reason", res.Reason,
			"attempts", res.Attempts,
		)
	default:
		b.logger.InfoContext(ctx, "response relayed",
			"route", route,
			"attempts", res.Attempts,
			"chunks", out.Chunks,
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
	b.recorder.RecordRequest(route, outcome, time.Since(start))

	// The relay may stop before the stream ends on its own.
	streamErr := out.StreamErr
	if streamErr == nil {
		streamErr = out.WriteErr
	}
	res.Stream.Finish(streamErr)
}

func (b *chatBase) writeError(ctx context.Context, w http.ResponseWriter, errResp *types.ErrorResponse) {
	if err := proxy.WriteErrorResponse(w, errResp); err != nil {
		b.logger.ErrorContext(ctx, "failed to write error response", "error", err)
	}
}

// withBackend adds the serving backend to the context used for logging.
func withBackend(ctx context.Context, res *routing.Result) context.Context {
	if res.Backend == "" {
		return ctx
	}
	return logging.WithBackend(ctx, res.Backend)
}
