package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/trace"

	"github.com/ForLess01/API-RALF/pkg/config"
)

const parentTrace = "4bf92f3577b34da6a3ce929d0e0e4736"

func TestHTTPMiddleware_ContinuesCallerTrace(t *testing.T) {
	tracer, exporter := newTestTracer(t, enabledConfig(SamplerAlways))

	var seen trace.SpanContext
	handler := HTTPMiddleware(tracer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = trace.SpanContextFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
	req.Header.Set("traceparent", "00-"+parentTrace+"-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen.TraceID().String() != parentTrace {
		t.Errorf("handler trace id = %s, want %s", seen.TraceID(), parentTrace)
	}
	if got := rec.Header().Get(HeaderTraceID); got != parentTrace {
		t.Errorf("%s = %q, want %q", HeaderTraceID, got, parentTrace)
	}
	if rec.Header().Get(HeaderSpanID) == "" {
		t.Errorf("%s not set", HeaderSpanID)
	}

	_ = tracer.ForceFlush(context.Background())
	spans := exporter.GetSpans()
	if len(spans) != 1 || spans[0].Name != "POST /v1/chat/completions" {
		t.Fatalf("unexpected spans: %+v", spans)
	}
	if spans[0].SpanKind != trace.SpanKindServer {
		t.Errorf("span kind = %v", spans[0].SpanKind)
	}
}

func TestHTTPMiddleware_Disabled(t *testing.T) {
	tracer, err := New(enabledConfigDisabled())
	if err != nil {
		t.Fatal(err)
	}

	called := false
	handler := HTTPMiddleware(tracer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if !called {
		t.Fatal("next handler not called")
	}
	if rec.Header().Get(HeaderTraceID) != "" {
		t.Error("trace header set while tracing disabled")
	}
}

func TestInjectExtract_RoundTrip(t *testing.T) {
	tracer, _ := newTestTracer(t, enabledConfig(SamplerAlways))

	ctx, span := tracer.Start(context.Background(), "outbound")
	defer span.End()

	headers := http.Header{}
	Inject(ctx, headers)
	if headers.Get("traceparent") == "" {
		t.Fatal("traceparent not injected")
	}

	extracted := Extract(context.Background(), headers)
	if TraceID(extracted) != TraceID(ctx) {
		t.Errorf("extracted trace %s, want %s", TraceID(extracted), TraceID(ctx))
	}
}

func enabledConfigDisabled() *config.TracingConfig {
	cfg := enabledConfig(SamplerAlways)
	cfg.Enabled = false
	return cfg
}
