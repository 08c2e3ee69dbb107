package logging

import (
	"context"
	"log/slog"
)

// contextHandler wraps the format handler. It gates records on the shared
// LevelVar, adds request fields carried in the context and masks secrets
// before the record reaches the output.
type contextHandler struct {
	next     slog.Handler
	level    *slog.LevelVar
	redactor *Redactor
}

func (h *contextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	if ctx != nil {
		if id := RequestID(ctx); id != "" {
			out.AddAttrs(slog.String(FieldRequestID, id))
		}
		if backend := Backend(ctx); backend != "" {
			out.AddAttrs(slog.String(FieldBackend, backend))
		}
	}

	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redact(a))
		return true
	})

	return h.next.Handle(ctx, out)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redact(a)
	}
	return &contextHandler{
		next:     h.next.WithAttrs(redacted),
		level:    h.level,
		redactor: h.redactor,
	}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{
		next:     h.next.WithGroup(name),
		level:    h.level,
		redactor: h.redactor,
	}
}

func (h *contextHandler) redact(a slog.Attr) slog.Attr {
	if h.redactor == nil {
		return a
	}
	return h.redactor.RedactAttr(a)
}
