package logging

import (
	"context"
	"io"
	"testing"
)

func benchLogger(b *testing.B, redact bool) *Logger {
	b.Helper()
	logger, err := New(Config{Level: "info", Format: "json", RedactKeys: redact, Writer: io.Discard})
	if err != nil {
		b.Fatal(err)
	}
	return logger
}

func BenchmarkLogger_Info(b *testing.B) {
	logger := benchLogger(b, false)
	b.ReportAllocs()
	for b.Loop() {
		logger.Info("dispatch served", "backend", "gemini", "attempts", 1)
	}
}

func BenchmarkLogger_InfoRedacted(b *testing.B) {
	logger := benchLogger(b, true)
	ctx := WithRequestID(context.Background(), "req-1")
	b.ReportAllocs()
	for b.Loop() {
		logger.InfoContext(ctx, "upstream call", "api_key", "sk-or-v1-0123456789", "detail", "ok")
	}
}

// Filtered records should cost no allocations.
func BenchmarkLogger_DebugFiltered(b *testing.B) {
	logger := benchLogger(b, false)
	b.ReportAllocs()
	for b.Loop() {
		logger.Debug("hidden", "backend", "openrouter")
	}
}
