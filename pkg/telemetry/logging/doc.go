// Package logging builds the process logger on top of log/slog.
//
// # Formats
//
//   - json: slog JSON handler (default)
//   - text: slog text handler
//   - console: colored output through github.com/charmbracelet/log
//
// # Usage
//
//	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger.Slog())
//
//	ctx = logging.WithRequestID(ctx, id)
//	slog.InfoContext(ctx, "dispatch served", "backend", name) // includes request_id
//
// The level is held in a slog.LevelVar shared by every derived logger, so
// SetLevel takes effect immediately after a config reload.
//
// # Redaction
//
// With RedactKeys enabled, attributes whose key looks like a credential
// (api_key, authorization, token, ...) are masked, and string values are
// scrubbed of OpenAI/OpenRouter/Anthropic keys (sk-...), Google keys (AIza...)
// and bearer tokens. Extra patterns come from telemetry.logging.redact_patterns.
package logging
