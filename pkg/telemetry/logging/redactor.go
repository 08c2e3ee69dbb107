package logging

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ForLess01/API-RALF/pkg/config"
)

// Redactor masks credentials in log attributes.
type Redactor struct {
	patterns []*redactPattern
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Built-in pattern names.
const (
	PatternOpenAIKey   = "openai_key"
	PatternGoogleKey   = "google_key"
	PatternBearerToken = "bearer_token"
)

const masked = "***"

var defaultPatterns = []struct {
	name        string
	regex       string
	replacement string
}{
	// OpenAI, OpenRouter (sk-or-...) and Anthropic (sk-ant-...) keys
	{PatternOpenAIKey, `sk-[A-Za-z0-9_\-]{8,}`, "sk-***"},
	// Google AI Studio keys
	{PatternGoogleKey, `AIza[0-9A-Za-z_\-]{20,}`, "AIza***"},
	{PatternBearerToken, `Bearer\s+[A-Za-z0-9\-._~+/]+=*`, "Bearer ***"},
}

var sensitiveKeys = []string{
	"api_key", "apikey", "api-key",
	"authorization", "token", "secret", "password",
	"x-api-key", "x-goog-api-key",
}

// NewRedactor creates a Redactor with the built-in patterns plus any
// configured ones. An invalid custom pattern is an error.
func NewRedactor(custom []config.RedactPattern) (*Redactor, error) {
	r := &Redactor{}
	for _, p := range defaultPatterns {
		r.patterns = append(r.patterns, &redactPattern{
			name:        p.name,
			regex:       regexp.MustCompile(p.regex),
			replacement: p.replacement,
		})
	}

	for _, p := range custom {
		regex, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("redact pattern %q: %w", p.Name, err)
		}
		replacement := p.Replacement
		if replacement == "" {
			replacement = masked
		}
		r.patterns = append(r.patterns, &redactPattern{
			name:        p.Name,
			regex:       regex,
			replacement: replacement,
		})
	}

	return r, nil
}

// RedactString replaces every credential-looking substring.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// RedactAttr masks the value of a sensitive key entirely and scrubs string
// values of any other key. Groups are walked recursively.
func (r *Redactor) RedactAttr(a slog.Attr) slog.Attr {
	value := a.Value.Resolve()

	switch value.Kind() {
	case slog.KindGroup:
		attrs := value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, inner := range attrs {
			out[i] = r.RedactAttr(inner)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	case slog.KindString:
		if isSensitiveKey(a.Key) {
			return slog.String(a.Key, MaskSecret(value.String()))
		}
		return slog.String(a.Key, r.RedactString(value.String()))
	case slog.KindAny:
		if err, ok := value.Any().(error); ok {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
		if isSensitiveKey(a.Key) {
			return slog.String(a.Key, masked)
		}
	}

	return slog.Attr{Key: a.Key, Value: value}
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, sensitive := range sensitiveKeys {
		if strings.Contains(lower, sensitive) {
			return true
		}
	}
	return false
}

// MaskSecret keeps the first four characters of a secret for identification.
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return masked
	}
	return secret[:4] + masked
}
