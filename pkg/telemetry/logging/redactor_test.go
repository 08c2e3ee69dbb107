package logging

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/ForLess01/API-RALF/pkg/config"
)

func TestNewRedactor(t *testing.T) {
	tests := []struct {
		name         string
		custom       []config.RedactPattern
		wantPatterns int
		wantErr      bool
	}{
		{
			name:         "default patterns only",
			wantPatterns: len(defaultPatterns),
		},
		{
			name: "with custom pattern",
			custom: []config.RedactPattern{
				{Name: "internal_token", Pattern: "tok_[a-zA-Z0-9]{16}", Replacement: "tok_***"},
			},
			wantPatterns: len(defaultPatterns) + 1,
		},
		{
			name: "invalid custom pattern",
			custom: []config.RedactPattern{
				{Name: "broken", Pattern: "[unclosed"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRedactor(tt.custom)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewRedactor() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(r.patterns) != tt.wantPatterns {
				t.Errorf("got %d patterns, want %d", len(r.patterns), tt.wantPatterns)
			}
		})
	}
}

func TestRedactor_RedactString(t *testing.T) {
	r, err := NewRedactor([]config.RedactPattern{
		{Name: "internal_token", Pattern: "tok_[a-zA-Z0-9]{16}"},
	})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"openrouter key", "using sk-or-v1-abcdef0123456789", "using sk-***"},
		{"anthropic key", "sk-ant-api03-abcdefghij", "sk-***"},
		{"google key", "key=AIzaSyA1234567890abcdefghijklmn", "key=AIza***"},
		{"bearer token", "Authorization: Bearer abc.def-ghi", "Authorization: Bearer ***"},
		{"custom pattern default replacement", "tok_0123456789abcdef", "***"},
		{"short sk prefix untouched", "task-list", "task-list"},
		{"plain text", "OpenRouter Error: 429 Too Many Requests", "OpenRouter Error: 429 Too Many Requests"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.RedactString(tt.input); got != tt.want {
				t.Errorf("RedactString(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRedactor_RedactAttr(t *testing.T) {
	r, err := NewRedactor(nil)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		attr slog.Attr
		want string
	}{
		{"sensitive key masked", slog.String("api_key", "AIzaSyA1234567890"), "AIza***"},
		{"short secret fully masked", slog.String("token", "abc"), "***"},
		{"header name match", slog.String("X-Api-Key", "anything-here"), "anyt***"},
		{"value scrubbed", slog.String("detail", "bad key sk-abcdefgh12345"), "bad key sk-***"},
		{"error scrubbed", slog.Any("error", errors.New("Bearer secret-token rejected")), "Bearer *** rejected"},
		{"sensitive non-string", slog.Any("secret", struct{ V int }{1}), "***"},
		{"other kinds untouched", slog.Int("attempts", 3), "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.RedactAttr(tt.attr)
			if got.Key != tt.attr.Key {
				t.Errorf("key changed to %q", got.Key)
			}
			if got.Value.String() != tt.want {
				t.Errorf("value = %q, want %q", got.Value.String(), tt.want)
			}
		})
	}
}

func TestRedactor_RedactAttrGroup(t *testing.T) {
	r, err := NewRedactor(nil)
	if err != nil {
		t.Fatal(err)
	}

	got := r.RedactAttr(slog.Group("upstream",
		slog.String("authorization", "Bearer abcdefghijkl"),
		slog.String("url", "https://openrouter.ai/api/v1"),
	))

	attrs := got.Value.Group()
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attrs, got %d", len(attrs))
	}
	if attrs[0].Value.String() != "Bear***" {
		t.Errorf("authorization = %q", attrs[0].Value.String())
	}
	if attrs[1].Value.String() != "https://openrouter.ai/api/v1" {
		t.Errorf("url = %q", attrs[1].Value.String())
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"short", "***"},
		{"sk-or-v1-abcdef", "sk-o***"},
	}

	for _, tt := range tests {
		if got := MaskSecret(tt.input); got != tt.want {
			t.Errorf("MaskSecret(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
