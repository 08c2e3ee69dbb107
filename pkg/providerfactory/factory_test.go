package providerfactory

import (
	"errors"
	"testing"
	"time"

	"github.com/ForLess01/API-RALF/pkg/config"
	"github.com/ForLess01/API-RALF/pkg/providers"
	"github.com/ForLess01/API-RALF/pkg/routing"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		backend  config.BackendConfig
		wantType string
		wantErr  bool
	}{
		{
			name:     "gemini",
			backend:  config.BackendConfig{Name: "gemini", Type: "gemini", APIKey: "AIza-test"},
			wantType: "gemini",
		},
		{
			name:     "openrouter",
			backend:  config.BackendConfig{Name: "openrouter", Type: "openrouter", APIKey: "sk-or-test"},
			wantType: "openrouter",
		},
		{
			name:     "openai",
			backend:  config.BackendConfig{Name: "openai", Type: "openai", APIKey: "sk-test", Timeout: 30 * time.Second},
			wantType: "openai",
		},
		{
			name:     "anthropic",
			backend:  config.BackendConfig{Name: "claude", Type: "anthropic", APIKey: "sk-ant-test"},
			wantType: "anthropic",
		},
		{
			name: "generic",
			backend: config.BackendConfig{
				Name:    "ollama",
				Type:    "generic",
				BaseURL: "http://localhost:11434/v1",
				Model:   "llama3",
			},
			wantType: "generic",
		},
		{
			name:     "type inferred from name",
			backend:  config.BackendConfig{Name: "gemini", APIKey: "AIza-test"},
			wantType: "gemini",
		},
		{
			name:     "missing key is not a construction error",
			backend:  config.BackendConfig{Name: "openrouter", Type: "openrouter"},
			wantType: "openrouter",
		},
		{
			name:    "generic without base url",
			backend: config.BackendConfig{Name: "local", Type: "generic", Model: "llama3"},
			wantErr: true,
		},
		{
			name:    "unknown type",
			backend: config.BackendConfig{Name: "x", Type: "carrier-pigeon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.backend)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewProvider() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var cfgErr *providers.ConfigError
				if !errors.As(err, &cfgErr) {
					t.Errorf("error %v is not a *providers.ConfigError", err)
				}
				return
			}
			defer p.Close()

			if p.Name() != tt.backend.Name {
				t.Errorf("Name() = %q, want %q", p.Name(), tt.backend.Name)
			}
			if p.Type() != tt.wantType {
				t.Errorf("Type() = %q, want %q", p.Type(), tt.wantType)
			}
		})
	}
}

func TestProviderConfig(t *testing.T) {
	b := config.BackendConfig{
		Name:              "openrouter-free",
		BaseURL:           "https://example.test/v1",
		APIKey:            "sk-or-test",
		Model:             "meta/llama",
		Temperature:       0.3,
		MaxTokens:         512,
		TopP:              0.9,
		Headers:           map[string]string{"X-Title": "ralf"},
		Timeout:           10 * time.Second,
		MaxRetries:        2,
		RequestsPerMinute: 20,
	}

	pc := ProviderConfig(b)

	if pc.Type != TypeGeneric {
		t.Errorf("Type = %q, want inferred %q", pc.Type, TypeGeneric)
	}
	if pc.Name != b.Name || pc.BaseURL != b.BaseURL || pc.APIKey != b.APIKey || pc.Model != b.Model {
		t.Errorf("identity fields not copied: %+v", pc)
	}
	if pc.Temperature != 0.3 || pc.MaxTokens != 512 || pc.TopP != 0.9 {
		t.Errorf("sampling fields not copied: %+v", pc)
	}
	if pc.Timeout != 10*time.Second || pc.MaxRetries != 2 || pc.RequestsPerMinute != 20 {
		t.Errorf("transport fields not copied: %+v", pc)
	}
	if pc.Headers["X-Title"] != "ralf" {
		t.Errorf("headers not copied: %v", pc.Headers)
	}
}

func TestNewRegistry(t *testing.T) {
	registry, err := NewRegistry([]config.BackendConfig{
		{Name: "gemini", Type: "gemini", APIKey: "AIza-test"},
		{Name: "openrouter", Type: "openrouter", APIKey: "sk-or-test"},
	})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	defer registry.Close()

	names := registry.Names()
	if len(names) != 2 || names[0] != "gemini" || names[1] != "openrouter" {
		t.Errorf("Names() = %v, want configuration order", names)
	}
}

func TestNewRegistry_Errors(t *testing.T) {
	tests := []struct {
		name     string
		backends []config.BackendConfig
		wantIs   error
	}{
		{
			name:     "empty",
			backends: nil,
			wantIs:   routing.ErrNoBackends,
		},
		{
			name: "duplicate names",
			backends: []config.BackendConfig{
				{Name: "gemini", Type: "gemini"},
				{Name: "gemini", Type: "gemini"},
			},
			wantIs: routing.ErrDuplicateBackend,
		},
		{
			name: "one bad backend fails the set",
			backends: []config.BackendConfig{
				{Name: "gemini", Type: "gemini"},
				{Name: "bad", Type: "unknown"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.backends)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("error = %v, want %v", err, tt.wantIs)
			}
		})
	}
}
