package providerfactory

import (
	"fmt"
	"log/slog"

	"github.com/ForLess01/API-RALF/pkg/config"
	"github.com/ForLess01/API-RALF/pkg/providers"
	"github.com/ForLess01/API-RALF/pkg/providers/anthropic"
	"github.com/ForLess01/API-RALF/pkg/providers/gemini"
	"github.com/ForLess01/API-RALF/pkg/providers/openai"
)

// Backend types understood by NewProvider.
const (
	TypeGemini     = "gemini"
	TypeOpenRouter = openai.TypeOpenRouter
	TypeOpenAI     = openai.TypeOpenAI
	TypeGeneric    = openai.TypeGeneric
	TypeAnthropic  = "anthropic"
)

// NewProvider creates the adapter for one configured backend.
//
// Supported backend types:
//   - "gemini": Google Generative Language streamGenerateContent
//   - "openrouter", "openai", "generic": OpenAI-compatible chat completions
//   - "anthropic": Anthropic Messages API
//
// When Type is empty it is inferred from the backend name, falling back to
// "generic".
//
// Example:
//
//	provider, err := NewProvider(config.BackendConfig{
//	    Name:      "openrouter",
//	    Type:      "openrouter",
//	    APIKeyEnv: "OPENROUTER_API_KEY",
//	})
//	if err != nil {
//	    return err
//	}
//	defer provider.Close()
func NewProvider(backend config.BackendConfig) (providers.Provider, error) {
	pc := ProviderConfig(backend)

	slog.Debug("creating provider",
		"name", pc.Name,
		"type", pc.Type,
		"base_url", pc.BaseURL,
	)

	var (
		provider providers.Provider
		err      error
	)

	switch pc.Type {
	case TypeGemini:
		provider, err = gemini.NewProvider(pc)
	case TypeOpenRouter, TypeOpenAI, TypeGeneric:
		provider, err = openai.NewProvider(pc)
	case TypeAnthropic:
		provider, err = anthropic.NewProvider(pc)
	default:
		return nil, &providers.ConfigError{
			Provider: pc.Name,
			Field:    "type",
			Message: fmt.Sprintf("unsupported backend type %q (supported: %s, %s, %s, %s, %s)",
				pc.Type, TypeGemini, TypeOpenRouter, TypeOpenAI, TypeAnthropic, TypeGeneric),
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create provider %q: %w", pc.Name, err)
	}

	if pc.APIKey == "" && pc.Type != TypeGeneric {
		slog.Warn("backend has no API key, its requests will fail",
			"name", pc.Name,
			"api_key_env", backend.APIKeyEnv,
		)
	}

	slog.Info("provider created",
		"name", pc.Name,
		"type", pc.Type,
	)
	return provider, nil
}

// ProviderConfig converts a backend entry of the configuration file into
// the adapter settings.
func ProviderConfig(backend config.BackendConfig) providers.ProviderConfig {
	typ := backend.Type
	if typ == "" {
		typ = inferType(backend.Name)
	}

	return providers.ProviderConfig{
		Name:              backend.Name,
		Type:              typ,
		BaseURL:           backend.BaseURL,
		APIKey:            backend.APIKey,
		Model:             backend.Model,
		Temperature:       backend.Temperature,
		MaxTokens:         backend.MaxTokens,
		TopP:              backend.TopP,
		Headers:           backend.Headers,
		Timeout:           backend.Timeout,
		MaxRetries:        backend.MaxRetries,
		RequestsPerMinute: backend.RequestsPerMinute,
	}
}

// inferType infers the backend type from its name.
func inferType(name string) string {
	switch name {
	case TypeGemini, TypeOpenRouter, TypeOpenAI, TypeAnthropic:
		return name
	default:
		return TypeGeneric
	}
}
