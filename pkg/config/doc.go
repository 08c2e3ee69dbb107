// Package config provides configuration management for API-RALF.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides.
//
// # Configuration Loading
//
//	cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// An empty path runs on defaults: a Gemini backend followed by an OpenRouter
// backend, listening on 0.0.0.0:3000.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention RALF_SECTION_FIELD:
//
//   - RALF_ROUTING_COOLDOWN overrides routing.cooldown
//   - RALF_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//   - RALF_BACKENDS_<NAME>_API_KEY overrides a backend's api_key
//
// PORT replaces the port of proxy.listen_address. A backend without an
// api_key reads it from its api_key_env, which defaults to GEMINI_API_KEY,
// OPENROUTER_API_KEY, OPENAI_API_KEY or ANTHROPIC_API_KEY by type.
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Hot Reload
//
// Watcher observes the file with fsnotify. Only routing.cooldown and
// telemetry.logging.level take effect on reload; the backend list is fixed
// at startup.
//
// # Example Configuration
//
//	proxy:
//	  listen_address: "0.0.0.0:3000"
//
//	backends:
//	  - name: gemini
//	    type: gemini
//	  - name: openrouter
//	    type: openrouter
//	    model: "google/gemini-2.0-flash-exp:free"
//
//	routing:
//	  cooldown: 1h
//
//	journal:
//	  backend: sqlite
//	  sqlite:
//	    path: data/journal.db
package config
