package config

import (
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	current   atomic.Pointer[Config]
	initOnce  sync.Once
	reloadMu  sync.Mutex
	overrides []func(*Config)
)

// Initialize loads the configuration at path (environment overrides
// applied) and installs it as the process configuration. Only the first
// call has any effect.
func Initialize(path string) error {
	var initErr error

	initOnce.Do(func() {
		cfg, err := LoadConfigWithEnvOverrides(path)
		if err != nil {
			initErr = err
			return
		}
		current.Store(cfg)
	})

	return initErr
}

// GetConfig returns the process configuration, or nil before Initialize.
func GetConfig() *Config {
	return current.Load()
}

// SetConfig replaces the process configuration. Intended for tests.
func SetConfig(cfg *Config) {
	current.Store(cfg)
}

// SetOverrides registers adjustments applied to the current configuration
// now and to every configuration ReloadConfig loads afterwards, so command
// line flags survive a reload. A later call replaces earlier overrides.
func SetOverrides(fns ...func(*Config)) {
	reloadMu.Lock()
	defer reloadMu.Unlock()

	overrides = fns
	if cfg := current.Load(); cfg != nil {
		for _, fn := range overrides {
			fn(cfg)
		}
	}
}

// ReloadConfig loads path again, applies the registered overrides and
// swaps the result in. It returns the configuration it replaced. On error
// the current configuration stays in place.
func ReloadConfig(path string) (previous, next *Config, err error) {
	reloadMu.Lock()
	defer reloadMu.Unlock()

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to reload configuration: %w", err)
	}
	for _, fn := range overrides {
		fn(cfg)
	}
	if err := Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to reload configuration: %w", err)
	}

	return current.Swap(cfg), cfg, nil
}
