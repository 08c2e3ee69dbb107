package journal

import (
	"fmt"

	"github.com/ForLess01/API-RALF/pkg/config"
)

// Open creates the store selected by cfg.Backend.
func Open(cfg config.JournalConfig) (Store, error) {
	switch cfg.Backend {
	case "", backendMemory:
		return NewMemoryStore(cfg.Memory.MaxRecords), nil
	case backendSQLite:
		return NewSQLiteStore(cfg.SQLite)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
