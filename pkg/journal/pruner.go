package journal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ForLess01/API-RALF/pkg/config"
)

// Pruner enforces the retention policy on a store.
type Pruner struct {
	store  Store
	config config.RetentionConfig
	now    func() time.Time
	logger *slog.Logger
}

// NewPruner creates a pruner for store.
func NewPruner(store Store, cfg config.RetentionConfig) *Pruner {
	return &Pruner{
		store:  store,
		config: cfg,
		now:    time.Now,
		logger: slog.Default().With("component", "journal.retention"),
	}
}

// Prune deletes records older than the retention period, then trims the
// store to the configured maximum count. It returns the number of records
// removed.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.Days > 0 {
		cutoff := p.now().AddDate(0, 0, -p.config.Days)
		deleted, err := p.store.Delete(ctx, &Query{Until: &cutoff})
		if err != nil {
			return total, fmt.Errorf("prune by age: %w", err)
		}
		total += deleted
		p.logger.Debug("pruned records by age",
			"deleted_count", deleted,
			"retention_days", p.config.Days,
		)
	}

	if p.config.MaxRecords > 0 {
		deleted, err := p.store.Trim(ctx, p.config.MaxRecords)
		if err != nil {
			return total, fmt.Errorf("prune by count: %w", err)
		}
		total += deleted
		p.logger.Debug("pruned records by count",
			"deleted_count", deleted,
			"max_records", p.config.MaxRecords,
		)
	}

	if total > 0 {
		p.logger.Info("journal pruning completed",
			"total_deleted", total,
			"retention_days", p.config.Days,
			"max_records", p.config.MaxRecords,
		)
	}
	return total, nil
}
