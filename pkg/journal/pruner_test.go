package journal

import (
	"context"
	"testing"
	"time"

	"github.com/ForLess01/API-RALF/pkg/config"
)

func TestPruner_Prune(t *testing.T) {
	// seed() writes five records one minute apart starting at baseTime.
	now := baseTime.AddDate(0, 0, 1).Add(150 * time.Second)

	tests := []struct {
		name        string
		config      config.RetentionConfig
		wantDeleted int64
		wantLeft    int64
	}{
		{"no policy keeps everything", config.RetentionConfig{}, 0, 5},
		{"age only", config.RetentionConfig{Days: 1}, 3, 2},
		{"count only", config.RetentionConfig{MaxRecords: 4}, 1, 4},
		{"age then count", config.RetentionConfig{Days: 1, MaxRecords: 1}, 4, 1},
		{"count above total", config.RetentionConfig{MaxRecords: 100}, 0, 5},
	}

	for name := range stores(t) {
		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				var s Store = NewMemoryStore(0)
				if name == "sqlite" {
					s = newSQLiteTestStore(t)
				}
				seed(t, s)

				p := NewPruner(s, tt.config)
				p.now = func() time.Time { return now }

				deleted, err := p.Prune(context.Background())
				if err != nil {
					t.Fatalf("Prune() error = %v", err)
				}
				if deleted != tt.wantDeleted {
					t.Errorf("Prune() = %d, want %d", deleted, tt.wantDeleted)
				}

				left, _ := s.Count(context.Background(), nil)
				if left != tt.wantLeft {
					t.Errorf("%d records left, want %d", left, tt.wantLeft)
				}
			})
		}
	}
}
