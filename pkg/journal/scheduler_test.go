package journal

import (
	"context"
	"testing"
	"time"

	"github.com/ForLess01/API-RALF/pkg/config"
)

func TestScheduler_Start(t *testing.T) {
	tests := []struct {
		name        string
		schedule    string
		wantRunning bool
		wantError   bool
	}{
		{"daily schedule", "0 3 * * *", true, false},
		{"descriptor", "@hourly", true, false},
		{"empty schedule disables", "", false, false},
		{"invalid schedule", "every tuesday", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPruner(NewMemoryStore(0), config.RetentionConfig{Days: 7, PruneSchedule: tt.schedule})
			s := NewScheduler(p)
			defer s.Stop()

			err := s.Start(context.Background())
			if (err != nil) != tt.wantError {
				t.Fatalf("Start() error = %v, wantError %v", err, tt.wantError)
			}
			if s.IsRunning() != tt.wantRunning {
				t.Errorf("IsRunning() = %v, want %v", s.IsRunning(), tt.wantRunning)
			}

			next := s.NextRun()
			if tt.wantRunning && (next == nil || !next.After(time.Now())) {
				t.Errorf("NextRun() = %v, want a future time", next)
			}
			if !tt.wantRunning && next != nil {
				t.Errorf("NextRun() = %v, want nil", next)
			}
		})
	}
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	p := NewPruner(NewMemoryStore(0), config.RetentionConfig{PruneSchedule: "@daily"})
	s := NewScheduler(p)

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for s.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("scheduler still running after context cancel")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestScheduler_RunPrunes(t *testing.T) {
	store := NewMemoryStore(0)
	seed(t, store)

	p := NewPruner(store, config.RetentionConfig{MaxRecords: 2, PruneSchedule: "@every 1h"})
	s := NewScheduler(p)
	s.run(context.Background())

	n, _ := store.Count(context.Background(), nil)
	if n != 2 {
		t.Errorf("%d records left after run, want 2", n)
	}
}
