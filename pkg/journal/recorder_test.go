package journal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ForLess01/API-RALF/pkg/config"
	"github.com/ForLess01/API-RALF/pkg/routing"
	"github.com/ForLess01/API-RALF/pkg/telemetry/logging"
)

func TestRecorder_DispatchFinished(t *testing.T) {
	store := NewMemoryStore(0)
	rec := NewRecorder(store, config.RecorderConfig{AsyncBuffer: 10, WriteTimeout: time.Second})

	ctx := logging.WithRequestID(context.Background(), "req-42")
	rec.DispatchFinished(ctx, routing.DispatchRecord{
		StartIndex:  1,
		Outcome:     routing.OutcomeServed,
		Backend:     "openrouter",
		Attempted:   []string{"gemini", "openrouter"},
		RateLimited: []string{"gemini"},
		StartedAt:   baseTime,
		Duration:    1500 * time.Millisecond,
	})

	if err := rec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	got, err := store.Query(context.Background(), nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}

	r := got[0]
	if _, err := uuid.Parse(r.ID); err != nil {
		t.Errorf("ID %q is not a UUID: %v", r.ID, err)
	}
	if r.RequestID != "req-42" {
		t.Errorf("RequestID = %q", r.RequestID)
	}
	if r.Outcome != routing.OutcomeServed || r.Backend != "openrouter" || r.StartIndex != 1 {
		t.Errorf("unexpected record: %+v", r)
	}
	if r.DurationMS != 1500 {
		t.Errorf("DurationMS = %d, want 1500", r.DurationMS)
	}
	if len(r.RateLimited) != 1 || r.RateLimited[0] != "gemini" {
		t.Errorf("RateLimited = %v", r.RateLimited)
	}
}

func TestRecorder_CloseDrains(t *testing.T) {
	store := NewMemoryStore(0)
	rec := NewRecorder(store, config.RecorderConfig{AsyncBuffer: 100, WriteTimeout: time.Second})

	for i := 0; i < 50; i++ {
		rec.DispatchFinished(context.Background(), routing.DispatchRecord{
			Outcome:   routing.OutcomeExhausted,
			Reason:    routing.ReasonAllBusy,
			StartedAt: baseTime.Add(time.Duration(i) * time.Second),
		})
	}
	rec.Close()

	n, _ := store.Count(context.Background(), nil)
	if n+rec.Dropped() != 50 {
		t.Errorf("stored %d + dropped %d, want 50", n, rec.Dropped())
	}
	if rec.Dropped() != 0 {
		t.Errorf("Dropped() = %d with a buffer large enough", rec.Dropped())
	}
}

// blockingStore holds every write until release is closed.
type blockingStore struct {
	*MemoryStore
	release chan struct{}
	once    sync.Once
	started chan struct{}
}

func (s *blockingStore) Store(ctx context.Context, r *Record) error {
	s.once.Do(func() { close(s.started) })
	<-s.release
	return s.MemoryStore.Store(ctx, r)
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	store := &blockingStore{
		MemoryStore: NewMemoryStore(0),
		release:     make(chan struct{}),
		started:     make(chan struct{}),
	}
	rec := NewRecorder(store, config.RecorderConfig{AsyncBuffer: 1, WriteTimeout: time.Second})

	finish := func() {
		rec.DispatchFinished(context.Background(), routing.DispatchRecord{Outcome: routing.OutcomeServed, StartedAt: baseTime})
	}

	finish()
	<-store.started // worker is now blocked holding the first record

	done := make(chan struct{})
	go func() {
		finish() // fills the buffer
		finish() // dropped
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("DispatchFinished blocked on a full buffer")
	}

	if rec.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", rec.Dropped())
	}

	close(store.release)
	rec.Close()

	n, _ := store.Count(context.Background(), nil)
	if n != 2 {
		t.Errorf("stored %d records, want 2", n)
	}
}

func TestRecorder_AfterClose(t *testing.T) {
	store := NewMemoryStore(0)
	rec := NewRecorder(store, config.RecorderConfig{})
	rec.Close()
	rec.Close()

	rec.DispatchFinished(context.Background(), routing.DispatchRecord{Outcome: routing.OutcomeFailed})
	if rec.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", rec.Dropped())
	}
}

type failingStore struct{ *MemoryStore }

func (failingStore) Store(context.Context, *Record) error { return errors.New("disk full") }

func TestRecorder_StoreErrorIsLogged(t *testing.T) {
	rec := NewRecorder(failingStore{NewMemoryStore(0)}, config.RecorderConfig{})
	rec.DispatchFinished(context.Background(), routing.DispatchRecord{Outcome: routing.OutcomeServed})
	if err := rec.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestNewRecord(t *testing.T) {
	src := routing.DispatchRecord{
		Outcome:    routing.OutcomeFailed,
		Backend:    "gemini",
		Attempted:  []string{"gemini"},
		Error:      "Gemini API Error: 500",
		StatusCode: 500,
		StartedAt:  baseTime,
		Duration:   25 * time.Millisecond,
	}

	r := NewRecord("req-1", src)
	src.Attempted[0] = "mutated"

	if r.Attempted[0] != "gemini" {
		t.Error("record shares the Attempted slice with the dispatch record")
	}
	if r.RateLimited == nil {
		t.Error("RateLimited should be empty, not nil")
	}
	if r.StatusCode != 500 || r.Error == "" {
		t.Errorf("error details lost: %+v", r)
	}
	if NewRecord("req-1", src).ID == r.ID {
		t.Error("IDs must be unique")
	}
}
