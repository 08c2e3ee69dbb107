package journal

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ForLess01/API-RALF/pkg/config"
	"github.com/ForLess01/API-RALF/pkg/routing"
	"github.com/ForLess01/API-RALF/pkg/telemetry/logging"
)

// Recorder writes dispatch outcomes to a Store from a background worker. It
// implements routing.Observer; DispatchFinished never blocks the dispatcher.
type Recorder struct {
	store        Store
	writeTimeout time.Duration
	records      chan *Record
	done         chan struct{}
	closeOnce    sync.Once
	wg           sync.WaitGroup
	dropped      atomic.Int64
	logger       *slog.Logger
}

var _ routing.Observer = (*Recorder)(nil)

// NewRecorder starts a recorder writing to store.
func NewRecorder(store Store, cfg config.RecorderConfig) *Recorder {
	if cfg.AsyncBuffer <= 0 {
		cfg.AsyncBuffer = config.DefaultJournalAsyncBuffer
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = config.DefaultJournalWriteTimeout
	}

	r := &Recorder{
		store:        store,
		writeTimeout: cfg.WriteTimeout,
		records:      make(chan *Record, cfg.AsyncBuffer),
		done:         make(chan struct{}),
		logger:       slog.Default().With("component", "journal.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	return r
}

// AttemptFinished is a no-op; the journal keeps one record per dispatch.
func (r *Recorder) AttemptFinished(string, string, time.Duration) {}

// CooldownStarted is a no-op.
func (r *Recorder) CooldownStarted(string, time.Time) {}

// DispatchFinished enqueues a record for rec. When the buffer is full the
// record is dropped and counted.
func (r *Recorder) DispatchFinished(ctx context.Context, rec routing.DispatchRecord) {
	record := NewRecord(logging.RequestID(ctx), rec)

	select {
	case <-r.done:
		r.logger.Warn("recorder closed, dropping record",
			"record_id", record.ID,
			"request_id", record.RequestID,
		)
		r.dropped.Add(1)
		return
	default:
	}

	select {
	case r.records <- record:
	default:
		r.dropped.Add(1)
		r.logger.Error("journal buffer full, dropping record",
			"record_id", record.ID,
			"request_id", record.RequestID,
			"capacity", cap(r.records),
		)
	}
}

// Dropped returns the number of records that could not be enqueued.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Close stops accepting records, drains the buffer and waits for pending
// writes. It does not close the store.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
		r.logger.Info("journal recorder stopped", "dropped", r.dropped.Load())
	})
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.records:
			r.write(record)
		case <-r.done:
			for {
				select {
				case record := <-r.records:
					r.write(record)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(record *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
	defer cancel()

	start := time.Now()
	if err := r.store.Store(ctx, record); err != nil {
		r.logger.Error("failed to store journal record",
			"record_id", record.ID,
			"request_id", record.RequestID,
			"error", err,
		)
		return
	}

	elapsed := time.Since(start)
	r.logger.Debug("dispatch journaled",
		"record_id", record.ID,
		"request_id", record.RequestID,
		"outcome", record.Outcome,
		"backend", record.Backend,
	)
	if elapsed > r.writeTimeout/2 {
		r.logger.Warn("slow journal write",
			"record_id", record.ID,
			"duration_ms", elapsed.Milliseconds(),
			"threshold_ms", (r.writeTimeout / 2).Milliseconds(),
		)
	}
}

// NewRecord converts a dispatch summary into a journal record with a fresh ID.
func NewRecord(requestID string, rec routing.DispatchRecord) *Record {
	return &Record{
		ID:          uuid.NewString(),
		RequestID:   requestID,
		StartedAt:   rec.StartedAt.UTC(),
		RecordedAt:  time.Now().UTC(),
		StartIndex:  rec.StartIndex,
		Outcome:     rec.Outcome,
		Reason:      rec.Reason,
		Backend:     rec.Backend,
		Attempted:   nonNil(append([]string(nil), rec.Attempted...)),
		RateLimited: nonNil(append([]string(nil), rec.RateLimited...)),
		Error:       rec.Error,
		StatusCode:  rec.StatusCode,
		DurationMS:  rec.Duration.Milliseconds(),
	}
}
