// Package queue buffers mapped ingest events and delivers them in batches
// with bounded retry and exponential backoff. The queue tolerates long
// offline stretches: events stay put until a flush succeeds, exhausts its
// attempts, or hits a non-retryable rejection.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/paisatrail/paisatrail/internal/model"
	"github.com/paisatrail/paisatrail/internal/service"
)

// SendFunc delivers one batch of events. Delivery is all-or-nothing per
// batch: a nil return acknowledges every event in it.
type SendFunc func(ctx context.Context, events []model.IngestEvent) error

// Config tunes batching and backoff.
type Config struct {
	MaxBatchSize   int
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Jitter         time.Duration
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		MaxBatchSize:   20,
		MaxAttempts:    5,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     5 * time.Minute,
		Jitter:         500 * time.Millisecond,
	}
}

// Queue is a FIFO delivery buffer. It is owned by a single orchestrator and
// is not safe for concurrent use; the orchestrator's single-worker model
// serializes access.
type Queue struct {
	store  service.Storage
	rng    *rand.Rand
	events []*model.QueuedEvent
	cfg    Config
}

// New creates a Queue. A non-nil store makes every mutation write through
// to persistence so queued events survive restarts; a nil store keeps the
// queue memory-only.
func New(cfg Config, store service.Storage) *Queue {
	def := DefaultConfig()
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = def.MaxBatchSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}
	// Jitter zero means "use the default"; a negative value disables it,
	// which keeps backoff deterministic in tests.
	if cfg.Jitter == 0 {
		cfg.Jitter = def.Jitter
	} else if cfg.Jitter < 0 {
		cfg.Jitter = 0
	}
	return &Queue{
		cfg:   cfg,
		store: store,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Len reports how many events are currently queued.
func (q *Queue) Len() int {
	return len(q.events)
}

// Load restores persisted queued events, preserving enqueue order and
// attempt counts. It is a no-op without a store.
func (q *Queue) Load(ctx context.Context) error {
	if q.store == nil {
		return nil
	}
	persisted, err := q.store.ListQueuedEvents(ctx)
	if err != nil {
		return fmt.Errorf("failed to load queued events: %w", err)
	}
	q.events = q.events[:0]
	for i := range persisted {
		q.events = append(q.events, &persisted[i])
	}
	return nil
}

// Enqueue appends an event, due immediately.
func (q *Queue) Enqueue(ctx context.Context, event model.IngestEvent, now time.Time) {
	qe := &model.QueuedEvent{
		Event:         event,
		EnqueuedAt:    now,
		NextAttemptAt: now,
		AttemptCount:  0,
	}
	q.events = append(q.events, qe)
	if q.store != nil {
		if err := q.store.SaveQueuedEvent(ctx, qe); err != nil {
			slog.Warn("failed to persist queued event", "event_id", event.EventID, "error", err)
		}
	}
}

// Flush selects up to MaxBatchSize due events in FIFO order and hands them
// to send exactly once. Every event entering the flush ends in exactly one
// of sent, retry-scheduled, or dropped; events not yet due are untouched.
func (q *Queue) Flush(ctx context.Context, send SendFunc, now time.Time) service.FlushResult {
	batch := q.dueBatch(now)
	if len(batch) == 0 {
		return service.FlushResult{Queued: len(q.events)}
	}

	events := make([]model.IngestEvent, len(batch))
	for i, qe := range batch {
		events[i] = qe.Event
	}

	err := send(ctx, events)
	if err == nil {
		q.remove(ctx, batch)
		return service.FlushResult{Sent: len(batch), Queued: len(q.events)}
	}

	result := service.FlushResult{}
	canRetry := retryable(err)
	var dropped []*model.QueuedEvent
	for _, qe := range batch {
		qe.AttemptCount++
		if !canRetry || qe.AttemptCount >= q.cfg.MaxAttempts {
			dropped = append(dropped, qe)
			result.Dropped++
			continue
		}
		qe.NextAttemptAt = now.Add(q.backoff(qe.AttemptCount))
		result.RetryScheduled++
		if q.store != nil {
			if uerr := q.store.UpdateQueuedEvent(ctx, qe.Event.EventID, qe.AttemptCount, qe.NextAttemptAt); uerr != nil {
				slog.Warn("failed to persist retry schedule", "event_id", qe.Event.EventID, "error", uerr)
			}
		}
	}
	q.remove(ctx, dropped)

	slog.Debug("flush failed",
		"error", err,
		"retryable", canRetry,
		"retry_scheduled", result.RetryScheduled,
		"dropped", result.Dropped)

	result.Queued = len(q.events)
	return result
}

// dueBatch returns up to MaxBatchSize events with NextAttemptAt <= now,
// preserving relative order.
func (q *Queue) dueBatch(now time.Time) []*model.QueuedEvent {
	var batch []*model.QueuedEvent
	for _, qe := range q.events {
		if qe.NextAttemptAt.After(now) {
			continue
		}
		batch = append(batch, qe)
		if len(batch) == q.cfg.MaxBatchSize {
			break
		}
	}
	return batch
}

func (q *Queue) remove(ctx context.Context, gone []*model.QueuedEvent) {
	if len(gone) == 0 {
		return
	}
	drop := make(map[*model.QueuedEvent]bool, len(gone))
	for _, qe := range gone {
		drop[qe] = true
	}
	kept := q.events[:0]
	for _, qe := range q.events {
		if drop[qe] {
			if q.store != nil {
				if err := q.store.DeleteQueuedEvent(ctx, qe.Event.EventID); err != nil {
					slog.Warn("failed to delete persisted event", "event_id", qe.Event.EventID, "error", err)
				}
			}
			continue
		}
		kept = append(kept, qe)
	}
	q.events = kept
}

// backoff doubles per attempt up to the cap, plus uniform jitter.
func (q *Queue) backoff(attemptCount int) time.Duration {
	d := q.cfg.InitialBackoff << (attemptCount - 1)
	if d > q.cfg.MaxBackoff || d <= 0 {
		d = q.cfg.MaxBackoff
	}
	if q.cfg.Jitter > 0 {
		d += time.Duration(q.rng.Int63n(int64(q.cfg.Jitter)))
	}
	return d
}

// retryable classifies a delivery error. HTTP 5xx and 429 responses and
// transport-level failures are worth retrying; any other 4xx is a permanent
// rejection.
func retryable(err error) bool {
	var sc interface{ StatusCode() int }
	if errors.As(err, &sc) {
		code := sc.StatusCode()
		if code >= 400 && code < 500 && code != 429 {
			return false
		}
	}
	return true
}
