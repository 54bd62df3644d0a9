// Package ingest drives the notification-to-transaction pipeline: it polls
// the OS notification observer, maps captures into events, dedupes them,
// and flushes the delivery queue.
package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/paisatrail/paisatrail/internal/mapper"
	"github.com/paisatrail/paisatrail/internal/model"
	"github.com/paisatrail/paisatrail/internal/queue"
	"github.com/paisatrail/paisatrail/internal/service"
	"github.com/paisatrail/paisatrail/internal/telemetry"
)

// BatchSender delivers one batch of events to the backend.
type BatchSender interface {
	SendBatch(ctx context.Context, deviceID string, events []model.IngestEvent) (*service.BatchResponse, error)
}

// Config tunes the polling loop.
type Config struct {
	// PollInterval is the fixed tick interval. Defaults to 3s.
	PollInterval time.Duration
	// SeenRetention bounds the seen-fingerprint cache. Defaults to 6h.
	SeenRetention time.Duration
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		PollInterval:  3 * time.Second,
		SeenRetention: 6 * time.Hour,
	}
}

// Orchestrator owns the seen-fingerprint cache and the delivery queue.
// Exactly one orchestrator may run against a given notification source and
// queue; a second instance would double-count captures.
type Orchestrator struct {
	mapper    *mapper.Mapper
	queue     *queue.Queue
	source    service.NotificationSource
	device    service.DeviceContext
	sender    BatchSender
	telemetry telemetry.Emitter
	now       func() time.Time

	seen          map[string]time.Time
	lastSignature string

	cancel  context.CancelFunc
	done    chan struct{}
	cfg     Config
	stateMu sync.Mutex
	tickMu  sync.Mutex
	running bool
}

// New creates an orchestrator. telemetryEmitter may be nil, which disables
// telemetry.
func New(cfg Config, m *mapper.Mapper, q *queue.Queue, source service.NotificationSource, device service.DeviceContext, sender BatchSender, telemetryEmitter telemetry.Emitter) *Orchestrator {
	def := DefaultConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.SeenRetention <= 0 {
		cfg.SeenRetention = def.SeenRetention
	}
	if telemetryEmitter == nil {
		telemetryEmitter = telemetry.SlogEmitter{}
	}
	return &Orchestrator{
		cfg:       cfg,
		mapper:    m,
		queue:     q,
		source:    source,
		device:    device,
		sender:    sender,
		telemetry: telemetryEmitter,
		now:       time.Now,
		seen:      make(map[string]time.Time),
	}
}

// Running reports whether the polling loop is active.
func (o *Orchestrator) Running() bool {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()
	return o.running
}

// Start begins polling: one immediate tick, then one per interval. Calling
// Start while running is a no-op.
func (o *Orchestrator) Start(ctx context.Context) {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()
	if o.running {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.done = make(chan struct{})
	o.running = true
	go o.run(runCtx)
	slog.Info("ingest orchestrator started", "poll_interval", o.cfg.PollInterval)
}

// Stop cancels the timer and waits for the loop to exit. An in-flight flush
// is allowed to complete or fail normally; it is not aborted. Calling Stop
// while idle is a no-op.
func (o *Orchestrator) Stop() {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()
	if !o.running {
		return
	}
	o.cancel()
	<-o.done
	o.running = false
	slog.Info("ingest orchestrator stopped")
}

func (o *Orchestrator) run(ctx context.Context) {
	defer close(o.done)

	// Tick work must survive Stop's cancellation: the timer dies, an
	// in-flight delivery does not.
	tickCtx := context.WithoutCancel(ctx)
	o.RunOnce(tickCtx)

	ticker := time.NewTicker(o.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.RunOnce(tickCtx)
		}
	}
}

// RunOnce executes a single tick. Ticks never overlap: if a previous tick is
// still in flight (a slow delivery call), this one is skipped entirely.
// No failure inside a tick propagates to the caller.
func (o *Orchestrator) RunOnce(ctx context.Context) {
	if !o.tickMu.TryLock() {
		return
	}
	defer o.tickMu.Unlock()

	now := o.now()
	o.evictSeen(now)

	if !o.source.AccessEnabled() {
		// Without notification access there is nothing to parse and no
		// point burning the radio on delivery.
		return
	}

	o.captureLatest(now)
	o.flush(ctx, now)
}

// captureLatest reads the single most-recent notification and runs it
// through the mapper if it has not been processed before.
func (o *Orchestrator) captureLatest(now time.Time) {
	n, err := o.source.LastCaptured()
	if err != nil {
		slog.Warn("failed to read captured notification", "error", err)
		return
	}
	if n == nil {
		return
	}

	sig := n.Signature()
	if sig == o.lastSignature {
		return
	}
	o.lastSignature = sig

	event := o.mapper.Map(*n)
	if event == nil {
		o.telemetry.Emit(telemetry.EventParseFailed, map[string]any{
			"package": n.PackageName,
		})
		return
	}

	if _, dup := o.seen[event.Fingerprint]; dup {
		o.telemetry.Emit(telemetry.EventDuplicateDropped, map[string]any{
			"fingerprint": event.Fingerprint,
		})
		return
	}

	o.seen[event.Fingerprint] = now
	o.queue.Enqueue(context.Background(), *event, now)
	o.telemetry.Emit(telemetry.EventEnqueued, map[string]any{
		"event_id":    event.EventID,
		"fingerprint": event.Fingerprint,
	})
}

// flush delivers due events when a device id is available. Without one,
// queued events persist untouched.
func (o *Orchestrator) flush(ctx context.Context, now time.Time) {
	deviceID := o.device.DeviceID()
	if deviceID == "" {
		return
	}

	res := o.queue.Flush(ctx, func(ctx context.Context, events []model.IngestEvent) error {
		_, err := o.sender.SendBatch(ctx, deviceID, events)
		return err
	}, now)

	if res.Sent > 0 {
		o.telemetry.Emit(telemetry.EventFlushSucceeded, map[string]any{
			"sent": res.Sent,
		})
	}
	o.telemetry.Emit(telemetry.EventQueueSizeSample, map[string]any{
		"queued": res.Queued,
	})
}

// evictSeen drops fingerprints older than the retention window.
func (o *Orchestrator) evictSeen(now time.Time) {
	for fp, seenAt := range o.seen {
		if now.Sub(seenAt) > o.cfg.SeenRetention {
			delete(o.seen, fp)
		}
	}
}
