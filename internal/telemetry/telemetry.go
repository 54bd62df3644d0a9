// Package telemetry emits named pipeline events. Telemetry is the only
// surface on which parse failures, duplicate drops, and delivery outcomes
// are observable; nothing in the pipeline reports errors to the user
// directly.
package telemetry

import (
	"log/slog"
	"sync"
	"time"
)

// Ingestion pipeline event names.
const (
	EventParseFailed      = "ingest_parse_failed"
	EventDuplicateDropped = "ingest_duplicate_dropped"
	EventEnqueued         = "ingest_event_enqueued"
	EventFlushSucceeded   = "ingest_flush_succeeded"
	EventQueueSizeSample  = "ingest_queue_size_sample"
)

// Emitter receives telemetry events.
type Emitter interface {
	Emit(name string, props map[string]any)
}

// SlogEmitter logs telemetry events through the default slog logger.
type SlogEmitter struct{}

// Emit logs the event at debug level with its properties as attrs.
func (SlogEmitter) Emit(name string, props map[string]any) {
	attrs := make([]any, 0, len(props)*2)
	for k, v := range props {
		attrs = append(attrs, k, v)
	}
	slog.Debug(name, attrs...)
}

// Event is a recorded telemetry event.
type Event struct {
	At    time.Time
	Props map[string]any
	Name  string
}

// Recorder captures events in memory for tests and diagnostics.
type Recorder struct {
	events []Event
	mu     sync.Mutex
}

// Emit records the event.
func (r *Recorder) Emit(name string, props map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Name: name, Props: props, At: time.Now()})
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many events with the given name were recorded.
func (r *Recorder) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Name == name {
			n++
		}
	}
	return n
}
