package ingest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paisatrail/paisatrail/internal/category"
	"github.com/paisatrail/paisatrail/internal/mapper"
	"github.com/paisatrail/paisatrail/internal/model"
	"github.com/paisatrail/paisatrail/internal/parser"
	"github.com/paisatrail/paisatrail/internal/queue"
	"github.com/paisatrail/paisatrail/internal/service"
	"github.com/paisatrail/paisatrail/internal/telemetry"
)

type fakeSource struct {
	notification *model.RawNotification
	err          error
	enabled      bool
}

func (f *fakeSource) AccessEnabled() bool { return f.enabled }

func (f *fakeSource) LastCaptured() (*model.RawNotification, error) {
	return f.notification, f.err
}

type fakeDevice struct {
	id    string
	token string
}

func (f *fakeDevice) DeviceID() string  { return f.id }
func (f *fakeDevice) AuthToken() string { return f.token }

type fakeSender struct {
	err     error
	batches [][]model.IngestEvent
	mu      sync.Mutex
}

func (f *fakeSender) SendBatch(_ context.Context, _ string, events []model.IngestEvent) (*service.BatchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.batches = append(f.batches, events)
	return &service.BatchResponse{Accepted: len(events)}, nil
}

func (f *fakeSender) delivered() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

type fixture struct {
	orchestrator *Orchestrator
	source       *fakeSource
	device       *fakeDevice
	sender       *fakeSender
	recorder     *telemetry.Recorder
	clock        *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	suggester, err := category.NewSuggester(context.Background(), nil)
	require.NoError(t, err)

	source := &fakeSource{enabled: true}
	device := &fakeDevice{id: "device-1"}
	sender := &fakeSender{}
	recorder := &telemetry.Recorder{}

	o := New(
		Config{},
		mapper.New(parser.New(), suggester),
		queue.New(queue.Config{Jitter: -1}, nil),
		source,
		device,
		sender,
		recorder,
	)

	now := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	clock := &now
	o.now = func() time.Time { return *clock }

	return &fixture{
		orchestrator: o,
		source:       source,
		device:       device,
		sender:       sender,
		recorder:     recorder,
		clock:        clock,
	}
}

func gpayNotification(body string, postedAt time.Time) *model.RawNotification {
	return &model.RawNotification{
		PackageName: "com.google.android.apps.nbu.paisa.user",
		Title:       "Google Pay",
		Body:        body,
		PostedAt:    postedAt.UnixMilli(),
	}
}

func TestRunOnce_EnqueuesAndDelivers(t *testing.T) {
	f := newFixture(t)
	f.source.notification = gpayNotification("Paid ₹250 to ABC Store via UPI Ref 123456789012", *f.clock)

	f.orchestrator.RunOnce(context.Background())

	assert.Equal(t, 1, f.recorder.Count(telemetry.EventEnqueued))
	assert.Equal(t, 1, f.recorder.Count(telemetry.EventFlushSucceeded))
	assert.Equal(t, 1, f.recorder.Count(telemetry.EventQueueSizeSample))
	assert.Equal(t, 1, f.sender.delivered())
}

func TestRunOnce_SameSignatureEnqueuedOnce(t *testing.T) {
	f := newFixture(t)
	f.source.notification = gpayNotification("Paid ₹250 to ABC Store via UPI Ref 123456789012", *f.clock)

	f.orchestrator.RunOnce(context.Background())
	*f.clock = f.clock.Add(3 * time.Second)
	f.orchestrator.RunOnce(context.Background())

	assert.Equal(t, 1, f.recorder.Count(telemetry.EventEnqueued))
	assert.Equal(t, 1, f.sender.delivered())
	// The queue size sample is still emitted every delivering tick.
	assert.Equal(t, 2, f.recorder.Count(telemetry.EventQueueSizeSample))
}

func TestRunOnce_DuplicateFingerprintDropped(t *testing.T) {
	f := newFixture(t)
	body := "Paid ₹250 to ABC Store via UPI Ref 123456789012"

	// Same transaction observed twice with different posted timestamps in
	// the same minute: new signature, same fingerprint.
	f.source.notification = gpayNotification(body, *f.clock)
	f.orchestrator.RunOnce(context.Background())

	f.source.notification = gpayNotification(body, f.clock.Add(10*time.Second))
	*f.clock = f.clock.Add(3 * time.Second)
	f.orchestrator.RunOnce(context.Background())

	assert.Equal(t, 1, f.recorder.Count(telemetry.EventEnqueued))
	assert.Equal(t, 1, f.recorder.Count(telemetry.EventDuplicateDropped))
	assert.Equal(t, 1, f.sender.delivered())
}

func TestRunOnce_SeenCacheEvictionAllowsReingestion(t *testing.T) {
	f := newFixture(t)
	body := "Paid ₹250 to ABC Store via UPI Ref 123456789012"
	first := *f.clock

	f.source.notification = gpayNotification(body, first)
	f.orchestrator.RunOnce(context.Background())
	require.Equal(t, 1, f.recorder.Count(telemetry.EventEnqueued))

	// Well past the retention window the fingerprint cache is evicted, but
	// the same minute bucket still yields the same fingerprint.
	*f.clock = f.clock.Add(7 * time.Hour)
	f.source.notification = gpayNotification(body, first.Add(5*time.Second))
	f.orchestrator.RunOnce(context.Background())

	assert.Equal(t, 2, f.recorder.Count(telemetry.EventEnqueued))
	assert.Equal(t, 0, f.recorder.Count(telemetry.EventDuplicateDropped))
}

func TestRunOnce_ParseFailureEmitsTelemetryOnly(t *testing.T) {
	f := newFixture(t)
	f.source.notification = &model.RawNotification{
		PackageName: "com.example.chat",
		Title:       "New message",
		Body:        "hello",
		PostedAt:    f.clock.UnixMilli(),
	}

	f.orchestrator.RunOnce(context.Background())

	assert.Equal(t, 1, f.recorder.Count(telemetry.EventParseFailed))
	assert.Equal(t, 0, f.recorder.Count(telemetry.EventEnqueued))
	assert.Equal(t, 0, f.sender.delivered())
}

func TestRunOnce_AccessDisabledSkipsEverything(t *testing.T) {
	f := newFixture(t)
	f.source.enabled = false
	f.source.notification = gpayNotification("Paid ₹250 to ABC Store via UPI Ref 123456789012", *f.clock)

	f.orchestrator.RunOnce(context.Background())

	assert.Empty(t, f.recorder.Events())
	assert.Equal(t, 0, f.sender.delivered())
}

func TestRunOnce_NoDeviceIDSkipsDelivery(t *testing.T) {
	f := newFixture(t)
	f.device.id = ""
	f.source.notification = gpayNotification("Paid ₹250 to ABC Store via UPI Ref 123456789012", *f.clock)

	f.orchestrator.RunOnce(context.Background())

	assert.Equal(t, 1, f.recorder.Count(telemetry.EventEnqueued))
	assert.Equal(t, 0, f.sender.delivered())
	assert.Equal(t, 0, f.recorder.Count(telemetry.EventQueueSizeSample))

	// Once a device id appears, the queued event is delivered.
	f.device.id = "device-1"
	f.source.notification = nil
	*f.clock = f.clock.Add(3 * time.Second)
	f.orchestrator.RunOnce(context.Background())

	assert.Equal(t, 1, f.sender.delivered())
}

func TestRunOnce_SourceErrorDoesNotStopDelivery(t *testing.T) {
	f := newFixture(t)
	f.source.notification = gpayNotification("Paid ₹250 to ABC Store via UPI Ref 123456789012", *f.clock)
	f.orchestrator.RunOnce(context.Background())
	require.Equal(t, 1, f.sender.delivered())

	f.source.err = assert.AnError
	f.source.notification = nil
	*f.clock = f.clock.Add(3 * time.Second)
	f.orchestrator.RunOnce(context.Background())

	// The tick survives the source error and still samples the queue.
	assert.Equal(t, 2, f.recorder.Count(telemetry.EventQueueSizeSample))
}

func TestStartStop_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.orchestrator.cfg.PollInterval = 10 * time.Millisecond

	ctx := context.Background()
	assert.False(t, f.orchestrator.Running())

	f.orchestrator.Start(ctx)
	f.orchestrator.Start(ctx) // no-op
	assert.True(t, f.orchestrator.Running())

	f.orchestrator.Stop()
	assert.False(t, f.orchestrator.Running())
	f.orchestrator.Stop() // no-op
	assert.False(t, f.orchestrator.Running())
}

func TestStart_RunsImmediateTick(t *testing.T) {
	f := newFixture(t)
	f.orchestrator.cfg.PollInterval = time.Hour // only the immediate tick can fire
	f.source.notification = gpayNotification("Paid ₹250 to ABC Store via UPI Ref 123456789012", *f.clock)

	f.orchestrator.Start(context.Background())
	defer f.orchestrator.Stop()

	require.Eventually(t, func() bool {
		return f.sender.delivered() == 1
	}, time.Second, 5*time.Millisecond)
}
