package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paisatrail/paisatrail/internal/model"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStorage(t)
	assert.NoError(t, s.Migrate(context.Background()))
}

func TestFeedback_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	missing, err := s.GetFeedback(ctx, "abc store")
	require.NoError(t, err)
	assert.Nil(t, missing)

	entry := &model.FeedbackEntry{
		MerchantKey:     "abc store",
		Category:        model.CategoryBills,
		CorrectionCount: 2,
		LastUpdated:     time.Now(),
	}
	require.NoError(t, s.SaveFeedback(ctx, entry))

	got, err := s.GetFeedback(ctx, "abc store")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.CategoryBills, got.Category)
	assert.Equal(t, 2, got.CorrectionCount)
}

func TestFeedback_UpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	require.NoError(t, s.SaveFeedback(ctx, &model.FeedbackEntry{
		MerchantKey: "abc store",
		Category:    model.CategoryBills,
	}))
	require.NoError(t, s.SaveFeedback(ctx, &model.FeedbackEntry{
		MerchantKey:     "abc store",
		Category:        model.CategoryFood,
		CorrectionCount: 1,
	}))

	all, err := s.GetAllFeedback(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, model.CategoryFood, all[0].Category)
	assert.Equal(t, 1, all[0].CorrectionCount)
}

func TestFeedback_Validation(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	assert.ErrorIs(t, s.SaveFeedback(ctx, nil), ErrNilParameter)
	assert.ErrorIs(t, s.SaveFeedback(ctx, &model.FeedbackEntry{
		MerchantKey: "abc store",
		Category:    "Groceries",
	}), ErrInvalidFeedback)
}

func TestQueuedEvents_RoundTripPreservesOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"evt_a", "evt_b", "evt_c"} {
		require.NoError(t, s.SaveQueuedEvent(ctx, &model.QueuedEvent{
			Event:         model.IngestEvent{EventID: id, SourceApp: model.AppGPay},
			EnqueuedAt:    base.Add(time.Duration(i) * time.Second),
			NextAttemptAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	events, err := s.ListQueuedEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "evt_a", events[0].Event.EventID)
	assert.Equal(t, "evt_c", events[2].Event.EventID)
}

func TestQueuedEvents_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, s.SaveQueuedEvent(ctx, &model.QueuedEvent{
		Event:         model.IngestEvent{EventID: "evt_a"},
		EnqueuedAt:    now,
		NextAttemptAt: now,
	}))

	next := now.Add(4 * time.Second)
	require.NoError(t, s.UpdateQueuedEvent(ctx, "evt_a", 2, next))

	events, err := s.ListQueuedEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 2, events[0].AttemptCount)
	assert.True(t, events[0].NextAttemptAt.Equal(next))

	require.NoError(t, s.DeleteQueuedEvent(ctx, "evt_a"))
	events, err = s.ListQueuedEvents(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestIngestedEvents_DedupeByEventID(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	event := model.IngestEvent{EventID: "evt_01020304", SourceApp: model.AppGPay, ReceivedAt: "2025-06-01T10:30:00Z"}

	inserted, err := s.InsertIngestedEvent(ctx, "device-1", event)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = s.InsertIngestedEvent(ctx, "device-1", event)
	require.NoError(t, err)
	assert.False(t, inserted)

	count, err := s.CountIngestedEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSettings_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	value, err := s.GetSetting(ctx, "install_id")
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, s.SetSetting(ctx, "install_id", "abc-123"))
	require.NoError(t, s.SetSetting(ctx, "install_id", "def-456"))

	value, err = s.GetSetting(ctx, "install_id")
	require.NoError(t, err)
	assert.Equal(t, "def-456", value)
}
