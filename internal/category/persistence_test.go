package category

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paisatrail/paisatrail/internal/model"
	"github.com/paisatrail/paisatrail/internal/storage"
)

func TestSuggester_FeedbackSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "category.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(func() { _ = store.Close() })

	s, err := NewSuggester(ctx, store)
	require.NoError(t, err)
	require.NoError(t, s.RecordFeedback(ctx, "Blue Tokai", model.CategoryFood))
	require.NoError(t, s.RecordFeedback(ctx, "Blue Tokai", model.CategoryFood))

	restarted, err := NewSuggester(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, 1, restarted.FeedbackCount())

	got := restarted.Suggest(model.DirectionDebit, "Blue Tokai", "")
	assert.Equal(t, model.CategoryFood, got.Category)
	assert.Equal(t, model.SourceFeedback, got.Source)
	// One repeat correction on top of the base entry.
	assert.InDelta(t, 0.87, got.Confidence, 1e-9)
}
