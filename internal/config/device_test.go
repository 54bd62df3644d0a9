package config

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paisatrail/paisatrail/internal/storage"
)

func newTestStore(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "config.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewDevice_ExplicitIDWins(t *testing.T) {
	d, err := NewDevice(context.Background(), newTestStore(t), "device-42", "tok")
	require.NoError(t, err)

	assert.Equal(t, "device-42", d.DeviceID())
	assert.Equal(t, "tok", d.AuthToken())
}

func TestNewDevice_InstallIDIsStable(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first, err := NewDevice(ctx, store, "", "")
	require.NoError(t, err)
	require.NotEmpty(t, first.DeviceID())

	second, err := NewDevice(ctx, store, "", "")
	require.NoError(t, err)
	assert.Equal(t, first.DeviceID(), second.DeviceID())
}

func TestNewDevice_NoStoreNoID(t *testing.T) {
	d, err := NewDevice(context.Background(), nil, "", "")
	require.NoError(t, err)
	assert.Empty(t, d.DeviceID())
}

func TestExpandPath(t *testing.T) {
	t.Setenv("PAISATRAIL_TEST_DIR", "/tmp/paisatrail")

	assert.Equal(t, "/tmp/paisatrail/data.db", ExpandPath("$PAISATRAIL_TEST_DIR/data.db"))
	assert.Equal(t, "", ExpandPath(""))
}
