package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := store.Load(ctx, RecordConnections)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SaveAll(ctx, map[string][]byte{
		RecordConnections: []byte(`[{"id":"1"}]`),
		RecordCompetitors: []byte(`[]`),
	}))
	data, ok, err := store.Load(ctx, RecordConnections)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[{"id":"1"}]`, string(data))

	require.NoError(t, store.SaveAll(ctx, map[string][]byte{
		RecordConnections: []byte(`[{"id":"2"}]`),
	}))
	data, _, err = store.Load(ctx, RecordConnections)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"2"}]`, string(data))

	data, ok, err = store.Load(ctx, RecordCompetitors)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[]`, string(data))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	exerciseStore(t, NewFileStore(filepath.Join(dir, "nested")))

	entries, err := os.ReadDir(filepath.Join(dir, "nested"))
	require.NoError(t, err)
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	assert.ElementsMatch(t, []string{"mi_connections.json", "mi_competitors.json"}, names)
}

func TestSQLStore(t *testing.T) {
	store, err := OpenSQLStore(context.Background(), filepath.Join(t.TempDir(), "settings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	exerciseStore(t, store)
}

func TestSQLStoreBacksManager(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLStore(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	m := NewManager(ManagerOptions{Store: store})
	s := m.Defaults()
	s, id := AddCompetitor(s)
	require.NoError(t, m.Save(ctx, s))

	loaded, report, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Missing)
	assert.Equal(t, s.Connections, loaded.Connections)
	assert.Equal(t, id, loaded.Competitors[0].ID)
}
