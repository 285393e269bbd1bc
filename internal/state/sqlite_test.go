package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapsparql/internal/testutil"
	"github.com/leapstack-labs/leapsparql/pkg/capability"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(MemoryPath))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_OpenMigrates(t *testing.T) {
	store := setupTestStore(t)

	version, err := store.GetMigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	for _, table := range []string{"capabilities", "history"} {
		rows, err := store.db.Query("SELECT 1 FROM " + table + " LIMIT 1")
		require.NoError(t, err, "table %s", table)
		_ = rows.Close()
	}
}

func TestSQLiteStore_OpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")

	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(path))
	require.NoError(t, store.SaveCapabilities(context.Background(), &capability.Model{Available: true, Endpoint: "https://example.org/sparql"}))
	require.NoError(t, store.Close())

	reopened := NewSQLiteStore(nil)
	require.NoError(t, reopened.Open(path))
	defer func() { _ = reopened.Close() }()

	m, err := reopened.GetCapabilities(context.Background(), "https://example.org/sparql")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.True(t, m.Available)
	assert.Equal(t, path, reopened.Path())
}

func TestSQLiteStore_NotOpen(t *testing.T) {
	store := NewSQLiteStore(nil)
	ctx := context.Background()

	assert.ErrorIs(t, store.SaveCapabilities(ctx, &capability.Model{Endpoint: "x"}), errNotOpen)
	_, err := store.GetCapabilities(ctx, "x")
	assert.ErrorIs(t, err, errNotOpen)
	_, err = store.ListHistory(ctx, HistoryFilter{})
	assert.ErrorIs(t, err, errNotOpen)
	assert.ErrorIs(t, store.RecordExecution(ctx, &HistoryEntry{}), errNotOpen)
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_Capabilities(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	fetched := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	model := &capability.Model{
		Available: true,
		Endpoint:  "https://dbpedia.org/sparql",
		FetchedAt: fetched,
		Languages: []string{capability.LanguageSPARQL11Query},
		Features:  []string{capability.FeatureDereferencesURIs},
		Datasets: []capability.Dataset{{
			NamedGraphs: []capability.Graph{{Name: "http://dbpedia.org"}},
		}},
	}
	require.NoError(t, store.SaveCapabilities(ctx, model))

	got, err := store.GetCapabilities(ctx, model.Endpoint)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.Languages, got.Languages)
	assert.True(t, got.HasNamedGraph("http://dbpedia.org"))
	assert.True(t, got.FetchedAt.Equal(fetched))

	// Saving again replaces the snapshot.
	model.Available = false
	require.NoError(t, store.SaveCapabilities(ctx, model))
	got, err = store.GetCapabilities(ctx, model.Endpoint)
	require.NoError(t, err)
	assert.False(t, got.IsAvailable())

	require.NoError(t, store.SaveCapabilities(ctx, &capability.Model{Available: true, Endpoint: "https://a.example/sparql"}))
	list, err := store.ListCapabilities(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "https://a.example/sparql", list[0].Endpoint)
	assert.False(t, list[0].FetchedAt.IsZero())
	assert.Equal(t, "https://dbpedia.org/sparql", list[1].Endpoint)
	assert.False(t, list[1].Available)

	require.NoError(t, store.DeleteCapabilities(ctx, "https://a.example/sparql"))
	missing, err := store.GetCapabilities(ctx, "https://a.example/sparql")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLiteStore_SaveCapabilitiesRequiresEndpoint(t *testing.T) {
	store := setupTestStore(t)

	assert.Error(t, store.SaveCapabilities(context.Background(), &capability.Model{Available: true}))
	assert.Error(t, store.SaveCapabilities(context.Background(), nil))
}

func TestSQLiteStore_History(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entries := []*HistoryEntry{
		{Endpoint: "https://dbpedia.org/sparql", Query: "SELECT 1", QueryKind: "select", Method: "GET", Outcome: "success", StatusCode: 200, RowCount: 10, BytesRead: 512, Elapsed: 120 * time.Millisecond, StartedAt: base},
		{Endpoint: "https://dbpedia.org/sparql", Query: "SELECT 2", QueryKind: "select", Method: "GET", Outcome: "failed", StatusCode: 400, Error: "http error (400)", StartedAt: base.Add(time.Minute)},
		{Endpoint: "https://wikidata.org/sparql", Query: "ASK {}", QueryKind: "ask", Method: "POST", Outcome: "success", RowCount: 1, Truncated: true, StartedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		require.NoError(t, store.RecordExecution(ctx, e))
		assert.Len(t, e.ID, 36)
	}

	all, err := store.ListHistory(ctx, HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "ASK {}", all[0].Query)
	assert.True(t, all[0].Truncated)
	assert.Equal(t, "SELECT 1", all[2].Query)
	assert.Equal(t, 120*time.Millisecond, all[2].Elapsed)
	assert.True(t, all[2].StartedAt.Equal(base))

	tests := []struct {
		name   string
		filter HistoryFilter
		want   []string
	}{
		{"by endpoint", HistoryFilter{Endpoint: "https://dbpedia.org/sparql"}, []string{"SELECT 2", "SELECT 1"}},
		{"by outcome", HistoryFilter{Outcome: "failed"}, []string{"SELECT 2"}},
		{"limit", HistoryFilter{Limit: 1}, []string{"ASK {}"}},
		{"no match", HistoryFilter{Endpoint: "https://none.example"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ListHistory(ctx, tt.filter)
			require.NoError(t, err)
			var queries []string
			for _, e := range got {
				queries = append(queries, e.Query)
			}
			assert.Equal(t, tt.want, queries)
		})
	}

	failed, err := store.GetExecution(ctx, entries[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "http error (400)", failed.Error)
	assert.Equal(t, 400, failed.StatusCode)

	byPrefix, err := store.GetExecution(ctx, entries[1].ID[:8])
	require.NoError(t, err)
	assert.Equal(t, entries[1].ID, byPrefix.ID)

	_, err = store.GetExecution(ctx, "missing")
	assert.ErrorContains(t, err, "execution not found")
	_, err = store.GetExecution(ctx, "%")
	assert.ErrorContains(t, err, "execution not found")

	removed, err := store.PruneHistory(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	left, err := store.ListHistory(ctx, HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, entries[2].ID, left[0].ID)
}
