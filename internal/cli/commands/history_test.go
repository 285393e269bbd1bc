package commands

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapsparql/internal/state"
)

func seedHistory(t *testing.T) []*state.HistoryEntry {
	t.Helper()
	store := openState(t)
	ctx := context.Background()

	entries := []*state.HistoryEntry{
		{Endpoint: "http://a.example/sparql", Query: "SELECT * WHERE { ?s ?p ?o } LIMIT 1", QueryKind: "select", Method: "GET", Outcome: "success", RowCount: 1, Elapsed: 20 * time.Millisecond},
		{Endpoint: "http://a.example/sparql", Query: "ASK { ?s ?p ?o }", QueryKind: "ask", Method: "GET", Outcome: "failed", StatusCode: 500, Error: "endpoint returned HTTP 500"},
		{Endpoint: "http://b.example/sparql", Query: "DESCRIBE <http://example.org/x>", QueryKind: "describe", Method: "GET", Outcome: "success"},
	}
	for i, e := range entries {
		e.StartedAt = time.Now().Add(time.Duration(i) * time.Second)
		require.NoError(t, store.RecordExecution(ctx, e))
	}
	return entries
}

func TestHistoryCommand_List(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantCount int
	}{
		{name: "all", wantCount: 3},
		{name: "by endpoint", args: []string{"--endpoint-url", "http://a.example/sparql"}, wantCount: 2},
		{name: "by outcome", args: []string{"--outcome", "failed"}, wantCount: 1},
		{name: "limited", args: []string{"-n", "2"}, wantCount: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupProject(t, "output: json\nstate_path: state.db\n", nil)
			seedHistory(t)

			stdout, _, err := execute(t, NewHistoryCommand(), "", tt.args...)
			require.NoError(t, err)

			var got []state.HistoryEntry
			require.NoError(t, json.Unmarshal([]byte(stdout), &got))
			assert.Len(t, got, tt.wantCount)
		})
	}
}

func TestHistoryCommand_Markdown(t *testing.T) {
	setupProject(t, "output: markdown\nstate_path: state.db\n", nil)

	stdout, _, err := execute(t, NewHistoryCommand(), "")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No executions recorded")

	seedHistory(t)
	stdout, _, err = execute(t, NewHistoryCommand(), "")
	require.NoError(t, err)
	assert.Contains(t, stdout, "DESCRIBE <http://example.org/x>")
	assert.Contains(t, stdout, "failed")
}

func TestHistoryCommand_ShowByPrefix(t *testing.T) {
	setupProject(t, "output: markdown\nstate_path: state.db\n", nil)
	entries := seedHistory(t)
	failed := entries[1]

	stdout, _, err := execute(t, NewHistoryCommand(), "", shortID(failed.ID))
	require.NoError(t, err)
	assert.Contains(t, stdout, failed.ID)
	assert.Contains(t, stdout, "```sparql")
	assert.Contains(t, stdout, "ASK { ?s ?p ?o }")
	assert.Contains(t, stdout, "endpoint returned HTTP 500")

	_, _, err = execute(t, NewHistoryCommand(), "", "no-such-id")
	assert.Error(t, err)
}

func TestHistoryCommand_Prune(t *testing.T) {
	setupProject(t, "output: markdown\nstate_path: state.db\n", nil)
	seedHistory(t)

	stdout, _, err := execute(t, NewHistoryCommand(), "", "--prune", "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Pruned 2 entries")

	remaining, err := openState(t).ListHistory(context.Background(), state.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "describe", remaining[0].QueryKind)
}

func TestFirstLine(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"\n  SELECT *\nWHERE {}", 20, "SELECT *"},
		{"PREFIX ex: <http://example.org/>", 10, "PREFIX ex…"},
		{"   \n", 10, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, firstLine(tt.in, tt.n))
	}
}
