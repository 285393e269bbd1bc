package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapsparql/internal/cli/config"
	"github.com/leapstack-labs/leapsparql/internal/testutil"
)

func runRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	cfgFile, targetFlag = "", ""

	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCmd()

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"query", "plan", "analyze", "lint", "rules", "capabilities", "history", "version", "completion"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}

	for _, flag := range []string{"config", "target", "endpoint", "state", "verbose", "output", "timeout",
		"max-rows", "chunk-size", "max-get-length", "format", "capabilities"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestRootCommand_FlagsOverrideConfig(t *testing.T) {
	ep := testutil.NewEndpoint(t, testutil.Response{
		Status:      http.StatusOK,
		ContentType: "text/csv",
		Body:        "s\r\nhttp://example.org/a\r\nhttp://example.org/b\r\nhttp://example.org/c\r\n",
	})
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "leapsparql.yaml"),
		[]byte("endpoint: http://unused.example/sparql\noutput: markdown\n"), 0600))

	stdout, _, err := runRoot(t, "query",
		"--endpoint", ep.URL(),
		"--state", ":memory:",
		"--format", "csv",
		"--max-rows", "2",
		"-o", "json",
		"SELECT ?s WHERE { ?s ?p ?o } LIMIT 3")
	require.NoError(t, err)

	var out struct {
		RowCount  int  `json:"row_count"`
		Truncated bool `json:"truncated"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, 2, out.RowCount)
	assert.True(t, out.Truncated)

	reqs := ep.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Accept, "text/csv")
}

func TestRootCommand_UnknownTarget(t *testing.T) {
	t.Chdir(t.TempDir())

	_, _, err := runRoot(t, "plan", "-t", "nope", "ASK {}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown endpoint "nope"`)
}

func TestRootCommand_Completion(t *testing.T) {
	t.Chdir(t.TempDir())

	stdout, _, err := runRoot(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, stdout, "leapsparql")
}
