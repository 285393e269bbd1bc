package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapsparql/internal/cli/config"
	"github.com/leapstack-labs/leapsparql/internal/state"
	"github.com/leapstack-labs/leapsparql/internal/testutil"
	"github.com/leapstack-labs/leapsparql/pkg/capability"
)

// sparql10Caps declares an endpoint that only speaks SPARQL 1.0.
const sparql10Caps = `available: true
languages:
  - http://www.w3.org/ns/sparql-service-description#SPARQL10Query
`

// setupProject writes leapsparql.yaml (and any extra files) into a fresh
// directory, changes into it and loads the config the way the root command does.
func setupProject(t *testing.T, cfgYAML string, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "leapsparql.yaml"), []byte(cfgYAML), 0600))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0600))
	}

	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	_, err := config.LoadConfig(filepath.Join(dir, "leapsparql.yaml"), nil)
	require.NoError(t, err)
	return dir
}

// execute runs cmd with args and stdin and returns what it wrote.
func execute(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	ctx := context.WithValue(context.Background(), config.LoggerKey(), testutil.NewTestLogger(t))
	err = cmd.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

// openState opens the state database of the current project.
func openState(t *testing.T) state.Store {
	t.Helper()
	store := state.NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(config.GetCurrentConfig().StatePath))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewQueryCommand(), "query [SPARQL]", []string{"input", "force", "stats", "no-history"}},
		{NewPlanCommand(), "plan [SPARQL]", []string{"input"}},
		{NewAnalyzeCommand(), "analyze [SPARQL]", []string{"input"}},
		{NewLintCommand(), "lint [FILE...]", []string{"query", "enable", "disable", "severity", "strict", "watch"}},
		{NewRulesCommand(), "rules [rule]", []string{"group", "verbose"}},
		{NewHistoryCommand(), "history [ID]", []string{"limit", "endpoint-url", "outcome", "prune"}},
		{NewCapabilitiesCommand(), "capabilities", nil},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}
}

func TestCapabilitiesCommand_Subcommands(t *testing.T) {
	cmd := NewCapabilitiesCommand()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"import", "show", "export", "list", "delete"}, names)
	assert.Contains(t, cmd.Aliases, "caps")
}

func TestReadQuery(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "q.rq")
	require.NoError(t, os.WriteFile(file, []byte("ASK {}"), 0600))

	tests := []struct {
		name       string
		args       []string
		input      string
		stdin      string
		wantQuery  string
		wantSource string
		wantErr    bool
	}{
		{name: "args joined", args: []string{"SELECT", "*", "WHERE", "{}"}, wantQuery: "SELECT * WHERE {}"},
		{name: "input file", input: file, wantQuery: "ASK {}", wantSource: file},
		{name: "missing file", input: filepath.Join(dir, "nope.rq"), wantErr: true},
		{name: "piped stdin", stdin: "DESCRIBE <x>", wantQuery: "DESCRIBE <x>", wantSource: "stdin"},
		{name: "dash reads stdin", args: []string{"-"}, stdin: "ASK {}", wantQuery: "ASK {}", wantSource: "stdin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{}
			cmd.SetIn(strings.NewReader(tt.stdin))

			query, source, err := readQuery(cmd, tt.args, tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantQuery, query)
			assert.Equal(t, tt.wantSource, source)
		})
	}
}

func TestLoadModel_Precedence(t *testing.T) {
	dir := setupProject(t, "state_path: state.db\n", map[string]string{
		"explicit.yaml":   "available: true\nlanguages: [SPARQL11Query]\n",
		"configured.yaml": "available: true\nlanguages: [SPARQL10Query]\n",
	})
	cmdCtx := NewCommandContext(&cobra.Command{})
	ctx := context.Background()
	const url = "http://example.org/sparql"

	store := openState(t)
	require.NoError(t, store.SaveCapabilities(ctx, &capability.Model{Available: true, Endpoint: url}))

	m, source, err := cmdCtx.LoadModel(ctx, url, filepath.Join(dir, "explicit.yaml"), filepath.Join(dir, "configured.yaml"), store)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "explicit.yaml"), source)
	assert.Equal(t, url, m.Endpoint, "endpoint is filled from the request")
	assert.True(t, m.SupportsLanguage("SPARQL11Query"))

	_, source, err = cmdCtx.LoadModel(ctx, url, "", filepath.Join(dir, "configured.yaml"), store)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "configured.yaml"), source)

	m, source, err = cmdCtx.LoadModel(ctx, url, "", "", store)
	require.NoError(t, err)
	assert.Equal(t, "state", source)
	assert.True(t, m.IsAvailable())

	m, source, err = cmdCtx.LoadModel(ctx, "http://other.example/sparql", "", "", store)
	require.NoError(t, err)
	assert.Empty(t, source)
	assert.False(t, m.IsAvailable())

	_, _, err = cmdCtx.LoadModel(ctx, url, filepath.Join(dir, "missing.yaml"), "", store)
	assert.Error(t, err)
}

func TestLintConfig_MergesFlags(t *testing.T) {
	setupProject(t, "lint:\n  disabled: [FT01]\n", nil)
	cmdCtx := NewCommandContext(&cobra.Command{})

	cfg, err := cmdCtx.LintConfig([]string{"extensions.unknown_function"}, []string{"LV01"})
	require.NoError(t, err)
	assert.True(t, cfg.IsDisabled("FT01"))
	assert.True(t, cfg.IsDisabled("LV01"))
	assert.True(t, cfg.EnabledRules["EX01"])

	_, err = cmdCtx.LintConfig([]string{"ZZ99"}, nil)
	assert.Error(t, err)
}
