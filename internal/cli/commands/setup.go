package commands

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapsparql/internal/cli/config"
	"github.com/leapstack-labs/leapsparql/internal/cli/output"
	"github.com/leapstack-labs/leapsparql/internal/state"
	"github.com/leapstack-labs/leapsparql/pkg/capability"
	"github.com/leapstack-labs/leapsparql/pkg/dispatch"
	"github.com/leapstack-labs/leapsparql/pkg/exec"
	"github.com/leapstack-labs/leapsparql/pkg/lint"
	"github.com/leapstack-labs/leapsparql/pkg/results"
	"github.com/leapstack-labs/leapsparql/pkg/session"
)

// UserAgent is sent when an endpoint does not configure its own.
var UserAgent = "leapsparql"

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with a renderer for the
// configured output mode.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// getConfig returns the current configuration, loading defaults when no
// root command ran first.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	if cfg, err := config.LoadConfig("", nil); err == nil {
		return cfg
	}
	return &config.Config{
		Format:       config.DefaultFormat,
		Timeout:      config.DefaultTimeout,
		MaxRows:      config.DefaultMaxRows,
		ChunkSize:    config.DefaultChunkSize,
		MaxGetLength: config.DefaultMaxGetLength,
		StatePath:    config.DefaultStateFile,
		OutputFormat: config.DefaultOutput,
	}
}

// OpenStore opens the state database.
func (c *CommandContext) OpenStore() (state.Store, error) {
	store := state.NewSQLiteStore(c.Logger)
	if err := store.Open(c.Cfg.StatePath); err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	return store, nil
}

// Endpoint resolves the endpoint to talk to.
func (c *CommandContext) Endpoint() (*config.ResolvedEndpoint, error) {
	return c.Cfg.ResolveEndpoint()
}

// LoadModel picks the capability snapshot for an endpoint. An explicit
// file wins, then the endpoint's configured file, then the snapshot cached
// in the state store. With none of these the model is unavailable.
// The returned string names where the model came from.
func (c *CommandContext) LoadModel(ctx context.Context, endpointURL, explicit, configured string, store state.Store) (*capability.Model, string, error) {
	for _, path := range []string{explicit, configured} {
		if path == "" {
			continue
		}
		m, err := capability.LoadFile(path)
		if err != nil {
			return nil, "", err
		}
		if m.Endpoint == "" {
			m.Endpoint = endpointURL
		}
		return m, path, nil
	}

	if store != nil && endpointURL != "" {
		m, err := store.GetCapabilities(ctx, endpointURL)
		if err != nil {
			c.Logger.Warn("failed to read cached capabilities", "endpoint", endpointURL, "error", err)
		} else if m != nil {
			return m, "state", nil
		}
	}
	return capability.Unavailable(endpointURL), "", nil
}

// modelFor loads the capability snapshot for ep. A --capabilities flag set
// on the command line takes precedence over the endpoint's own file.
func (c *CommandContext) modelFor(cmd *cobra.Command, ep *config.ResolvedEndpoint, store state.Store) (*capability.Model, string, error) {
	var explicit string
	if f := cmd.Flag("capabilities"); f != nil && f.Changed {
		explicit = c.Cfg.Capabilities
	}
	return c.LoadModel(cmd.Context(), ep.URL, explicit, ep.Capabilities, store)
}

// LintConfig merges the lint section of the config file with flag overrides.
func (c *CommandContext) LintConfig(enable, disable []string) (*lint.Config, error) {
	var settings lint.Settings
	if c.Cfg.Lint != nil {
		settings = *c.Cfg.Lint
	}
	settings.Enabled = append(append([]string(nil), settings.Enabled...), enable...)
	settings.Disabled = append(append([]string(nil), settings.Disabled...), disable...)
	return lint.ConfigFromSettings(settings)
}

// Dispatcher builds a dispatcher carrying the endpoint's transport params.
func (c *CommandContext) Dispatcher(ep *config.ResolvedEndpoint) *dispatch.Dispatcher {
	opts := []dispatch.Option{dispatch.WithMaxGetLength(c.Cfg.MaxGetLength)}

	ua := UserAgent
	if ep.Params.UserAgent != "" {
		ua = ep.Params.UserAgent
	}
	opts = append(opts, dispatch.WithUserAgent(ua))

	if ep.Params.Username != "" {
		creds := base64.StdEncoding.EncodeToString([]byte(ep.Params.Username + ":" + ep.Params.Password))
		opts = append(opts, dispatch.WithHeaders(dispatch.Header{Name: "Authorization", Value: "Basic " + creds}))
	}

	names := make([]string, 0, len(ep.Params.Headers))
	for name := range ep.Params.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		opts = append(opts, dispatch.WithHeaders(dispatch.Header{Name: name, Value: ep.Params.Headers[name]}))
	}

	return dispatch.New(opts...)
}

// SessionOptions are the per-command parts of a session.
type SessionOptions struct {
	Model      *capability.Model
	Lint       *lint.Config
	Registry   prometheus.Registerer
	OnProgress func(results.Progress)
}

// NewSession wires a session for ep.
func (c *CommandContext) NewSession(ep *config.ResolvedEndpoint, opts SessionOptions) *session.Session {
	var metrics *exec.Metrics
	if opts.Registry != nil {
		metrics = exec.NewMetrics(opts.Registry)
	}
	return session.New(session.Config{
		Dispatcher: c.Dispatcher(ep),
		Executor:   exec.New(exec.Config{Logger: c.Logger, Metrics: metrics}),
		Validator:  lint.NewValidator(opts.Lint, c.Logger),
		Model:      opts.Model,
		Logger:     c.Logger,
		ParseOptions: results.Options{
			MaxRows:    c.Cfg.MaxRows,
			ChunkSize:  c.Cfg.ChunkSize,
			OnProgress: opts.OnProgress,
		},
	})
}

// readQuery returns the query text from args, an input file, or piped
// stdin, together with a label for where it came from. An empty result
// means none was given.
func readQuery(cmd *cobra.Command, args []string, input string) (query, source string, err error) {
	switch {
	case len(args) > 0 && args[0] != "-":
		return strings.Join(args, " "), "", nil
	case input != "":
		content, err := os.ReadFile(input) //nolint:gosec // path given on the command line
		if err != nil {
			return "", "", fmt.Errorf("failed to read file: %w", err)
		}
		return string(content), input, nil
	case (len(args) > 0 && args[0] == "-") || !stdinIsTerminal(cmd):
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(content), "stdin", nil
	default:
		return "", "", nil
	}
}

// stdinIsTerminal reports whether the command reads from an interactive terminal.
func stdinIsTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.InOrStdin().(*os.File)
	if !ok {
		return false
	}
	return isTerminal(f)
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// parseFormat resolves a configured response format name.
func parseFormat(name string) (dispatch.Format, error) {
	if name == "" {
		return dispatch.FormatAuto, nil
	}
	return dispatch.ParseFormat(name)
}
