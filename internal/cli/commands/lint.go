package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapsparql/internal/cli/config"
	"github.com/leapstack-labs/leapsparql/internal/cli/output"
	"github.com/leapstack-labs/leapsparql/internal/state"
	"github.com/leapstack-labs/leapsparql/pkg/capability"
	"github.com/leapstack-labs/leapsparql/pkg/core"
	"github.com/leapstack-labs/leapsparql/pkg/lint"
	_ "github.com/leapstack-labs/leapsparql/pkg/lint/rules" // register capability rules
)

// watchDebounce coalesces the burst of events an editor save produces.
const watchDebounce = 150 * time.Millisecond

// LintOptions holds options for the lint command.
type LintOptions struct {
	Query    string
	Enable   []string
	Disable  []string
	Severity string
	Strict   bool
	Watch    bool
}

// NewLintCommand creates the lint command.
func NewLintCommand() *cobra.Command {
	opts := &LintOptions{}

	cmd := &cobra.Command{
		Use:   "lint [FILE...]",
		Short: "Check queries against an endpoint's capabilities",
		Long: `Check SPARQL queries against the capability snapshot of an endpoint.

The snapshot comes from --capabilities, the endpoint's capabilities file in
leapsparql.yaml, or one imported with 'leapsparql capabilities import'.
Findings are advisory: when no snapshot is available nothing is reported.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Check query files against a configured endpoint
  leapsparql lint -t dbpedia queries/*.rq

  # Check an inline query against a snapshot file
  leapsparql lint --capabilities fuseki.yaml -e 'SELECT * WHERE { SERVICE <http://x> {} }'

  # Enable opt-in rules and fail on warnings
  leapsparql lint --enable EX01 --strict report.rq

  # Re-check whenever the files change
  leapsparql lint --watch report.rq`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Query, "query", "e", "", "Check this query text instead of files")
	cmd.Flags().StringSliceVar(&opts.Enable, "enable", nil, "Enable rules by ID or name (including opt-in rules)")
	cmd.Flags().StringSliceVar(&opts.Disable, "disable", nil, "Disable rules by ID or name")
	cmd.Flags().StringVar(&opts.Severity, "severity", "info", "Minimum severity to report: warning, info")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Exit with an error when any warning is reported")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-check files when they change")

	return cmd
}

// lintSource is one query to check.
type lintSource struct {
	Name string
	Text string
}

// queryLinter validates sources against one capability snapshot.
type queryLinter struct {
	validator   *lint.Validator
	model       *capability.Model
	endpoint    string
	minSeverity core.Severity
}

func runLint(cmd *cobra.Command, args []string, opts *LintOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	if opts.Watch && len(args) == 0 {
		return fmt.Errorf("--watch needs at least one FILE")
	}
	minSeverity, ok := core.ParseSeverity(opts.Severity)
	if !ok {
		return fmt.Errorf("invalid severity %q (valid: warning, info)", opts.Severity)
	}
	lintCfg, err := cmdCtx.LintConfig(opts.Enable, opts.Disable)
	if err != nil {
		return err
	}

	linter, err := newQueryLinter(cmd, cmdCtx, lintCfg, minSeverity)
	if err != nil {
		return err
	}

	sources, err := lintSources(cmd, args, opts)
	if err != nil {
		return err
	}

	if opts.Watch {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return linter.watch(ctx, cmdCtx, args)
	}

	outputs := linter.checkAll(sources)
	if err := renderLintOutputs(r, outputs); err != nil {
		return err
	}
	if opts.Strict {
		warnings := 0
		for _, o := range outputs {
			warnings += o.Summary.Warnings
		}
		if warnings > 0 {
			return fmt.Errorf("%d capability %s", warnings, plural(warnings, "warning", "warnings"))
		}
	}
	return nil
}

func newQueryLinter(cmd *cobra.Command, cmdCtx *CommandContext, cfg *lint.Config, minSeverity core.Severity) (*queryLinter, error) {
	ep, err := cmdCtx.Endpoint()
	if err != nil {
		// Linting only needs a snapshot, so a bare --capabilities file is enough.
		if cmdCtx.Cfg.Endpoint != "" || cmdCtx.Cfg.Target != "" || cmdCtx.Cfg.Capabilities == "" {
			return nil, err
		}
		ep = &config.ResolvedEndpoint{Capabilities: cmdCtx.Cfg.Capabilities}
	}

	var store state.Store
	if ep.URL != "" {
		store, err = cmdCtx.OpenStore()
		if err != nil {
			return nil, err
		}
		defer func() { _ = store.Close() }()
	}
	model, _, err := cmdCtx.modelFor(cmd, ep, store)
	if err != nil {
		return nil, err
	}

	return &queryLinter{
		validator:   lint.NewValidator(cfg, cmdCtx.Logger),
		model:       model,
		endpoint:    ep.URL,
		minSeverity: minSeverity,
	}, nil
}

func lintSources(cmd *cobra.Command, args []string, opts *LintOptions) ([]lintSource, error) {
	if opts.Query != "" {
		return []lintSource{{Text: opts.Query}}, nil
	}
	if len(args) == 0 {
		text, source, err := readQuery(cmd, nil, "")
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(text) == "" {
			return nil, errNoQuery
		}
		return []lintSource{{Name: source, Text: text}}, nil
	}

	sources := make([]lintSource, 0, len(args))
	for _, path := range args {
		src, err := readLintFile(path)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func readLintFile(path string) (lintSource, error) {
	content, err := os.ReadFile(path) //nolint:gosec // path given on the command line
	if err != nil {
		return lintSource{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return lintSource{Name: path, Text: string(content)}, nil
}

// check validates one source, dropping diagnostics below the minimum severity.
func (l *queryLinter) check(src lintSource) output.LintOutput {
	var kept []lint.Diagnostic
	for _, d := range l.validator.Validate(src.Text, l.model) {
		if d.Severity <= l.minSeverity {
			kept = append(kept, d)
		}
	}
	out := output.NewLintOutput(src.Name, src.Text, kept)
	out.Endpoint = l.endpoint
	out.Available = l.model.IsAvailable()
	return out
}

func (l *queryLinter) checkAll(sources []lintSource) []output.LintOutput {
	outputs := make([]output.LintOutput, len(sources))
	for i, src := range sources {
		outputs[i] = l.check(src)
	}
	return outputs
}

func renderLintOutputs(r *output.Renderer, outputs []output.LintOutput) error {
	if r.EffectiveMode() == output.ModeJSON && len(outputs) != 1 {
		return r.JSON(outputs)
	}
	for _, o := range outputs {
		if err := r.RenderLint(o); err != nil {
			return err
		}
	}
	return nil
}

// watch re-checks files whenever they are written. Directories are watched
// rather than files so that editors which save by renaming are seen.
func (l *queryLinter) watch(ctx context.Context, cmdCtx *CommandContext, files []string) error {
	r := cmdCtx.Renderer

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	wanted := make(map[string]bool, len(files))
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		wanted[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	recheck := func(paths []string) {
		for _, path := range paths {
			src, err := readLintFile(path)
			if err != nil {
				r.Error(err.Error())
				continue
			}
			if err := r.RenderLint(l.check(src)); err != nil {
				r.Error(err.Error())
			}
		}
	}

	recheck(files)
	r.Muted(fmt.Sprintf("Watching %d %s. Press Ctrl+C to stop.", len(files), plural(len(files), "file", "files")))

	pending := make(map[string]bool)
	timer := time.NewTimer(watchDebounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			path, err := filepath.Abs(event.Name)
			if err != nil || !wanted[path] {
				continue
			}
			cmdCtx.Logger.Debug("query file changed", "path", path, "op", event.Op.String())
			pending[path] = true
			timer.Reset(watchDebounce)

		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for _, f := range files {
				if abs, _ := filepath.Abs(f); pending[abs] {
					paths = append(paths, f)
				}
			}
			clear(pending)
			recheck(paths)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.Warning(fmt.Sprintf("watcher error: %v", err))
		}
	}
}
