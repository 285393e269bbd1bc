package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapsparql/internal/cli/config"
	"github.com/leapstack-labs/leapsparql/internal/cli/output"
	"github.com/leapstack-labs/leapsparql/internal/state"
	"github.com/leapstack-labs/leapsparql/pkg/core"
	"github.com/leapstack-labs/leapsparql/pkg/dispatch"
	"github.com/leapstack-labs/leapsparql/pkg/results"
	"github.com/leapstack-labs/leapsparql/pkg/session"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Input     string
	Force     bool
	Stats     bool
	NoHistory bool
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SPARQL]",
		Short: "Run a SPARQL query against an endpoint",
		Long: `Run a SPARQL query or update against the configured endpoint.

Before dispatch the query is checked against the endpoint's capability
snapshot and its LIMIT is inspected. Findings are printed to stderr and
never block the query, except that queries with no LIMIT (or a very large
one) require --force.

The query is read from the arguments, from --input, or from stdin when
it is piped. When invoked without a query on a terminal, enters an
interactive REPL.`,
		Example: `  # Run a query against a URL
  leapsparql query --endpoint https://dbpedia.org/sparql "SELECT * WHERE { ?s ?p ?o } LIMIT 10"

  # Run a query file against a configured endpoint
  leapsparql query -t wikidata -i people.rq

  # Pipe a query and get JSON
  cat people.rq | leapsparql query -o json

  # Interactive mode
  leapsparql query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read the query from file")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Run queries expected to return very large results")
	cmd.Flags().BoolVar(&opts.Stats, "stats", false, "Print execution metrics after the result")
	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "Do not record the execution in the state database")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	cmdCtx := NewCommandContext(cmd)

	text, source, err := readQuery(cmd, args, opts.Input)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" && (source != "" || len(args) > 0) {
		return errNoQuery
	}

	runner, err := newQueryRunner(cmd, cmdCtx, opts)
	if err != nil {
		return err
	}
	defer runner.Close()

	if text == "" {
		return runQueryREPL(cmd, runner)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if err := runner.Run(ctx, text); err != nil {
		return err
	}
	if opts.Stats {
		return runner.PrintStats()
	}
	return nil
}

// queryRunner executes queries for both the one-shot command and the REPL.
type queryRunner struct {
	cmdCtx   *CommandContext
	opts     *QueryOptions
	endpoint *config.ResolvedEndpoint
	format   dispatch.Format
	session  *session.Session
	store    state.Store
	registry *prometheus.Registry
}

func newQueryRunner(cmd *cobra.Command, cmdCtx *CommandContext, opts *QueryOptions) (*queryRunner, error) {
	ep, err := cmdCtx.Endpoint()
	if err != nil {
		return nil, err
	}
	format, err := parseFormat(ep.Format)
	if err != nil {
		return nil, err
	}
	lintCfg, err := cmdCtx.LintConfig(nil, nil)
	if err != nil {
		return nil, err
	}

	store, err := cmdCtx.OpenStore()
	if err != nil {
		return nil, err
	}
	model, source, err := cmdCtx.modelFor(cmd, ep, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	cmdCtx.Logger.Debug("capability snapshot",
		slog.String("endpoint", ep.URL),
		slog.String("source", source),
		slog.Bool("available", model.IsAvailable()))

	q := &queryRunner{
		cmdCtx:   cmdCtx,
		opts:     opts,
		endpoint: ep,
		format:   format,
		store:    store,
		registry: prometheus.NewRegistry(),
	}
	q.session = cmdCtx.NewSession(ep, SessionOptions{
		Model:    model,
		Lint:     lintCfg,
		Registry: q.registry,
		OnProgress: func(p results.Progress) {
			cmdCtx.Logger.Debug("parsing results",
				slog.Int("rows", p.RowsParsed),
				slog.Int("total", p.TotalRows),
				slog.Float64("percent", p.Percent))
		},
	})
	return q, nil
}

// Close releases the session and the state store.
func (q *queryRunner) Close() {
	q.session.Close()
	if err := q.store.Close(); err != nil {
		q.cmdCtx.Logger.Warn("failed to close state database", slog.String("error", err.Error()))
	}
}

// Run executes one query and renders its result.
func (q *queryRunner) Run(ctx context.Context, text string) error {
	r := q.cmdCtx.Renderer

	pf, err := q.session.Preflight(ctx, text)
	if err != nil {
		return err
	}
	q.reportPreflight(text, pf)

	kind := core.DetectQueryKind(text)
	if kind.IsReadOnly() && pf.Estimate.ShouldConfirm() && !q.opts.Force {
		return fmt.Errorf("refusing to run %s\nHint: add a LIMIT clause or pass --force", pf.Estimate.Describe())
	}

	res, runErr := q.session.Run(ctx, session.Request{
		Query:    text,
		Endpoint: q.endpoint.URL,
		Format:   q.format,
		Timeout:  q.endpoint.Timeout,
	})
	q.record(ctx, text, res, runErr)
	if runErr != nil {
		return &queryError{err: runErr}
	}

	if res.Plan.Kind == core.KindUpdate {
		r.Success(fmt.Sprintf("Update applied (HTTP %d in %s)",
			res.Outcome.StatusCode, res.Outcome.Elapsed.Round(time.Millisecond)))
		return nil
	}
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(output.TableOutput{
			ParsedTable: res.Table,
			Endpoint:    q.endpoint.URL,
			Elapsed:     res.Outcome.Elapsed.String(),
		})
	}
	return r.RenderTable(res.Table)
}

// reportPreflight prints advisory findings to stderr.
func (q *queryRunner) reportPreflight(text string, pf session.Preflight) {
	r := q.cmdCtx.Renderer
	for _, d := range pf.Diagnostics {
		line, col := output.Position(text, d.Span.Start)
		msg := fmt.Sprintf("%s %d:%d %s", d.RuleID, line, col, d.Message)
		if d.HasAction() {
			msg += fmt.Sprintf(" (%s: %s)", d.ActionLabel, d.ActionURL)
		}
		r.Warning(msg)
	}
	for _, w := range pf.Estimate.Warnings {
		r.Warning(w)
	}
}

func (q *queryRunner) record(ctx context.Context, text string, res *session.Result, runErr error) {
	if q.opts.NoHistory || errors.Is(runErr, session.ErrSuperseded) {
		return
	}
	entry := newHistoryEntry(q.endpoint.URL, text, res, runErr)
	// The query context may already be cancelled.
	if err := q.store.RecordExecution(context.WithoutCancel(ctx), entry); err != nil {
		q.cmdCtx.Logger.Warn("failed to record history", slog.String("error", err.Error()))
	}
}

// PrintStats renders the executor metrics gathered so far.
func (q *queryRunner) PrintStats() error {
	families, err := q.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	rows := metricRows(families)
	if q.cmdCtx.Renderer.EffectiveMode() == output.ModeJSON {
		stats := make(map[string]string, len(rows))
		for _, row := range rows {
			stats[row[0]] = row[1]
		}
		return q.cmdCtx.Renderer.JSON(stats)
	}
	q.cmdCtx.Renderer.RenderList([]string{"Metric", "Value"}, rows)
	return nil
}

func metricRows(families []*dto.MetricFamily) [][]string {
	var rows [][]string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := mf.GetName() + labelSuffix(m.GetLabel())
			var value string
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				value = strconv.FormatFloat(m.GetCounter().GetValue(), 'f', -1, 64)
			case dto.MetricType_GAUGE:
				value = strconv.FormatFloat(m.GetGauge().GetValue(), 'f', -1, 64)
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				value = fmt.Sprintf("count=%d sum=%s", h.GetSampleCount(),
					strconv.FormatFloat(h.GetSampleSum(), 'f', 3, 64))
			default:
				continue
			}
			rows = append(rows, []string{name, value})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i][0] < rows[j][0] })
	return rows
}

func labelSuffix(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = fmt.Sprintf("%s=%q", l.GetName(), l.GetValue())
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// queryError presents execution failures with response bodies reduced to text.
type queryError struct {
	err error
}

func (e *queryError) Error() string {
	if errors.Is(e.err, session.ErrCancelled) {
		return "query cancelled"
	}
	return output.ErrorMessage(e.err)
}

func (e *queryError) Unwrap() error {
	return e.err
}
