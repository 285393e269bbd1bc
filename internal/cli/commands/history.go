package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapsparql/internal/cli/output"
	"github.com/leapstack-labs/leapsparql/internal/state"
	"github.com/leapstack-labs/leapsparql/pkg/core"
	"github.com/leapstack-labs/leapsparql/pkg/results"
	"github.com/leapstack-labs/leapsparql/pkg/session"
)

// Outcome labels stored in history besides the executor's own kinds.
const (
	outcomeParseFailed = "parse_failed"
	outcomeNotSent     = "not_sent"
)

// newHistoryEntry summarizes one Run for the state store.
func newHistoryEntry(endpoint, query string, res *session.Result, runErr error) *state.HistoryEntry {
	entry := &state.HistoryEntry{
		Endpoint:  endpoint,
		Query:     query,
		QueryKind: core.DetectQueryKind(query).String(),
		Outcome:   outcomeNotSent,
	}
	if runErr != nil {
		entry.Error = runErr.Error()
	}
	if res == nil {
		if errors.Is(runErr, session.ErrCancelled) {
			entry.Outcome = "cancelled"
		}
		return entry
	}

	if res.Plan != nil {
		entry.Method = res.Plan.Method
	}
	o := res.Outcome
	entry.Outcome = o.Kind.String()
	entry.StatusCode = o.StatusCode
	entry.BytesRead = o.BytesRead
	entry.Elapsed = o.Elapsed

	var parseErr *results.ParseError
	if errors.As(runErr, &parseErr) {
		entry.Outcome = outcomeParseFailed
	}
	if res.Table != nil {
		entry.RowCount = res.Table.RowCount
		entry.Truncated = res.Table.Truncated
	}
	return entry
}

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit    int
	Endpoint string
	Outcome  string
	Prune    int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history [ID]",
		Short: "Show executed queries",
		Long: `Show queries recorded in the state database, newest first.

With an ID argument, shows the full record of one execution including
the query text.`,
		Example: `  # Recent executions
  leapsparql history

  # Failed executions against one endpoint
  leapsparql history --endpoint-url https://dbpedia.org/sparql --outcome failed

  # Show one execution
  leapsparql history 3f2a9c1e

  # Keep only the 100 newest records
  leapsparql history --prune 100`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, args, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", state.DefaultHistoryLimit, "Maximum number of entries to show")
	cmd.Flags().StringVar(&opts.Endpoint, "endpoint-url", "", "Only show executions against this endpoint URL")
	cmd.Flags().StringVar(&opts.Outcome, "outcome", "", "Only show executions with this outcome (success, cancelled, failed, parse_failed, not_sent)")
	cmd.Flags().IntVar(&opts.Prune, "prune", 0, "Delete all but the N newest entries")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string, opts *HistoryOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer
	ctx := cmd.Context()

	store, err := cmdCtx.OpenStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if opts.Prune > 0 {
		n, err := store.PruneHistory(ctx, opts.Prune)
		if err != nil {
			return err
		}
		r.Success(fmt.Sprintf("Pruned %d %s", n, plural(int(n), "entry", "entries")))
		return nil
	}

	if len(args) == 1 {
		entry, err := store.GetExecution(ctx, args[0])
		if err != nil {
			return err
		}
		return renderHistoryEntry(r, entry)
	}

	entries, err := store.ListHistory(ctx, state.HistoryFilter{
		Endpoint: opts.Endpoint,
		Outcome:  opts.Outcome,
		Limit:    opts.Limit,
	})
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(entries)
	}
	if len(entries) == 0 {
		r.Muted("No executions recorded")
		return nil
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			shortID(e.ID),
			e.StartedAt.Local().Format(time.DateTime),
			e.QueryKind,
			e.Outcome,
			strconv.Itoa(e.RowCount),
			e.Elapsed.Round(time.Millisecond).String(),
			firstLine(e.Query, 48),
		}
	}
	r.RenderList([]string{"ID", "Started", "Kind", "Outcome", "Rows", "Elapsed", "Query"}, rows)
	return nil
}

func renderHistoryEntry(r *output.Renderer, e *state.HistoryEntry) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(e)
	}
	items := []output.KeyValue{
		{Key: "ID", Value: e.ID},
		{Key: "Endpoint", Value: e.Endpoint},
		{Key: "Started", Value: e.StartedAt.Local().Format(time.RFC3339)},
		{Key: "Kind", Value: e.QueryKind},
		{Key: "Method", Value: e.Method},
		{Key: "Outcome", Value: e.Outcome},
		{Key: "Elapsed", Value: e.Elapsed.String()},
		{Key: "Bytes", Value: strconv.FormatInt(e.BytesRead, 10)},
		{Key: "Rows", Value: strconv.Itoa(e.RowCount)},
	}
	if e.StatusCode != 0 {
		items = append(items, output.KeyValue{Key: "Status", Value: strconv.Itoa(e.StatusCode)})
	}
	if e.Truncated {
		items = append(items, output.KeyValue{Key: "Truncated", Value: "yes"})
	}
	if e.Error != "" {
		items = append(items, output.KeyValue{Key: "Error", Value: e.Error})
	}
	r.RenderDetails("Execution", items)

	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(output.FormatCodeBlock("sparql", e.Query))
	} else {
		r.Println(e.Query)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// firstLine returns the first non-blank line of s, cut to n runes.
func firstLine(s string, n int) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if runes := []rune(line); len(runes) > n {
			return string(runes[:n-1]) + "…"
		}
		return line
	}
	return ""
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
