package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapsparql/internal/cli/output"
	"github.com/leapstack-labs/leapsparql/internal/state"
	"github.com/leapstack-labs/leapsparql/pkg/analyze"
	"github.com/leapstack-labs/leapsparql/pkg/session"
)

const (
	replPrompt     = "sparql> "
	replContPrompt = "   ...> "
)

// historyFilePath keeps REPL history next to the state database.
func historyFilePath(statePath string) string {
	if statePath == "" || statePath == state.MemoryPath {
		return ""
	}
	return filepath.Join(filepath.Dir(statePath), "repl_history")
}

func runQueryREPL(cmd *cobra.Command, runner *queryRunner) error {
	out := cmd.OutOrStdout()

	historyFile := historyFilePath(runner.cmdCtx.Cfg.StatePath)
	if historyFile != "" {
		if err := os.MkdirAll(filepath.Dir(historyFile), 0o750); err != nil {
			historyFile = ""
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newREPLCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(out, "LeapSPARQL REPL (endpoint: %s)\n", runner.endpoint.URL)
	_, _ = fmt.Fprintln(out, "Type .help for commands, .quit to exit. A blank line runs the query.")
	_, _ = fmt.Fprintln(out)

	repl := &replSession{cmd: cmd, runner: runner}

	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		trimmed := strings.TrimSpace(line)
		if buf.Len() == 0 && strings.HasPrefix(trimmed, ".") {
			if quit := repl.handleDotCommand(trimmed); quit {
				break
			}
			continue
		}

		if trimmed != "" {
			buf.WriteString(line)
			buf.WriteString("\n")
			rl.SetPrompt(replContPrompt)
			continue
		}
		if buf.Len() == 0 {
			continue
		}

		rl.SetPrompt(replPrompt)
		query := buf.String()
		buf.Reset()
		repl.run(query)
		_, _ = fmt.Fprintln(out)
	}

	return nil
}

// replSession carries state between REPL inputs.
type replSession struct {
	cmd    *cobra.Command
	runner *queryRunner
	last   string
}

func (s *replSession) run(query string) {
	s.last = query
	ctx, stop := signal.NotifyContext(s.cmd.Context(), os.Interrupt)
	defer stop()
	if err := s.runner.Run(ctx, query); err != nil {
		if errors.Is(err, session.ErrCancelled) {
			s.runner.cmdCtx.Renderer.Muted("Cancelled")
			return
		}
		s.runner.cmdCtx.Renderer.Error(err.Error())
	}
}

// handleDotCommand runs a REPL command and reports whether to quit.
func (s *replSession) handleDotCommand(line string) bool {
	r := s.runner.cmdCtx.Renderer
	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	query := arg
	if query == "" {
		query = s.last
	}

	switch strings.ToLower(command) {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(s.cmd.OutOrStdout())

	case ".clear":
		_, _ = fmt.Fprint(s.cmd.OutOrStdout(), "\033[H\033[2J")

	case ".endpoint":
		r.Println(s.runner.endpoint.URL)

	case ".last":
		if s.last == "" {
			r.Muted("No query yet")
		} else {
			r.Println(strings.TrimRight(s.last, "\n"))
		}

	case ".rerun":
		if s.last == "" {
			r.Muted("No query yet")
			break
		}
		s.run(s.last)

	case ".analyze":
		if query == "" {
			r.Error("Usage: .analyze [QUERY]")
			break
		}
		if err := r.RenderEstimate(analyze.Analyze(query)); err != nil {
			r.Error(err.Error())
		}

	case ".lint":
		if query == "" {
			r.Error("Usage: .lint [QUERY]")
			break
		}
		pf, err := s.runner.session.Preflight(s.cmd.Context(), query)
		if err != nil {
			r.Error(err.Error())
			break
		}
		lo := output.NewLintOutput("", query, pf.Diagnostics)
		lo.Endpoint = s.runner.endpoint.URL
		lo.Available = s.runner.session.Model().IsAvailable()
		if err := r.RenderLint(lo); err != nil {
			r.Error(err.Error())
		}

	case ".plan":
		if query == "" {
			r.Error("Usage: .plan [QUERY]")
			break
		}
		plan, err := s.runner.session.Plan(session.Request{
			Query:    query,
			Endpoint: s.runner.endpoint.URL,
			Format:   s.runner.format,
		})
		if err != nil {
			r.Error(err.Error())
			break
		}
		if err := renderPlan(r, plan); err != nil {
			r.Error(err.Error())
		}

	case ".stats":
		if err := s.runner.PrintStats(); err != nil {
			r.Error(err.Error())
		}

	default:
		r.Error(fmt.Sprintf("Unknown command: %s (type .help for commands)", command))
	}
	return false
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help             Show this help message
  .analyze [QUERY]  Estimate result size of QUERY or the last query
  .lint [QUERY]     Check QUERY or the last query against endpoint capabilities
  .plan [QUERY]     Show the HTTP request for QUERY or the last query
  .last             Print the last query
  .rerun            Run the last query again
  .stats            Show execution metrics for this session
  .endpoint         Show the endpoint URL
  .clear            Clear the screen
  .quit / .exit     Exit the REPL

Tips:
  - Queries may span several lines; a blank line runs them
  - Ctrl-C discards the current input, or cancels a running query
  - Use arrow keys to navigate history
`
	_, _ = fmt.Fprintln(w, help)
}

// newREPLCompleter completes dot-commands and common SPARQL keywords.
func newREPLCompleter() *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, c := range []string{".help", ".analyze", ".lint", ".plan", ".last", ".rerun", ".stats", ".endpoint", ".clear", ".quit", ".exit"} {
		items = append(items, readline.PcItem(c))
	}
	for _, kw := range []string{"PREFIX", "SELECT", "ASK", "CONSTRUCT", "DESCRIBE", "INSERT", "DELETE", "WHERE", "LIMIT"} {
		items = append(items, readline.PcItem(kw))
	}
	return readline.NewPrefixCompleter(items...)
}
