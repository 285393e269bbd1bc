package commands

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapsparql/pkg/analyze"
)

var errNoQuery = errors.New("no query given\nHint: pass the query as an argument, with --input FILE, or on stdin")

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "analyze [SPARQL]",
		Short: "Estimate how large a query's result will be",
		Long: `Classify a query by its LIMIT and OFFSET without contacting the endpoint.

The first LIMIT and OFFSET in the text are used, including ones inside
subqueries or comments. Queries with no LIMIT, or a LIMIT above 50000,
are better downloaded than rendered.`,
		Example: `  leapsparql analyze "SELECT * WHERE { ?s ?p ?o } LIMIT 20000"
  leapsparql analyze -i report.rq -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContext(cmd)
			text, _, err := readQuery(cmd, args, input)
			if err != nil {
				return err
			}
			if strings.TrimSpace(text) == "" {
				return errNoQuery
			}
			return cmdCtx.Renderer.RenderEstimate(analyze.Analyze(text))
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Read the query from file")
	return cmd
}
