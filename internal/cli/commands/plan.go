package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapsparql/internal/cli/output"
	"github.com/leapstack-labs/leapsparql/pkg/dispatch"
	"github.com/leapstack-labs/leapsparql/pkg/session"
)

// NewPlanCommand creates the plan command.
func NewPlanCommand() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "plan [SPARQL]",
		Short: "Show the HTTP request a query would be sent as",
		Long: `Show how a query would be dispatched without sending it.

Queries are sent as GET when the encoded URL fits within --max-get-length
and as a form POST otherwise. Updates are always POSTed. The Accept header
follows --format, or is negotiated from the query form.`,
		Example: `  leapsparql plan --endpoint https://dbpedia.org/sparql "ASK { ?s ?p ?o }"
  leapsparql plan -i big-construct.rq --format turtle -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, args, input)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Read the query from file")
	return cmd
}

func runPlan(cmd *cobra.Command, args []string, input string) error {
	cmdCtx := NewCommandContext(cmd)

	text, _, err := readQuery(cmd, args, input)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return errNoQuery
	}

	ep, err := cmdCtx.Endpoint()
	if err != nil {
		return err
	}
	format, err := parseFormat(ep.Format)
	if err != nil {
		return err
	}

	sess := session.New(session.Config{Dispatcher: cmdCtx.Dispatcher(ep), Logger: cmdCtx.Logger})
	defer sess.Close()

	plan, err := sess.Plan(session.Request{Query: text, Endpoint: ep.URL, Format: format})
	if err != nil {
		return err
	}
	return renderPlan(cmdCtx.Renderer, plan)
}

// PlanOutput is the JSON form of a dispatch plan.
type PlanOutput struct {
	Kind    string            `json:"kind"`
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body,omitempty"`
}

func renderPlan(r *output.Renderer, plan *dispatch.Plan) error {
	if r.EffectiveMode() == output.ModeJSON {
		headers := make(map[string]string, len(plan.Headers))
		for _, h := range plan.Headers {
			headers[h.Name] = redactHeader(h)
		}
		return r.JSON(PlanOutput{
			Kind:    plan.Kind.String(),
			Method:  plan.Method,
			URL:     plan.URL,
			Headers: headers,
			Body:    plan.Body,
		})
	}

	items := []output.KeyValue{
		{Key: "Kind", Value: plan.Kind.String()},
		{Key: "Method", Value: plan.Method},
		{Key: "URL", Value: plan.URL},
	}
	for _, h := range plan.Headers {
		items = append(items, output.KeyValue{Key: h.Name, Value: redactHeader(h)})
	}
	r.RenderDetails("Request", items)

	if plan.Body != "" {
		if r.EffectiveMode() == output.ModeMarkdown {
			r.Println(output.FormatCodeBlock("", plan.Body))
		} else {
			r.Println(plan.Body)
		}
	}
	return nil
}

// redactHeader hides credentials while keeping the auth scheme visible.
func redactHeader(h dispatch.Header) string {
	if !strings.EqualFold(h.Name, "Authorization") {
		return h.Value
	}
	scheme, _, _ := strings.Cut(h.Value, " ")
	return scheme + " ****"
}
