package graphs

import (
	"fmt"
	"regexp"

	"github.com/leapstack-labs/leapsparql/pkg/capability"
	"github.com/leapstack-labs/leapsparql/pkg/core"
	"github.com/leapstack-labs/leapsparql/pkg/lint"
)

func init() {
	lint.Register(UnknownGraph)
}

// UnknownGraph reports graph IRIs the endpoint does not list.
var UnknownGraph = lint.RuleDef{
	ID:          "GR01",
	Name:        "graphs.unknown_graph",
	Group:       "graphs",
	Description: "Graph IRI is not among the endpoint's known named graphs.",
	Severity:    core.SeverityInfo,
	Check:       checkUnknownGraph,
	OptIn:       true,
	Rationale: `A typo in a graph IRI returns an empty result rather than an error. Endpoints
rarely list every graph, so this rule is off by default and stays silent when
the capabilities carry no graph information.`,
	BadExample: `SELECT * WHERE { GRAPH <http://dbpedia.org/typo> { ?s ?p ?o } }`,
}

// Matches FROM <iri>, FROM NAMED <iri> and GRAPH <iri>; group 1 is the keyword.
var graphRefRe = regexp.MustCompile(`(?i)(FROM|GRAPH)(?:\s+NAMED)?\s+<([^<>"{}|^` + "`" + `\\\x00-\x20]*)>`)

func checkUnknownGraph(q *lint.Query, model *capability.Model, _ map[string]any) []lint.Diagnostic {
	if len(model.NamedGraphs()) == 0 {
		return nil
	}

	var diagnostics []lint.Diagnostic
	for _, m := range graphRefRe.FindAllStringSubmatchIndex(q.Code, -1) {
		if !core.IsKeywordAt(q.Code, m[2], m[3]) {
			continue
		}
		iri := q.Code[m[4]:m[5]]
		if model.HasNamedGraph(iri) {
			continue
		}
		diagnostics = append(diagnostics, lint.Diagnostic{
			Span:    core.Span{Start: m[4] - 1, End: m[5] + 1},
			Message: fmt.Sprintf("Graph <%s> is not listed among the endpoint's named graphs", iri),
		})
	}
	return diagnostics
}
