package features

import (
	"github.com/leapstack-labs/leapsparql/pkg/capability"
	"github.com/leapstack-labs/leapsparql/pkg/core"
	"github.com/leapstack-labs/leapsparql/pkg/lint"
)

func init() {
	lint.Register(Federation)
}

// Federation warns about SERVICE blocks sent to a non-federating endpoint.
var Federation = lint.RuleDef{
	ID:          "FT02",
	Name:        "features.federation",
	Group:       "features",
	Description: "SERVICE used but the endpoint does not declare federated query support.",
	Severity:    core.SeverityWarning,
	Check:       checkFederation,
	BadExample: `SELECT * WHERE {
  SERVICE <https://query.wikidata.org/sparql> { ?s ?p ?o }
}`,
	Fix: "Run the federated part directly against the remote endpoint, or pick an endpoint with sd:BasicFederatedQuery.",
}

func checkFederation(q *lint.Query, model *capability.Model, _ map[string]any) []lint.Diagnostic {
	if model.HasFeature(capability.FeatureBasicFederatedQuery) {
		return nil
	}
	span, ok := q.FirstKeyword(serviceRe)
	if !ok {
		return nil
	}
	return []lint.Diagnostic{{
		Span:        span,
		Message:     "SERVICE used but this endpoint does not declare federated query support",
		ActionLabel: "SPARQL 1.1 Federated Query",
		ActionURL:   lint.SPARQL11FederatedURL,
	}}
}
