package features

import (
	"github.com/leapstack-labs/leapsparql/pkg/capability"
	"github.com/leapstack-labs/leapsparql/pkg/core"
	"github.com/leapstack-labs/leapsparql/pkg/lint"
)

func init() {
	lint.Register(DatasetDereference)
}

// DatasetDereference warns about FROM clauses when the endpoint does not
// dereference graph IRIs.
var DatasetDereference = lint.RuleDef{
	ID:          "FT01",
	Name:        "features.dereference",
	Group:       "features",
	Description: "FROM / FROM NAMED used but the endpoint does not declare that it dereferences URIs.",
	Severity:    core.SeverityWarning,
	Check:       checkDatasetDereference,
	Rationale: `An endpoint without sd:DereferencesURIs only resolves FROM against graphs it
already stores. Unknown IRIs are silently treated as empty graphs.`,
	BadExample:  `SELECT * FROM <http://example.org/remote.ttl> WHERE { ?s ?p ?o }`,
	GoodExample: `SELECT * WHERE { GRAPH <http://example.org/stored> { ?s ?p ?o } }`,
}

func checkDatasetDereference(q *lint.Query, model *capability.Model, _ map[string]any) []lint.Diagnostic {
	if model.HasFeature(capability.FeatureDereferencesURIs) {
		return nil
	}
	span, ok := q.FirstKeyword(fromRe)
	if !ok {
		return nil
	}
	return []lint.Diagnostic{{
		Span:        span,
		Message:     "FROM clause used but this endpoint does not declare that it dereferences URIs; graphs it does not store may be treated as empty",
		ActionLabel: "Service description: DereferencesURIs",
		ActionURL:   lint.ServiceDescriptionURL + "#sd-DereferencesURIs",
	}}
}
