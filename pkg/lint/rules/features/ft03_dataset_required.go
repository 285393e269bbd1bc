package features

import (
	"github.com/leapstack-labs/leapsparql/pkg/capability"
	"github.com/leapstack-labs/leapsparql/pkg/core"
	"github.com/leapstack-labs/leapsparql/pkg/lint"
)

func init() {
	lint.Register(DatasetRequired)
}

// DatasetRequired warns when the endpoint needs an explicit dataset and the
// query names none.
var DatasetRequired = lint.RuleDef{
	ID:          "FT03",
	Name:        "features.dataset_required",
	Group:       "features",
	Description: "Endpoint requires an explicit dataset but the query has no FROM or FROM NAMED clause.",
	Severity:    core.SeverityWarning,
	Check:       checkDatasetRequired,
	BadExample:  `SELECT * WHERE { ?s ?p ?o }`,
	GoodExample: `SELECT * FROM <http://example.org/g> WHERE { ?s ?p ?o }`,
}

func checkDatasetRequired(q *lint.Query, model *capability.Model, _ map[string]any) []lint.Diagnostic {
	if !model.HasFeature(capability.FeatureRequiresDataset) || q.HasKeyword(fromRe) {
		return nil
	}
	// Anchor on the query form keyword; an unrecognized form yields the zero span.
	_, span := core.LocateQueryForm(q.Text)
	return []lint.Diagnostic{{
		Span:        span,
		Message:     "This endpoint requires an explicit dataset; add a FROM or FROM NAMED clause",
		ActionLabel: "Service description: RequiresDataset",
		ActionURL:   lint.ServiceDescriptionURL + "#sd-RequiresDataset",
	}}
}
