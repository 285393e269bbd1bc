package graphs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapsparql/pkg/capability"
	"github.com/leapstack-labs/leapsparql/pkg/lint"
	_ "github.com/leapstack-labs/leapsparql/pkg/lint/rules" // register rules
)

func runGraphRule(t *testing.T, query string, model *capability.Model) []lint.Diagnostic {
	t.Helper()
	config := lint.NewConfig().Enable("GR01")

	var filtered []lint.Diagnostic
	for _, d := range lint.NewValidator(config, nil).Validate(query, model) {
		if d.RuleID == "GR01" {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

func TestGR01_UnknownGraph(t *testing.T) {
	model := &capability.Model{
		Available: true,
		Languages: []string{capability.LanguageSPARQL11Query},
		Features:  []string{capability.FeatureDereferencesURIs},
		Datasets: []capability.Dataset{{
			NamedGraphs: []capability.Graph{{Name: "http://dbpedia.org"}},
		}},
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "known graph",
			query: "SELECT * WHERE { GRAPH <http://dbpedia.org> { ?s ?p ?o } }",
		},
		{
			name:  "unknown GRAPH",
			query: "SELECT * WHERE { GRAPH <http://dbpedia.org/typo> { ?s ?p ?o } }",
			want:  []string{"<http://dbpedia.org/typo>"},
		},
		{
			name:  "FROM and FROM NAMED",
			query: "SELECT * FROM <http://a.example> FROM NAMED <http://b.example> WHERE { ?s ?p ?o }",
			want:  []string{"<http://a.example>", "<http://b.example>"},
		},
		{
			name:  "variable graph",
			query: "SELECT * WHERE { GRAPH ?g { ?s ?p ?o } }",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, d := range runGraphRule(t, tt.query, model) {
				got = append(got, d.Span.Text(tt.query))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGR01_NoGraphInformation(t *testing.T) {
	model := &capability.Model{Available: true, Languages: []string{capability.LanguageSPARQL11Query}}
	diags := runGraphRule(t, "SELECT * WHERE { GRAPH <http://anything.example> { ?s ?p ?o } }", model)
	require.Empty(t, diags)
}
