package extensions_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapsparql/pkg/capability"
	"github.com/leapstack-labs/leapsparql/pkg/core"
	"github.com/leapstack-labs/leapsparql/pkg/lint"
	_ "github.com/leapstack-labs/leapsparql/pkg/lint/rules" // register rules
)

func TestEX01_UnknownFunction(t *testing.T) {
	model := &capability.Model{
		Available:          true,
		Languages:          []string{capability.LanguageSPARQL11Query},
		ExtensionFunctions: []string{"http://www.openlinksw.com/schemas/bif#contains"},
	}
	config := lint.NewConfig().Enable("EX01")

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "unlisted function",
			query: `SELECT * WHERE { ?s ?p ?o FILTER(<http://example.org/fn#similar>(?o, "x")) }`,
			want:  []string{"<http://example.org/fn#similar>"},
		},
		{
			name:  "listed extension",
			query: `SELECT * WHERE { ?s ?p ?o FILTER(<http://www.openlinksw.com/schemas/bif#contains>(?o, "x")) }`,
		},
		{
			name:  "xsd cast",
			query: `SELECT (<http://www.w3.org/2001/XMLSchema#integer>(?o) AS ?n) WHERE { ?s ?p ?o }`,
		},
		{
			name:  "xpath function",
			query: `SELECT * WHERE { ?s ?p ?o FILTER(<http://www.w3.org/2005/xpath-functions#upper-case>(?o) = "A") }`,
		},
		{
			name:  "collection object is not a call",
			query: `SELECT * WHERE { ?s <http://example.org/p> (1 2) }`,
		},
		{
			name:  "inside a comment",
			query: "SELECT * WHERE { ?s ?p ?o } # <http://example.org/fn>(?o)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, d := range lint.NewValidator(config, nil).Validate(tt.query, model) {
				if d.RuleID == "EX01" {
					assert.Equal(t, core.SeverityInfo, d.Severity)
					assert.Contains(t, d.Message, "not listed in endpoint capabilities")
					got = append(got, d.Span.Text(tt.query))
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEX01_AllowedNamespaces(t *testing.T) {
	model := &capability.Model{Available: true, Languages: []string{capability.LanguageSPARQL11Query}}
	config := lint.NewConfig().Enable("EX01").SetRuleOptions("EX01", map[string]any{
		"allowed_namespaces": []any{"http://jena.apache.org/ARQ/function#"},
	})

	query := `SELECT * WHERE { ?s ?p ?o FILTER(<http://jena.apache.org/ARQ/function#sha1sum>(?o) != "") }`
	diags := lint.NewValidator(config, nil).Validate(query, model)
	require.NotNil(t, diags)
	assert.Empty(t, diags)
}
