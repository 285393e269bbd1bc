package language_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapsparql/pkg/capability"
	"github.com/leapstack-labs/leapsparql/pkg/lint"
	_ "github.com/leapstack-labs/leapsparql/pkg/lint/rules" // register rules
)

// Helper to run validation and filter by rule ID
func runRule(t *testing.T, query string, model *capability.Model, config *lint.Config) []lint.Diagnostic {
	t.Helper()
	diags := lint.NewValidator(config, nil).Validate(query, model)

	var filtered []lint.Diagnostic
	for _, d := range diags {
		if d.RuleID == "LV01" {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

func TestLV01_SPARQL11Constructs(t *testing.T) {
	sparql10 := &capability.Model{
		Available: true,
		Languages: []string{capability.LanguageSPARQL10Query},
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "BIND",
			query: "SELECT * WHERE { ?s ?p ?o . BIND(STR(?o) AS ?l) }",
			want:  []string{"BIND"},
		},
		{
			name:  "MINUS",
			query: "SELECT * WHERE { ?s ?p ?o MINUS { ?s a ?t } }",
			want:  []string{"MINUS"},
		},
		{
			name:  "VALUES",
			query: "SELECT * WHERE { VALUES ?x { 1 2 } ?x ?p ?o }",
			want:  []string{"VALUES"},
		},
		{
			name:  "functions",
			query: `SELECT * WHERE { ?s ?p ?o FILTER(CONTAINS(?o, "a") && STRBEFORE(?o, "b") != "") }`,
			want:  []string{"CONTAINS", "STRBEFORE"},
		},
		{
			name:  "one warning per construct",
			query: "SELECT * WHERE { BIND(1 AS ?a) BIND(2 AS ?b) }",
			want:  []string{"BIND"},
		},
		{
			name:  "SPARQL 1.0 only",
			query: `SELECT * WHERE { ?s ?p ?o FILTER(REGEX(STR(?o), "x")) }`,
		},
		{
			name:  "inside comment and string",
			query: "SELECT * WHERE { ?s ?p \"BIND(x)\" } # MINUS { }",
		},
		{
			name:  "variable named like a function",
			query: "SELECT ?year WHERE { ?s ?p ?year }",
		},
		{
			name:  "STRLEN not confused with STR",
			query: "SELECT * WHERE { ?s ?p ?o FILTER(STRLEN(?o) > 3) }",
			want:  []string{"STRLEN"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := runRule(t, tt.query, sparql10, nil)
			got := make([]string, 0, len(diags))
			for _, d := range diags {
				got = append(got, d.Span.Text(tt.query))
				assert.NotEmpty(t, d.ActionURL)
			}
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestLV01_SkippedForSPARQL11(t *testing.T) {
	model := &capability.Model{Available: true, Languages: []string{"SPARQL11Query"}}
	assert.Empty(t, runRule(t, "SELECT * WHERE { BIND(1 AS ?x) }", model, nil))
}

func TestLV01_FunctionsOption(t *testing.T) {
	model := &capability.Model{Available: true, Languages: []string{capability.LanguageSPARQL10Query}}
	config := lint.NewConfig().SetRuleOptions("LV01", map[string]any{"functions": false})

	diags := runRule(t, "SELECT * WHERE { BIND(CONCAT(?a, ?b) AS ?c) }", model, config)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "BIND")
}
