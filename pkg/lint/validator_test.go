package lint_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapsparql/pkg/capability"
	"github.com/leapstack-labs/leapsparql/pkg/core"
	"github.com/leapstack-labs/leapsparql/pkg/lint"
	_ "github.com/leapstack-labs/leapsparql/pkg/lint/rules" // register rules
)

func sparql10Model() *capability.Model {
	return &capability.Model{
		Available: true,
		Languages: []string{capability.LanguageSPARQL10Query},
	}
}

func sparql11Model() *capability.Model {
	return &capability.Model{
		Available: true,
		Languages: []string{capability.LanguageSPARQL10Query, capability.LanguageSPARQL11Query},
		Features:  []string{capability.FeatureDereferencesURIs, capability.FeatureBasicFederatedQuery},
	}
}

func TestValidate_UnavailableModel(t *testing.T) {
	query := "SELECT * WHERE { ?s ?p ?o . BIND(STR(?o) AS ?l) } SERVICE"

	diags := lint.Validate(query, capability.Unavailable("http://example.org/sparql"))
	require.NotNil(t, diags)
	assert.Empty(t, diags)

	diags = lint.Validate(query, nil)
	require.NotNil(t, diags)
	assert.Empty(t, diags)
}

func TestValidate_CleanQuery(t *testing.T) {
	diags := lint.Validate("SELECT * WHERE { ?s ?p ?o }", sparql11Model())
	assert.Empty(t, diags)
}

func TestValidate_BindOnSPARQL10(t *testing.T) {
	query := "SELECT * WHERE { ?s ?p ?o . BIND(STR(?o) AS ?l) }"

	diags := lint.Validate(query, sparql10Model())
	require.Len(t, diags, 1)

	d := diags[0]
	assert.Equal(t, "LV01", d.RuleID)
	assert.Equal(t, core.SeverityWarning, d.Severity)
	assert.Contains(t, d.Message, "BIND")
	assert.Equal(t, "BIND", d.Span.Text(query))
	assert.True(t, d.HasAction())
	assert.Contains(t, d.ActionURL, "#bind")
}

func TestValidate_DoesNotMutateModel(t *testing.T) {
	model := sparql10Model()
	before := *model
	before.Languages = append([]string(nil), model.Languages...)

	lint.Validate("SELECT * WHERE { VALUES ?x { 1 } }", model)
	assert.Equal(t, before, *model)
}

func TestValidate_OrderedBySpan(t *testing.T) {
	query := `SELECT * FROM <http://example.org/g> WHERE {
  SERVICE <http://remote.example/sparql> { ?s ?p ?o }
  BIND(1 AS ?x)
}`
	diags := lint.Validate(query, sparql10Model())
	require.Len(t, diags, 3)
	assert.Equal(t, "FT01", diags[0].RuleID)
	assert.Equal(t, "FT02", diags[1].RuleID)
	assert.Equal(t, "LV01", diags[2].RuleID)
	for i := 1; i < len(diags); i++ {
		assert.LessOrEqual(t, diags[i-1].Span.Start, diags[i].Span.Start)
	}
}

func TestValidator_Config(t *testing.T) {
	query := "SELECT * WHERE { ?s ?p ?o . BIND(1 AS ?x) }"

	t.Run("disable", func(t *testing.T) {
		v := lint.NewValidator(lint.NewConfig().Disable("LV01"), nil)
		assert.Empty(t, v.Validate(query, sparql10Model()))
	})

	t.Run("severity override", func(t *testing.T) {
		v := lint.NewValidator(lint.NewConfig().SetSeverity("LV01", core.SeverityInfo), nil)
		diags := v.Validate(query, sparql10Model())
		require.Len(t, diags, 1)
		assert.Equal(t, core.SeverityInfo, diags[0].Severity)
	})

	t.Run("opt-in rules stay off", func(t *testing.T) {
		q := "SELECT * WHERE { ?s ?p ?o FILTER(<http://example.org/fn>(?o)) }"
		assert.Empty(t, lint.Validate(q, sparql11Model()))

		v := lint.NewValidator(lint.NewConfig().Enable("EX01"), nil)
		diags := v.Validate(q, sparql11Model())
		require.Len(t, diags, 1)
		assert.Equal(t, "EX01", diags[0].RuleID)
		assert.Equal(t, core.SeverityInfo, diags[0].Severity)
	})

	t.Run("disable wins over enable", func(t *testing.T) {
		cfg := lint.NewConfig().Enable("EX01").Disable("EX01")
		assert.False(t, cfg.IsActive(mustRule(t, "EX01")))
	})
}

func TestConfigFromSettings(t *testing.T) {
	cfg, err := lint.ConfigFromSettings(lint.Settings{
		Disabled: []string{"features.federation"},
		Enabled:  []string{"GR01"},
		Severity: map[string]string{"LV01": "error", "FT01": "hint"},
		Rules:    map[string]map[string]any{"EX01": {"allowed_namespaces": []any{"http://jena.apache.org/ARQ/function#"}}},
	})
	require.NoError(t, err)

	assert.True(t, cfg.IsDisabled("FT02"))
	assert.True(t, cfg.IsActive(mustRule(t, "GR01")))
	assert.Equal(t, core.SeverityWarning, cfg.GetSeverity("LV01", core.SeverityInfo))
	assert.Equal(t, core.SeverityInfo, cfg.GetSeverity("FT01", core.SeverityWarning))
	assert.NotNil(t, cfg.GetRuleOptions("EX01"))

	_, err = lint.ConfigFromSettings(lint.Settings{Disabled: []string{"XX99"}})
	var unknown *lint.UnknownRuleError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "XX99", unknown.Key)
}

func TestConfigFromSettings_UnknownSeverity(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "misspelled", value: "warnign", wantErr: true},
		{name: "empty", value: "", wantErr: true},
		{name: "upper case", value: "INFO"},
		{name: "error clamps", value: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := lint.ConfigFromSettings(lint.Settings{Severity: map[string]string{"FT01": tt.value}})
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			var sevErr *lint.UnknownSeverityError
			require.ErrorAs(t, err, &sevErr)
			assert.Equal(t, "FT01", sevErr.Rule)
			assert.Equal(t, tt.value, sevErr.Value)
		})
	}
}

func TestRegistry(t *testing.T) {
	ids := make([]string, 0)
	for _, r := range lint.GetAll() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"EX01", "FT01", "FT02", "FT03", "GR01", "LV01"}, ids)

	rule, ok := lint.Lookup("language.sparql11")
	require.True(t, ok)
	assert.Equal(t, "LV01", rule.ID)

	info := rule.Info()
	assert.Equal(t, "https://leapsparql.dev/docs/rules/lv01", info.DocumentationURL)
	assert.Len(t, lint.GetByGroup("features"), 3)
}

func mustRule(t *testing.T, id string) lint.RuleDef {
	t.Helper()
	rule, ok := lint.GetByID(id)
	require.True(t, ok, "rule %s not registered", id)
	return rule
}
