package commands

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapsparql/pkg/lint"
)

func TestRulesCommand_ListMarkdown(t *testing.T) {
	setupProject(t, "output: markdown\n", nil)

	stdout, _, err := execute(t, NewRulesCommand(), "")
	require.NoError(t, err)

	assert.Contains(t, stdout, "# Capability Rules")
	assert.Contains(t, stdout, "## Language")
	assert.Contains(t, stdout, "## Features")
	assert.Contains(t, stdout, "- **LV01** - language.sparql11 (`warning`)")
	assert.Contains(t, stdout, "**EX01**")
	assert.Contains(t, stdout, "_opt-in_")
}

func TestRulesCommand_FilterByGroup(t *testing.T) {
	setupProject(t, "output: markdown\n", nil)

	stdout, _, err := execute(t, NewRulesCommand(), "", "--group", "extensions")
	require.NoError(t, err)

	assert.Contains(t, stdout, "## Extensions")
	assert.Contains(t, stdout, "EX01")
	assert.Contains(t, stdout, "_opt-in_")
	assert.NotContains(t, stdout, "LV01")
	assert.NotContains(t, stdout, "## Language")
}

func TestRulesCommand_UnknownGroup(t *testing.T) {
	setupProject(t, "output: markdown\n", nil)

	_, _, err := execute(t, NewRulesCommand(), "", "--group", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown rule group")
}

func TestRulesCommand_JSON(t *testing.T) {
	setupProject(t, "output: json\nlint:\n  enabled: [GR01]\n", nil)

	stdout, _, err := execute(t, NewRulesCommand(), "")
	require.NoError(t, err)

	var out RulesJSONOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, lint.Count(), out.Count.Total)
	assert.Len(t, out.Rules, lint.Count())

	active := make(map[string]bool)
	for _, r := range out.Rules {
		active[r.ID] = r.Active
	}
	assert.True(t, active["LV01"])
	assert.True(t, active["GR01"], "enabled in config")
	assert.False(t, active["EX01"], "opt-in rules are off by default")
	assert.Equal(t, lint.Count()-1, out.Count.Active)
}

func TestRulesCommand_ShowRule(t *testing.T) {
	tests := []struct {
		name     string
		arg      string
		contains []string
	}{
		{
			name:     "by id",
			arg:      "FT01",
			contains: []string{"# FT01 - features.dereference", "## Why This Matters", "[Documentation]("},
		},
		{
			name:     "by name",
			arg:      "language.sparql11",
			contains: []string{"# LV01 - language.sparql11", "**Status:** active"},
		},
		{
			name:     "opt-in rule",
			arg:      "EX01",
			contains: []string{"# EX01 - extensions.unknown_function", "**Status:** opt-in"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupProject(t, "output: markdown\n", nil)

			stdout, _, err := execute(t, NewRulesCommand(), "", tt.arg)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, stdout, want)
			}
		})
	}
}

func TestRulesCommand_ShowRuleJSON(t *testing.T) {
	setupProject(t, "output: json\nlint:\n  disabled: [FT01]\n", nil)

	stdout, _, err := execute(t, NewRulesCommand(), "", "FT01")
	require.NoError(t, err)

	var entry RuleEntry
	require.NoError(t, json.Unmarshal([]byte(stdout), &entry))
	assert.Equal(t, "FT01", entry.ID)
	assert.False(t, entry.Active)
}

func TestRulesCommand_UnknownRule(t *testing.T) {
	setupProject(t, "output: markdown\n", nil)

	_, _, err := execute(t, NewRulesCommand(), "", "ZZ99")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestOneLine(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"a  b\n c", 0, "a b c"},
		{"short", 10, "short"},
		{"abcdefghijkl", 8, "abcde..."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, oneLine(tt.in, tt.maxLen))
	}
}
