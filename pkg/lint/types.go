package lint

import (
	"github.com/leapstack-labs/leapsparql/pkg/capability"
	"github.com/leapstack-labs/leapsparql/pkg/core"
)

// RuleDef is a data-driven rule definition.
// Rules are stateless - all context comes via the Check function parameters.
type RuleDef struct {
	ID          string        // Unique identifier, e.g., "LV01"
	Name        string        // Human-readable name, e.g., "language.sparql11"
	Group       string        // Category, e.g., "language", "features"
	Description string        // Human-readable description
	Severity    core.Severity // Default severity
	Check       CheckFunc     // The check function
	ConfigKeys  []string      // Configuration keys this rule accepts
	OptIn       bool          // Disabled unless explicitly enabled

	// Documentation fields for richer rule documentation
	Rationale   string // Why this rule exists, what problems it prevents
	BadExample  string // Query showing the problem
	GoodExample string // Query showing the fix
	Fix         string // How to fix violations (when not obvious)
}

// CheckFunc inspects a query against a capability snapshot.
// The model is always available when a CheckFunc is called.
// The opts parameter contains rule-specific options from configuration.
type CheckFunc func(q *Query, model *capability.Model, opts map[string]any) []Diagnostic

// Diagnostic is an advisory finding with an optional follow-up action.
type Diagnostic struct {
	RuleID   string        `json:"rule_id"`
	Severity core.Severity `json:"severity"`
	Span     core.Span     `json:"span"`
	Message  string        `json:"message"`

	// The editor surface renders these as a clickable action.
	ActionLabel string `json:"action_label,omitempty"`
	ActionURL   string `json:"action_url,omitempty"`
}

// HasAction reports whether the diagnostic carries a follow-up link.
func (d Diagnostic) HasAction() bool {
	return d.ActionURL != ""
}

// RuleInfo provides metadata about a rule for documentation/tooling.
type RuleInfo struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Group            string        `json:"group"`
	Description      string        `json:"description"`
	DefaultSeverity  core.Severity `json:"default_severity"`
	ConfigKeys       []string      `json:"config_keys,omitempty"`
	OptIn            bool          `json:"opt_in"`
	DocumentationURL string        `json:"documentation_url"`

	Rationale   string `json:"rationale,omitempty"`
	BadExample  string `json:"bad_example,omitempty"`
	GoodExample string `json:"good_example,omitempty"`
	Fix         string `json:"fix,omitempty"`
}

// Info extracts metadata from a RuleDef for documentation/tooling.
func (r RuleDef) Info() RuleInfo {
	return RuleInfo{
		ID:               r.ID,
		Name:             r.Name,
		Group:            r.Group,
		Description:      r.Description,
		DefaultSeverity:  r.Severity,
		ConfigKeys:       r.ConfigKeys,
		OptIn:            r.OptIn,
		DocumentationURL: BuildDocURL(r.ID),
		Rationale:        r.Rationale,
		BadExample:       r.BadExample,
		GoodExample:      r.GoodExample,
		Fix:              r.Fix,
	}
}
