package lint

import (
	"log/slog"
	"sort"

	"github.com/leapstack-labs/leapsparql/pkg/capability"
)

// Validator runs registered rules against a query and a capability snapshot.
type Validator struct {
	config *Config
	logger *slog.Logger
}

// NewValidator creates a validator. A nil config enables every non-opt-in rule.
func NewValidator(config *Config, logger *slog.Logger) *Validator {
	if config == nil {
		config = NewConfig()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Validator{config: config, logger: logger}
}

// Config returns the validator's rule configuration.
func (v *Validator) Config() *Config {
	return v.config
}

// Validate checks query against model and returns diagnostics ordered by
// span start, then rule ID. The result is empty, never nil, when the model is
// missing or unavailable. Validate does not mutate its inputs.
func (v *Validator) Validate(query string, model *capability.Model) []Diagnostic {
	diags := []Diagnostic{}
	if !model.IsAvailable() {
		return diags
	}

	q := NewQuery(query)
	for _, rule := range GetAll() {
		if !v.config.IsActive(rule) {
			continue
		}
		found := rule.Check(q, model, v.config.GetRuleOptions(rule.ID))
		for i := range found {
			found[i].RuleID = rule.ID
			found[i].Severity = v.config.GetSeverity(rule.ID, rule.Severity)
		}
		if len(found) > 0 {
			v.logger.Debug("rule matched", slog.String("rule", rule.ID), slog.Int("count", len(found)))
		}
		diags = append(diags, found...)
	}

	sort.SliceStable(diags, func(i, j int) bool {
		if diags[i].Span.Start != diags[j].Span.Start {
			return diags[i].Span.Start < diags[j].Span.Start
		}
		return diags[i].RuleID < diags[j].RuleID
	})
	return diags
}

// Validate is a convenience wrapper using the default configuration.
//
// It only runs registered rules. The built-in rules register themselves when
// pkg/lint/rules is imported; without that import Validate finds nothing.
// session.Session imports them for its callers.
func Validate(query string, model *capability.Model) []Diagnostic {
	return NewValidator(nil, nil).Validate(query, model)
}
