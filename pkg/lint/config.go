package lint

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapsparql/pkg/core"
)

// Config controls which rules are enabled and their severity.
type Config struct {
	// DisabledRules contains rule IDs to skip
	DisabledRules map[string]bool

	// EnabledRules turns on opt-in rules
	EnabledRules map[string]bool

	// SeverityOverrides changes the default severity of rules
	SeverityOverrides map[string]core.Severity

	// RuleOptions holds rule-specific options keyed by rule ID
	RuleOptions map[string]map[string]any
}

// NewConfig creates a default configuration: every rule that is not
// opt-in is enabled.
func NewConfig() *Config {
	return &Config{
		DisabledRules:     make(map[string]bool),
		EnabledRules:      make(map[string]bool),
		SeverityOverrides: make(map[string]core.Severity),
		RuleOptions:       make(map[string]map[string]any),
	}
}

// IsDisabled returns true if the rule was explicitly disabled.
func (c *Config) IsDisabled(ruleID string) bool {
	if c == nil {
		return false
	}
	return c.DisabledRules[ruleID]
}

// IsActive reports whether the rule runs under this configuration.
// An explicit disable wins over an explicit enable.
func (c *Config) IsActive(rule RuleDef) bool {
	if c.IsDisabled(rule.ID) {
		return false
	}
	if !rule.OptIn {
		return true
	}
	return c != nil && c.EnabledRules[rule.ID]
}

// GetSeverity returns the severity for a rule, applying any override.
func (c *Config) GetSeverity(ruleID string, defaultSeverity core.Severity) core.Severity {
	if c != nil {
		if sev, ok := c.SeverityOverrides[ruleID]; ok {
			return sev
		}
	}
	return defaultSeverity
}

// GetRuleOptions returns the options configured for a rule, or nil.
func (c *Config) GetRuleOptions(ruleID string) map[string]any {
	if c == nil {
		return nil
	}
	return c.RuleOptions[ruleID]
}

// Disable disables a rule by ID.
func (c *Config) Disable(ruleID string) *Config {
	c.DisabledRules[ruleID] = true
	return c
}

// Enable turns on a rule by ID, including opt-in rules.
func (c *Config) Enable(ruleID string) *Config {
	c.EnabledRules[ruleID] = true
	delete(c.DisabledRules, ruleID)
	return c
}

// SetSeverity overrides the severity for a rule.
// Only Warning and Info exist; anything else is clamped to Warning.
func (c *Config) SetSeverity(ruleID string, severity core.Severity) *Config {
	if severity != core.SeverityWarning && severity != core.SeverityInfo {
		severity = core.SeverityWarning
	}
	c.SeverityOverrides[ruleID] = severity
	return c
}

// SetRuleOptions replaces the options for a rule.
func (c *Config) SetRuleOptions(ruleID string, opts map[string]any) *Config {
	c.RuleOptions[ruleID] = opts
	return c
}

// Settings is the serialized form of Config as found in leapsparql.yaml.
type Settings struct {
	Disabled []string                  `koanf:"disabled" yaml:"disabled"`
	Enabled  []string                  `koanf:"enabled" yaml:"enabled"`
	Severity map[string]string         `koanf:"severity" yaml:"severity"`
	Rules    map[string]map[string]any `koanf:"rules" yaml:"rules"`
}

// UnknownRuleError is returned when settings name a rule that is not registered.
type UnknownRuleError struct {
	Key string
}

func (e *UnknownRuleError) Error() string {
	return fmt.Sprintf("unknown lint rule %q", e.Key)
}

// UnknownSeverityError is returned when a severity override names no known level.
type UnknownSeverityError struct {
	Rule  string
	Value string
}

func (e *UnknownSeverityError) Error() string {
	return fmt.Sprintf("unknown severity %q for lint rule %q (want warning or info)", e.Value, e.Rule)
}

// ConfigFromSettings builds a Config, resolving rule names to IDs.
func ConfigFromSettings(s Settings) (*Config, error) {
	cfg := NewConfig()
	resolve := func(key string) (string, error) {
		rule, ok := Lookup(strings.TrimSpace(key))
		if !ok {
			return "", &UnknownRuleError{Key: key}
		}
		return rule.ID, nil
	}

	for _, key := range s.Enabled {
		id, err := resolve(key)
		if err != nil {
			return nil, err
		}
		cfg.Enable(id)
	}
	for _, key := range s.Disabled {
		id, err := resolve(key)
		if err != nil {
			return nil, err
		}
		cfg.Disable(id)
	}
	for key, sev := range s.Severity {
		id, err := resolve(key)
		if err != nil {
			return nil, err
		}
		severity, ok := core.ParseSeverity(sev)
		if !ok {
			return nil, &UnknownSeverityError{Rule: key, Value: sev}
		}
		cfg.SetSeverity(id, severity)
	}
	for key, opts := range s.Rules {
		id, err := resolve(key)
		if err != nil {
			return nil, err
		}
		cfg.SetRuleOptions(id, opts)
	}
	return cfg, nil
}
