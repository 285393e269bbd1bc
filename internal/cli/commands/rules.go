package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapsparql/internal/cli/output"
	"github.com/leapstack-labs/leapsparql/pkg/core"
	"github.com/leapstack-labs/leapsparql/pkg/lint"
	_ "github.com/leapstack-labs/leapsparql/pkg/lint/rules" // register capability rules
)

// RulesOptions holds options for the rules command.
type RulesOptions struct {
	Group   string // Filter by group
	Verbose bool   // Show full documentation
}

// RuleEntry is a rule together with its status under the current config.
type RuleEntry struct {
	lint.RuleInfo
	Active bool `json:"active"`
}

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	opts := &RulesOptions{}
	cmd := &cobra.Command{
		Use:   "rules [rule]",
		Short: "List capability rules",
		Long: `List the capability rules used by lint and by query pre-flight checks.

Rules are organized by group (language, features, extensions, graphs).
A rule can be named by ID (LV01) or by name (language.sparql11).
Use --verbose to see full documentation including examples and fix guidance.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # List all rules
  leapsparql rules

  # Show details for a specific rule
  leapsparql rules FT02

  # List rules in the extensions group
  leapsparql rules --group extensions

  # Output as JSON
  leapsparql rules -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return showRule(cmd, args[0])
			}
			return listRules(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Group, "group", "g", "", "Filter by group")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "V", false, "Show full documentation")

	return cmd
}

// ruleEntries returns registered rules in group order, marked active or not
// under cfg.
func ruleEntries(cfg *lint.Config, group string) []RuleEntry {
	var entries []RuleEntry
	for _, g := range ruleGroups() {
		if group != "" && g != group {
			continue
		}
		for _, rule := range lint.GetByGroup(g) {
			entries = append(entries, RuleEntry{RuleInfo: rule.Info(), Active: cfg.IsActive(rule)})
		}
	}
	return entries
}

// ruleGroups returns the groups of registered rules in first-seen ID order.
func ruleGroups() []string {
	var groups []string
	seen := make(map[string]bool)
	for _, rule := range lint.GetAll() {
		if !seen[rule.Group] {
			seen[rule.Group] = true
			groups = append(groups, rule.Group)
		}
	}
	return groups
}

func listRules(cmd *cobra.Command, opts *RulesOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	cfg, err := cmdCtx.LintConfig(nil, nil)
	if err != nil {
		return err
	}
	entries := ruleEntries(cfg, opts.Group)
	if opts.Group != "" && len(entries) == 0 {
		return fmt.Errorf("unknown rule group %q (available: %s)", opts.Group, strings.Join(ruleGroups(), ", "))
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return listRulesJSON(r, entries)
	case output.ModeMarkdown:
		listRulesMarkdown(r, entries, opts.Verbose)
	default:
		listRulesText(r, entries, opts.Verbose)
	}
	return nil
}

func showRule(cmd *cobra.Command, key string) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	rule, ok := lint.Lookup(key)
	if !ok {
		return fmt.Errorf("rule %q not found", key)
	}
	cfg, err := cmdCtx.LintConfig(nil, nil)
	if err != nil {
		return err
	}
	entry := RuleEntry{RuleInfo: rule.Info(), Active: cfg.IsActive(rule)}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(entry)
	case output.ModeMarkdown:
		showRuleMarkdown(r, entry)
	default:
		showRuleText(r, entry)
	}
	return nil
}

func ruleStatus(e RuleEntry) string {
	switch {
	case e.Active:
		return "active"
	case e.OptIn:
		return "opt-in"
	default:
		return "disabled"
	}
}

// listRulesText outputs rules in styled text format.
func listRulesText(r *output.Renderer, entries []RuleEntry, verbose bool) {
	styles := r.Styles()

	active := 0
	for _, e := range entries {
		if e.Active {
			active++
		}
	}

	r.Println("")
	r.Println(styles.Header1.Render(fmt.Sprintf("Capability Rules (%d, %d active)", len(entries), active)))
	r.Println("")

	currentGroup := ""
	for _, e := range entries {
		if e.Group != currentGroup {
			currentGroup = e.Group
			r.Println(styles.Header2.Render(output.Title(currentGroup)))
		}

		line := fmt.Sprintf("  %s  %s - %s",
			styles.Muted.Render(e.ID),
			e.Name,
			severityStyle(styles, e.DefaultSeverity).Render(e.DefaultSeverity.String()),
		)
		if !e.Active {
			line += " " + styles.Muted.Render("("+ruleStatus(e)+")")
		}
		r.Println(line)

		if verbose {
			r.Println(styles.Muted.Render("      " + e.Description))
			if e.Rationale != "" {
				r.Println(styles.Muted.Render("      Why: " + oneLine(e.Rationale, 80)))
			}
		}
	}

	r.Println("")
	r.Println(styles.Muted.Render("Use 'leapsparql rules <rule>' for detailed documentation"))
	r.Println("")
}

// listRulesMarkdown outputs rules in markdown format.
func listRulesMarkdown(r *output.Renderer, entries []RuleEntry, verbose bool) {
	r.Println("# Capability Rules")
	r.Println("")

	currentGroup := ""
	for _, e := range entries {
		if e.Group != currentGroup {
			if currentGroup != "" {
				r.Println("")
			}
			currentGroup = e.Group
			r.Println("## " + output.Title(currentGroup))
			r.Println("")
		}

		line := fmt.Sprintf("- **%s** - %s (`%s`)", e.ID, e.Name, e.DefaultSeverity.String())
		if !e.Active {
			line += " _" + ruleStatus(e) + "_"
		}
		r.Println(line)
		if verbose {
			r.Println("  " + e.Description)
			if e.Rationale != "" {
				r.Println("  > " + oneLine(e.Rationale, 0))
			}
		}
	}
	r.Println("")
}

// RulesJSONOutput is the JSON output structure for rules listing.
type RulesJSONOutput struct {
	Rules []RuleEntry `json:"rules"`
	Count struct {
		Active int `json:"active"`
		Total  int `json:"total"`
	} `json:"count"`
}

func listRulesJSON(r *output.Renderer, entries []RuleEntry) error {
	out := RulesJSONOutput{Rules: entries}
	if out.Rules == nil {
		out.Rules = []RuleEntry{}
	}
	for _, e := range entries {
		if e.Active {
			out.Count.Active++
		}
	}
	out.Count.Total = len(entries)
	return r.JSON(out)
}

// showRuleText displays detailed rule info in text format.
func showRuleText(r *output.Renderer, e RuleEntry) {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render(fmt.Sprintf("%s - %s", e.ID, e.Name)))
	r.Println("")

	r.Printf("  %s: %s\n", styles.Bold.Render("Group"), e.Group)
	r.Printf("  %s: %s\n", styles.Bold.Render("Severity"), e.DefaultSeverity.String())
	r.Printf("  %s: %s\n", styles.Bold.Render("Status"), ruleStatus(e))
	r.Println("")

	r.Println(styles.Bold.Render("Description"))
	r.Println("  " + e.Description)
	r.Println("")

	if e.Rationale != "" {
		r.Println(styles.Bold.Render("Why This Matters"))
		r.Println("  " + e.Rationale)
		r.Println("")
	}

	if e.BadExample != "" {
		r.Println(styles.Bold.Render("Flagged"))
		for _, line := range strings.Split(e.BadExample, "\n") {
			r.Println(styles.Muted.Render("  " + line))
		}
		r.Println("")
	}

	if e.GoodExample != "" {
		r.Println(styles.Bold.Render("Portable"))
		for _, line := range strings.Split(e.GoodExample, "\n") {
			r.Println(styles.Success.Render("  " + line))
		}
		r.Println("")
	}

	if e.Fix != "" {
		r.Println(styles.Bold.Render("How to Fix"))
		r.Println("  " + e.Fix)
		r.Println("")
	}

	if len(e.ConfigKeys) > 0 {
		r.Println(styles.Bold.Render("Configuration"))
		r.Printf("  Options: %s\n", strings.Join(e.ConfigKeys, ", "))
		r.Println("")
	}

	r.Printf("  %s: %s\n", styles.Bold.Render("Docs"), styles.URI.Render(e.DocumentationURL))
}

// showRuleMarkdown displays detailed rule info in markdown format.
func showRuleMarkdown(r *output.Renderer, e RuleEntry) {
	r.Printf("# %s - %s\n\n", e.ID, e.Name)
	r.Printf("**Group:** %s | **Severity:** `%s` | **Status:** %s\n\n", e.Group, e.DefaultSeverity.String(), ruleStatus(e))
	r.Println(e.Description)
	r.Println("")

	section := func(title, body string) {
		if body == "" {
			return
		}
		r.Println("## " + title)
		r.Println("")
		r.Println(body)
		r.Println("")
	}
	section("Why This Matters", e.Rationale)
	if e.BadExample != "" {
		section("Flagged", output.FormatCodeBlock("sparql", e.BadExample))
	}
	if e.GoodExample != "" {
		section("Portable", output.FormatCodeBlock("sparql", e.GoodExample))
	}
	section("How to Fix", e.Fix)
	if len(e.ConfigKeys) > 0 {
		section("Configuration", "Options: `"+strings.Join(e.ConfigKeys, "`, `")+"`")
	}

	r.Printf("[Documentation](%s)\n", e.DocumentationURL)
}

func severityStyle(styles *output.Styles, sev core.Severity) lipgloss.Style {
	switch sev {
	case core.SeverityWarning:
		return styles.Warning
	case core.SeverityInfo:
		return styles.Info
	default:
		return styles.Muted
	}
}

// oneLine flattens s and cuts it to maxLen bytes; 0 means no limit.
func oneLine(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
