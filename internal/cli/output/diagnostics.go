package output

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/leapstack-labs/leapsparql/pkg/analyze"
	"github.com/leapstack-labs/leapsparql/pkg/core"
	"github.com/leapstack-labs/leapsparql/pkg/lint"
)

// LintDiagnostic is a diagnostic with its span resolved to a position.
type LintDiagnostic struct {
	RuleID      string `json:"rule_id"`
	Severity    string `json:"severity"`
	Line        int    `json:"line"`
	Column      int    `json:"column"`
	Start       int    `json:"start"`
	End         int    `json:"end"`
	Excerpt     string `json:"excerpt,omitempty"`
	Message     string `json:"message"`
	ActionLabel string `json:"action_label,omitempty"`
	ActionURL   string `json:"action_url,omitempty"`
}

// LintSummary counts diagnostics by severity.
type LintSummary struct {
	Total    int `json:"total"`
	Warnings int `json:"warnings"`
	Info     int `json:"info"`
}

// LintOutput is the result of validating one query.
type LintOutput struct {
	Source      string           `json:"source,omitempty"`
	Endpoint    string           `json:"endpoint,omitempty"`
	Available   bool             `json:"capabilities_available"`
	Diagnostics []LintDiagnostic `json:"diagnostics"`
	Summary     LintSummary      `json:"summary"`
}

// NewLintOutput resolves diagnostic spans against query.
func NewLintOutput(source, query string, diags []lint.Diagnostic) LintOutput {
	out := LintOutput{Source: source, Diagnostics: make([]LintDiagnostic, 0, len(diags))}
	for _, d := range diags {
		line, col := Position(query, d.Span.Start)
		ld := LintDiagnostic{
			RuleID:      d.RuleID,
			Severity:    d.Severity.String(),
			Line:        line,
			Column:      col,
			Start:       d.Span.Start,
			End:         d.Span.End,
			Message:     d.Message,
			ActionLabel: d.ActionLabel,
			ActionURL:   d.ActionURL,
		}
		if d.Span.Start >= 0 && d.Span.End <= len(query) && d.Span.Start < d.Span.End {
			ld.Excerpt = query[d.Span.Start:d.Span.End]
		}
		out.Diagnostics = append(out.Diagnostics, ld)

		out.Summary.Total++
		if d.Severity == core.SeverityInfo {
			out.Summary.Info++
		} else {
			out.Summary.Warnings++
		}
	}
	return out
}

// Position converts a byte offset into a 1-based line and rune column.
// Offsets past the end clamp to the end of the text.
func Position(text string, offset int) (line, col int) {
	if offset > len(text) {
		offset = len(text)
	}
	if offset < 0 {
		offset = 0
	}
	before := text[:offset]
	line = strings.Count(before, "\n") + 1
	lineStart := strings.LastIndexByte(before, '\n') + 1
	col = utf8.RuneCountInString(before[lineStart:]) + 1
	return line, col
}

// RenderLint writes lint results in the renderer's mode.
func (r *Renderer) RenderLint(out LintOutput) error {
	switch r.EffectiveMode() {
	case ModeJSON:
		return r.JSON(out)
	case ModeMarkdown:
		r.renderLintMarkdown(out)
	default:
		r.renderLintText(out)
	}
	return nil
}

func (r *Renderer) renderLintText(out LintOutput) {
	styles := r.styles
	if !out.Available {
		r.Muted("No capability description available; capability checks skipped.")
	}
	if len(out.Diagnostics) == 0 {
		r.Success("No capability issues found")
		return
	}

	if out.Source != "" {
		r.Println(styles.Bold.Render(out.Source))
	}
	for _, d := range out.Diagnostics {
		loc := fmt.Sprintf("%d:%d", d.Line, d.Column)
		r.Printf("  %s  %s  %s  %s\n",
			styles.Muted.Render(fmt.Sprintf("%-6s", loc)),
			r.severityLabel(d.Severity),
			styles.Bold.Render(d.RuleID),
			d.Message,
		)
		if d.ActionURL != "" {
			r.Printf("          %s %s\n", styles.Muted.Render(d.ActionLabel+":"), styles.URI.Render(d.ActionURL))
		}
	}
	r.Println()
	r.Println(styles.Muted.Render(fmt.Sprintf("%d %s (%d warning, %d info)",
		out.Summary.Total, plural(out.Summary.Total, "issue", "issues"), out.Summary.Warnings, out.Summary.Info)))
}

func (r *Renderer) renderLintMarkdown(out LintOutput) {
	title := "Capability Check"
	if out.Source != "" {
		title += ": " + out.Source
	}
	r.Println(FormatHeader(1, title))
	if !out.Available {
		r.Println("_No capability description available; capability checks skipped._")
		r.Println()
	}
	if len(out.Diagnostics) == 0 {
		r.Println("No capability issues found.")
		return
	}
	for _, d := range out.Diagnostics {
		line := fmt.Sprintf("- **%s** `%s` %d:%d %s", d.RuleID, d.Severity, d.Line, d.Column, d.Message)
		if d.ActionURL != "" {
			line += fmt.Sprintf(" ([%s](%s))", d.ActionLabel, d.ActionURL)
		}
		r.Println(line)
	}
	r.Println()
	r.Println(FormatKeyValue("Total", fmt.Sprintf("%d (%d warning, %d info)", out.Summary.Total, out.Summary.Warnings, out.Summary.Info)))
}

func (r *Renderer) severityLabel(sev string) string {
	switch sev {
	case core.SeverityWarning.String():
		return r.styles.Warning.Render("warning")
	case core.SeverityInfo.String():
		return r.styles.Info.Render("info   ")
	default:
		return r.styles.Muted.Render("unknown")
	}
}

// RenderEstimate writes a size estimate. Large or unbounded results get a
// warning line.
func (r *Renderer) RenderEstimate(est analyze.SizeEstimate) error {
	if r.EffectiveMode() == ModeJSON {
		return r.JSON(est)
	}

	items := []KeyValue{
		{"Bucket", est.Bucket.String()},
		{"Recommendation", est.Recommendation.String()},
	}
	if est.Limit != nil {
		items = append(items, KeyValue{"Limit", fmt.Sprintf("%d", *est.Limit)})
	} else {
		items = append(items, KeyValue{"Limit", "none"})
	}
	if est.Offset != nil {
		items = append(items, KeyValue{"Offset", fmt.Sprintf("%d", *est.Offset)})
	}
	if est.EstimatedMemoryMB != nil {
		items = append(items, KeyValue{"Estimated memory", fmt.Sprintf("%.2f MB", *est.EstimatedMemoryMB)})
	}
	r.RenderDetails("Result Size", items)

	for _, w := range est.Warnings {
		r.Warning(w)
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
