package language

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/leapstack-labs/leapsparql/pkg/capability"
	"github.com/leapstack-labs/leapsparql/pkg/core"
	"github.com/leapstack-labs/leapsparql/pkg/lint"
)

func init() {
	lint.Register(SPARQL11Construct)
}

// SPARQL11Construct warns about SPARQL 1.1 syntax sent to a 1.0 endpoint.
var SPARQL11Construct = lint.RuleDef{
	ID:          "LV01",
	Name:        "language.sparql11",
	Group:       "language",
	Description: "SPARQL 1.1 construct used against an endpoint that does not declare SPARQL 1.1 support.",
	Severity:    core.SeverityWarning,
	Check:       checkSPARQL11Construct,
	ConfigKeys:  []string{"functions"},
	Rationale: `Endpoints that only implement SPARQL 1.0 reject BIND, MINUS, VALUES and the
1.1 built-in functions with a parse error. Flagging them before the request is
sent saves a round trip and points at the construct to rewrite.`,
	BadExample: `SELECT ?s ?l WHERE {
  ?s ?p ?o .
  BIND(STR(?o) AS ?l)
}`,
	GoodExample: `SELECT ?s ?o WHERE {
  ?s ?p ?o .
}`,
	Fix: "Rewrite the construct using SPARQL 1.0 syntax, or target an endpoint that supports SPARQL 1.1.",
}

type construct struct {
	name   string
	re     *regexp.Regexp
	anchor string
}

func keywordBefore(name, follow string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(` + name + `)\s*` + follow)
}

// Graph-pattern keywords.
var patternConstructs = []construct{
	{name: "BIND", re: keywordBefore("BIND", `\(`), anchor: "bind"},
	{name: "MINUS", re: keywordBefore("MINUS", `\{`), anchor: "neg-minus"},
	{name: "VALUES", re: keywordBefore("VALUES", `[\(\?\$\{]`), anchor: "inline-data"},
}

// Built-in functions added in SPARQL 1.1.
var functionNames = []string{
	"CONTAINS", "STRSTARTS", "STRENDS", "STRBEFORE", "STRAFTER", "ENCODE_FOR_URI",
	"CONCAT", "SUBSTR", "UCASE", "LCASE", "REPLACE", "STRLEN",
	"ABS", "ROUND", "CEIL", "FLOOR", "RAND",
	"NOW", "YEAR", "MONTH", "DAY", "HOURS", "MINUTES", "SECONDS", "TIMEZONE", "TZ",
	"MD5", "SHA1", "SHA256", "SHA384", "SHA512",
	"UUID", "STRUUID", "IRI", "URI", "BNODE", "STRLANG", "STRDT", "ISNUMERIC",
	"COALESCE", "IF",
}

var functionConstructs = func() []construct {
	out := make([]construct, 0, len(functionNames))
	for _, name := range functionNames {
		out = append(out, construct{
			name:   name,
			re:     keywordBefore(name, `\(`),
			anchor: "func-" + strings.ToLower(strings.ReplaceAll(name, "_", "-")),
		})
	}
	return out
}()

func checkSPARQL11Construct(q *lint.Query, model *capability.Model, opts map[string]any) []lint.Diagnostic {
	if model.SupportsLanguage(capability.LanguageSPARQL11Query) {
		return nil
	}

	checks := patternConstructs
	if lint.GetBoolOption(opts, "functions", true) {
		checks = append(append([]construct{}, patternConstructs...), functionConstructs...)
	}

	var diagnostics []lint.Diagnostic
	for _, c := range checks {
		span, ok := q.FirstKeyword(c.re)
		if !ok {
			continue
		}
		diagnostics = append(diagnostics, lint.Diagnostic{
			Span:        span,
			Message:     fmt.Sprintf("%s is a SPARQL 1.1 feature; this endpoint only declares SPARQL 1.0 support", c.name),
			ActionLabel: "SPARQL 1.1: " + c.name,
			ActionURL:   lint.SPARQL11QueryURL + "#" + c.anchor,
		})
	}
	return diagnostics
}
