package extensions

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/leapstack-labs/leapsparql/pkg/capability"
	"github.com/leapstack-labs/leapsparql/pkg/core"
	"github.com/leapstack-labs/leapsparql/pkg/lint"
)

func init() {
	lint.Register(UnknownFunction)
}

// UnknownFunction reports IRI function calls the endpoint does not list.
var UnknownFunction = lint.RuleDef{
	ID:          "EX01",
	Name:        "extensions.unknown_function",
	Group:       "extensions",
	Description: "Function IRI is not listed in the endpoint's capabilities.",
	Severity:    core.SeverityInfo,
	Check:       checkUnknownFunction,
	ConfigKeys:  []string{"allowed_namespaces"},
	OptIn:       true,
	Rationale: `Service descriptions frequently omit extension functions the endpoint does
in fact support, so this rule is off by default.`,
	BadExample: `SELECT * WHERE { ?s ?p ?o FILTER(<http://example.org/fn#similar>(?o, "x")) }`,
}

// Namespaces every SPARQL 1.1 processor understands.
var standardNamespaces = []string{
	"http://www.w3.org/2001/XMLSchema#",
	"http://www.w3.org/2005/xpath-functions",
	"http://www.w3.org/ns/sparql#",
}

var functionCallRe = regexp.MustCompile(`<([^<>"{}|^` + "`" + `\\\x00-\x20]*)>\(`)

func checkUnknownFunction(q *lint.Query, model *capability.Model, opts map[string]any) []lint.Diagnostic {
	allowed := append(append([]string{}, standardNamespaces...),
		lint.GetStringSliceOption(opts, "allowed_namespaces", nil)...)

	var diagnostics []lint.Diagnostic
	for _, m := range functionCallRe.FindAllStringSubmatchIndex(q.Code, -1) {
		iri := q.Code[m[2]:m[3]]
		if hasAnyPrefix(iri, allowed) || model.HasExtension(iri) {
			continue
		}
		diagnostics = append(diagnostics, lint.Diagnostic{
			Span:    core.Span{Start: m[0], End: m[1] - 1},
			Message: fmt.Sprintf("Function <%s> is not listed in endpoint capabilities", iri),
		})
	}
	return diagnostics
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
