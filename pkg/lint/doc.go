// Package lint checks SPARQL query text against the capabilities an endpoint
// declares in its service description.
//
// # Architecture
//
// The root package holds the shared contracts (RuleDef, Diagnostic, Config),
// the rule registry, and the Validator. Rule implementations live in
// subpackages of pkg/lint/rules and register themselves from init():
//
//	import _ "github.com/leapstack-labs/leapsparql/pkg/lint/rules"
//
// # Rule Groups
//
//   - LV (language): constructs that need a newer SPARQL version
//   - FT (features): dataset and federation features the endpoint lacks
//   - EX (extensions): calls to functions the endpoint does not list (opt-in)
//   - GR (graphs): references to graphs the endpoint does not list (opt-in)
//
// # Advisory Only
//
// Every finding is a Warning or Info diagnostic. The validator never blocks
// execution and returns nothing when no capability data is available:
// absence of data is not evidence of absence.
//
// # Configuration
//
//	config := lint.NewConfig()
//	config.Disable("FT01")
//	config.Enable("EX01") // opt-in rule
//	config.SetSeverity("LV01", core.SeverityInfo)
//
// # Heuristics
//
// Rules pattern-match the raw query string with comments and string literals
// masked. They do not build an AST, so false negatives are expected; rules
// that are likely to produce false positives are opt-in.
package lint
