// Package rules provides the capability rules run by the lint Validator.
//
// Rules are organized by category:
//   - language: constructs that need SPARQL 1.1 (LV01)
//   - features: dataset and federation features (FT01-FT03)
//   - extensions: unlisted extension functions (EX01, opt-in)
//   - graphs: unlisted named graphs (GR01, opt-in)
//
// To register all rules with the global lint registry, import this package
// with a blank identifier:
//
//	import _ "github.com/leapstack-labs/leapsparql/pkg/lint/rules"
package rules
