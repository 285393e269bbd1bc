package rules

// Import all rule subpackages to register them with the global registry.
// This file triggers all init() functions in the rule packages.
import (
	_ "github.com/leapstack-labs/leapsparql/pkg/lint/rules/extensions"
	_ "github.com/leapstack-labs/leapsparql/pkg/lint/rules/features"
	_ "github.com/leapstack-labs/leapsparql/pkg/lint/rules/graphs"
	_ "github.com/leapstack-labs/leapsparql/pkg/lint/rules/language"
)
