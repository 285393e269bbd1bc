// Package core defines the shared language of the LeapSPARQL system.
//
// This package contains:
//   - Query classification (QueryKind, DetectQueryKind)
//   - Query text scanning helpers that mask comments, literals and IRIs
//   - The normalized result model (Binding, Row, ParsedTable)
//   - Diagnostic severities and character spans
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
