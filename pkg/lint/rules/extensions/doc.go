// Package extensions provides lint rules about extension functions.
//
// Rules in this package:
//   - EX01: IRI function call not listed in the endpoint's capabilities (opt-in)
package extensions
