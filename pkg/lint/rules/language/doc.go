// Package language provides lint rules about the SPARQL language version an
// endpoint accepts.
//
// Rules in this package:
//   - LV01: SPARQL 1.1 construct sent to an endpoint that only declares 1.0
package language
