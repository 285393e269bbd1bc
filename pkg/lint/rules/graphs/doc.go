// Package graphs provides lint rules about graph references.
//
// Rules in this package:
//   - GR01: graph IRI not among the endpoint's named graphs (opt-in)
package graphs
