// Package features provides lint rules about service features an endpoint
// declares: URI dereferencing, federation, and dataset requirements.
//
// Rules in this package:
//   - FT01: FROM / FROM NAMED without the DereferencesURIs feature
//   - FT02: SERVICE without the BasicFederatedQuery feature
//   - FT03: no dataset clause although the endpoint requires one
package features
