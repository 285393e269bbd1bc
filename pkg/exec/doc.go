// Package exec sends dispatch plans and reads the response body under a
// cancellation token.
//
// The executor honors whatever token it is handed; it does not enforce
// single-flight. Callers that need "latest request wins" semantics use a
// Tracker, which cancels the previous token whenever a new one begins and
// answers whether a token is still current.
//
// Cancellation and timeout share one path. Both produce OutcomeCancelled when
// they fire before the first body byte, and a Failed outcome with
// ErrorAborted once streaming has started.
package exec
