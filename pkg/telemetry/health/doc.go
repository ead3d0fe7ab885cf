// Package health serves the /health endpoint.
//
// Components register a CheckFunc; the server wires checks for the policy
// store (fallback active or not) and the audit log (still accepting entries).
package health
