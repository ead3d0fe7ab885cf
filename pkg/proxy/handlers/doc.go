// Package handlers contains the HTTP handlers of the proxy.
//
// ChatHandler is the OpenAI-compatible chat completions endpoint. It depends
// only on the Transactions interface, so tests can drive it with a stub and
// the server wires in a *pipeline.Pipeline.
package handlers
