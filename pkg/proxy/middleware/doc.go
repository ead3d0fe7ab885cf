// Package middleware provides the HTTP middleware wrapped around every
// Guardian endpoint.
//
// Order used by the server, outermost first:
//
//	handler = middleware.Chain(mux,
//	    middleware.RequestIDMiddleware,
//	    middleware.RecoveryMiddleware,
//	    middleware.LoggingMiddleware,
//	    middleware.MaxBodyMiddleware(limit),
//	)
package middleware
