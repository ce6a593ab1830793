// Package server runs the gateway's HTTP listeners.
//
// Every request passes through RequestID and SessionMiddleware before the
// upstream handler:
//
//	RequestID -> metrics -> SessionMiddleware -> proxy.Handler
//
// SessionMiddleware loads the sealed session cookie, asks the validator
// whether the tokens must be refreshed, re-issues or clears the cookie, and
// stores the surviving session in the request context where the proxy's
// credential injector reads it.
//
// HealthPath is answered directly. Metrics are served on a separate
// listener so they are never exposed through the public address.
package server
