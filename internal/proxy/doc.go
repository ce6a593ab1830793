// Package proxy forwards authenticated requests to upstream services.
//
// Handler is an httputil.ReverseProxy per configured route. Its Rewrite hook
// removes the gateway's own cookies from the outbound request and calls
// Injector, which sets "Authorization: Bearer <access token>" from the
// session stored in the request context by the session middleware.
package proxy
