// Package metrics exposes the gateway's Prometheus collectors: HTTP request
// counts and latencies per route, token refresh outcomes and durations,
// token endpoint retries and session validation decisions.
package metrics
