// Package oauth implements the token refresh side of the gateway: the call
// to the identity provider's token endpoint, its retry policy and the
// validation of the response.
//
// # Components
//
//   - TokenEndpointClient: posts form-encoded requests; HTTPEndpointClient
//     is the net/http implementation bound at startup
//   - RetryPolicy: retries transport failures, 404, 408 and 5xx with a
//     doubling delay (2s up to 64s, six retries)
//   - TokenRefresher: builds the refresh_token grant, runs it through the
//     retry policy and decodes the answer into a TokenBundle
//
// # Outcomes
//
// Refresh never returns an error value. It returns a RefreshOutcome that is
// either renewed (with a bundle) or failed with one of:
//
//   - transport-error: the endpoint could not be reached, even after retries
//   - non-success-status: the endpoint answered non-2xx
//   - malformed-response: a 2xx answer lacked access_token, refresh_token or
//     expires_in, or expires_in was not a non-negative integer
//
// All components are stateless and safe for concurrent use. Concurrent
// refreshes of the same session are not coalesced.
//
// # Logging
//
// Tokens are never logged. Refresh token lineages are identified in logs by
// Fingerprint, a truncated blake3 digest.
package oauth
