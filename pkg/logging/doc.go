// Package logging provides subsystem-tagged structured logging for bffgate,
// built on log/slog.
//
// Every entry carries a "subsystem" attribute so operators can filter the
// gateway's output by component:
//
//   - Gateway: listener lifecycle and request handling
//   - Session: cookie loading, validation decisions, sign-out
//   - Refresh: token endpoint calls and retries
//   - Proxy: upstream forwarding
//   - Config: configuration loading
//
// # Usage
//
//	logging.Init(logging.ParseLevel("debug"), logging.FormatJSON, os.Stderr)
//
//	logging.Info("Gateway", "Listening on %s", addr)
//	logging.Error("Refresh", err, "Token refresh failed for session=%s",
//	    logging.TruncateSessionID(sessionID))
//
// # Secrets
//
// Access and refresh tokens must never be passed to these helpers. Session
// ids are passed through TruncateSessionID; refresh tokens are represented by
// a fingerprint (see internal/oauth.Fingerprint).
package logging
