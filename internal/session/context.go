package session

import "context"

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const sessionKey contextKey = "bffgate_session"

// NewContext returns a context carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// FromContext returns the session stored by NewContext. It reports false
// when the request is unauthenticated.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey).(*Session)
	return s, ok && s != nil
}
