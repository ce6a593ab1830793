package server

import (
	"context"
	"errors"
	"net/http"

	"bffgate/internal/session"
	"bffgate/pkg/logging"
)

// SessionStore loads and writes the session artifact.
type SessionStore interface {
	Load(r *http.Request) (*session.Session, error)
	Save(w http.ResponseWriter, r *http.Request, s *session.Session) error
	Clear(w http.ResponseWriter, r *http.Request)
}

// SessionValidator decides what happens to a request's session.
type SessionValidator interface {
	Validate(ctx context.Context, s *session.Session) (session.Decision, error)
}

// DecisionObserver is told about every decision taken for a present session.
type DecisionObserver interface {
	ObserveDecision(kind session.DecisionKind)
}

// SessionMiddleware runs the validator on every request before next.
//
// An unreadable artifact is cleared and the request continues
// unauthenticated. A renewed session is written back before next runs; a
// rejected one is cleared, which signs the user out, and the request
// continues unauthenticated. When the request context ends during a refresh
// the artifact is left as it was and next is not called.
func SessionMiddleware(store SessionStore, validator SessionValidator, observer DecisionObserver, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := RequestIDFromContext(ctx)

		sess, err := store.Load(r)
		if err != nil {
			logging.Warn("Session", "Discarding unreadable session cookie (request %s): %v", requestID, err)
			store.Clear(w, r)
			sess = nil
		}

		decision, err := validator.Validate(ctx, sess)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				logging.Debug("Session", "Request %s ended during token refresh: %v", requestID, err)
				return
			}
			logging.Error("Session", err, "Session validation failed (request %s)", requestID)
			http.Error(w, "session validation failed", http.StatusInternalServerError)
			return
		}

		if sess != nil && observer != nil {
			observer.ObserveDecision(decision.Kind)
		}

		switch decision.Kind {
		case session.DecisionRenewed:
			if err := store.Save(w, r, decision.Session); err != nil {
				logging.Error("Session", err, "Failed to write renewed session %s (request %s)",
					logging.TruncateSessionID(decision.Session.ID), requestID)
				store.Clear(w, r)
				sess = nil
			} else {
				sess = decision.Session
			}
		case session.DecisionRejected:
			logging.Info("Session", "Signing out session %s (request %s): %s",
				logging.TruncateSessionID(sess.ID), requestID, decision.Reason)
			store.Clear(w, r)
			sess = nil
		}

		if sess != nil {
			r = r.WithContext(session.NewContext(ctx, sess))
		}
		next.ServeHTTP(w, r)
	})
}
