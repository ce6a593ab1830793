package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bffgate/internal/oauth"
	"bffgate/internal/session"
)

type fakeStore struct {
	loaded  *session.Session
	loadErr error
	saveErr error

	saved   []*session.Session
	cleared int
}

func (f *fakeStore) Load(*http.Request) (*session.Session, error) {
	return f.loaded, f.loadErr
}

func (f *fakeStore) Save(_ http.ResponseWriter, _ *http.Request, s *session.Session) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, s)
	return nil
}

func (f *fakeStore) Clear(http.ResponseWriter, *http.Request) {
	f.cleared++
}

type fakeValidator struct {
	decision session.Decision
	err      error
	seen     []*session.Session
}

func (f *fakeValidator) Validate(_ context.Context, s *session.Session) (session.Decision, error) {
	f.seen = append(f.seen, s)
	return f.decision, f.err
}

type decisionLog []session.DecisionKind

func (d *decisionLog) ObserveDecision(kind session.DecisionKind) {
	*d = append(*d, kind)
}

// captureSession records the session the downstream handler saw.
func captureSession(called *bool, got **session.Session) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		*got, _ = session.FromContext(r.Context())
	})
}

func TestSessionMiddleware(t *testing.T) {
	current := &session.Session{ID: "11111111-aaaa", AccessToken: "a0", RefreshToken: "r0", ExpiresAt: "2026-05-04T10:02:00Z"}
	renewed := &session.Session{ID: "11111111-aaaa", AccessToken: "a1", RefreshToken: "r1", ExpiresAt: "2026-05-04T11:00:00Z"}

	tests := []struct {
		name      string
		store     *fakeStore
		validator *fakeValidator

		wantCalled   bool
		wantSession  *session.Session
		wantSaved    int
		wantCleared  int
		wantStatus   int
		wantDecision decisionLog
	}{
		{
			name:        "anonymous request passes through",
			store:       &fakeStore{},
			validator:   &fakeValidator{decision: session.Decision{Kind: session.DecisionUnchanged}},
			wantCalled:  true,
			wantStatus:  http.StatusOK,
		},
		{
			name:         "unchanged session reaches upstream",
			store:        &fakeStore{loaded: current},
			validator:    &fakeValidator{decision: session.Decision{Kind: session.DecisionUnchanged}},
			wantCalled:   true,
			wantSession:  current,
			wantStatus:   http.StatusOK,
			wantDecision: decisionLog{session.DecisionUnchanged},
		},
		{
			name:  "renewed session is saved and used",
			store: &fakeStore{loaded: current},
			validator: &fakeValidator{decision: session.Decision{
				Kind:    session.DecisionRenewed,
				Session: renewed,
			}},
			wantCalled:   true,
			wantSession:  renewed,
			wantSaved:    1,
			wantStatus:   http.StatusOK,
			wantDecision: decisionLog{session.DecisionRenewed},
		},
		{
			name:  "rejected session is cleared",
			store: &fakeStore{loaded: current},
			validator: &fakeValidator{decision: session.Decision{
				Kind:   session.DecisionRejected,
				Reason: oauth.ReasonNonSuccessStatus,
			}},
			wantCalled:   true,
			wantCleared:  1,
			wantStatus:   http.StatusOK,
			wantDecision: decisionLog{session.DecisionRejected},
		},
		{
			name:        "unreadable cookie is cleared",
			store:       &fakeStore{loadErr: errors.New("decrypting session: no identity matched")},
			validator:   &fakeValidator{decision: session.Decision{Kind: session.DecisionUnchanged}},
			wantCalled:  true,
			wantCleared: 1,
			wantStatus:  http.StatusOK,
		},
		{
			name:  "failed save signs out",
			store: &fakeStore{loaded: current, saveErr: errors.New("too many chunks")},
			validator: &fakeValidator{decision: session.Decision{
				Kind:    session.DecisionRenewed,
				Session: renewed,
			}},
			wantCalled:   true,
			wantCleared:  1,
			wantStatus:   http.StatusOK,
			wantDecision: decisionLog{session.DecisionRenewed},
		},
		{
			name:       "cancelled refresh leaves the cookie alone",
			store:      &fakeStore{loaded: current},
			validator:  &fakeValidator{err: context.Canceled},
			wantStatus: http.StatusOK,
		},
		{
			name:       "unexpected validator error",
			store:      &fakeStore{loaded: current},
			validator:  &fakeValidator{err: errors.New("boom")},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				called    bool
				got       *session.Session
				decisions decisionLog
			)
			handler := SessionMiddleware(tt.store, tt.validator, &decisions, captureSession(&called, &got))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalled, called)
			assert.Equal(t, tt.wantSession, got)
			assert.Len(t, tt.store.saved, tt.wantSaved)
			assert.Equal(t, tt.wantCleared, tt.store.cleared)
			assert.Equal(t, tt.wantDecision, decisions)
			require.Len(t, tt.validator.seen, 1)
		})
	}
}

func TestSessionMiddleware_NilObserver(t *testing.T) {
	store := &fakeStore{loaded: &session.Session{AccessToken: "a0"}}
	validator := &fakeValidator{decision: session.Decision{Kind: session.DecisionUnchanged}}

	var called bool
	var got *session.Session
	handler := SessionMiddleware(store, validator, nil, captureSession(&called, &got))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
	assert.Equal(t, "a0", got.AccessToken)
}
