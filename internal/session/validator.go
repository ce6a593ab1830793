package session

import (
	"context"
	"time"

	"k8s.io/utils/clock"

	"bffgate/internal/oauth"
	"bffgate/pkg/logging"
)

// RefreshWindow is how long before expiry a session's tokens are refreshed.
const RefreshWindow = 5 * time.Minute

// ReasonInvalidSession rejects a session whose stored expiry cannot be
// parsed.
const ReasonInvalidSession oauth.FailureReason = "invalid-session"

// Refresher exchanges a refresh token for new tokens.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) oauth.RefreshOutcome
}

// DecisionKind tags a Decision.
type DecisionKind int

const (
	// DecisionUnchanged keeps the session (or its absence) as it is.
	DecisionUnchanged DecisionKind = iota
	// DecisionRenewed replaces the session; the cookie must be re-issued.
	DecisionRenewed
	// DecisionRejected ends the session; the cookie must be cleared.
	DecisionRejected
)

// String makes DecisionKind satisfy the fmt.Stringer interface.
func (k DecisionKind) String() string {
	switch k {
	case DecisionUnchanged:
		return "unchanged"
	case DecisionRenewed:
		return "renewed"
	case DecisionRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Decision is the result of validating a request's session.
type Decision struct {
	Kind DecisionKind
	// Session is the replacement session when Kind is DecisionRenewed.
	Session *Session
	// Reason and Err explain a DecisionRejected.
	Reason oauth.FailureReason
	Err    error
}

// Validator decides, per request, whether a session is kept, renewed or
// rejected. It holds no per-request state.
type Validator struct {
	refresher Refresher
	clock     clock.PassiveClock
	window    time.Duration
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithValidatorClock sets the clock used for the refresh window.
func WithValidatorClock(c clock.PassiveClock) ValidatorOption {
	return func(v *Validator) {
		v.clock = c
	}
}

// WithRefreshWindow overrides RefreshWindow.
func WithRefreshWindow(d time.Duration) ValidatorOption {
	return func(v *Validator) {
		v.window = d
	}
}

// NewValidator creates a validator that renews through refresher.
func NewValidator(refresher Refresher, opts ...ValidatorOption) *Validator {
	v := &Validator{
		refresher: refresher,
		clock:     clock.RealClock{},
		window:    RefreshWindow,
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Validate inspects s and refreshes its tokens once they are within the
// refresh window of expiry.
//
// A nil session, or one without a refresh token or expiry, is left
// unchanged. A session is only replaced after the identity provider's
// answer was fully validated; a failed refresh rejects it. If ctx is
// cancelled while refreshing, Validate returns the context error and the
// caller must leave the session artifact untouched.
func (v *Validator) Validate(ctx context.Context, s *Session) (Decision, error) {
	if s == nil || !s.CanRefresh() {
		return Decision{Kind: DecisionUnchanged}, nil
	}

	expiresAt, err := s.Expiry()
	if err != nil {
		logging.Warn("Session", "Rejecting session=%s with unreadable expiry: %v",
			logging.TruncateSessionID(s.ID), err)
		return Decision{Kind: DecisionRejected, Reason: ReasonInvalidSession, Err: err}, nil
	}

	if v.clock.Now().Before(expiresAt.Add(-v.window)) {
		return Decision{Kind: DecisionUnchanged}, nil
	}

	logging.Debug("Session", "Session=%s expires at %s, refreshing",
		logging.TruncateSessionID(s.ID), s.ExpiresAt)

	outcome := v.refresher.Refresh(ctx, s.RefreshToken)
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}

	if !outcome.IsRenewed() {
		return Decision{Kind: DecisionRejected, Reason: outcome.Reason, Err: outcome.Err}, nil
	}

	renewed := s.Renew(*outcome.Bundle, v.clock.Now())
	return Decision{Kind: DecisionRenewed, Session: renewed}, nil
}
