package session

import (
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"bffgate/internal/oauth"
)

// ExpiresAtLayout is the layout of Session.ExpiresAt: ISO-8601 in UTC.
const ExpiresAtLayout = time.RFC3339Nano

// Session is the decrypted content of the session cookie.
//
// AccessToken and RefreshToken are only replaced together, through Renew.
// ExpiresAt is kept in its stored string form so that a session issued
// without an expiry (or with a garbled one) can be told apart from a valid
// one.
type Session struct {
	ID           string         `cbor:"id"`
	AccessToken  string         `cbor:"access_token"`
	RefreshToken string         `cbor:"refresh_token,omitempty"`
	ExpiresAt    string         `cbor:"expires_at,omitempty"`
	Claims       map[string]any `cbor:"claims,omitempty"`
}

// New creates a session with a fresh lineage id. A zero expiresAt leaves
// ExpiresAt empty.
func New(accessToken, refreshToken string, expiresAt time.Time, claims map[string]any) *Session {
	s := &Session{
		ID:           uuid.NewString(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Claims:       claims,
	}
	if !expiresAt.IsZero() {
		s.ExpiresAt = FormatExpiry(expiresAt)
	}
	return s
}

// FormatExpiry renders t the way ExpiresAt stores it.
func FormatExpiry(t time.Time) string {
	return t.UTC().Format(ExpiresAtLayout)
}

// CanRefresh reports whether the session carries both a refresh token and an
// expiry. Sessions without them are never refreshed.
func (s *Session) CanRefresh() bool {
	return s.RefreshToken != "" && s.ExpiresAt != ""
}

// localExpiryLayout accepts an ExpiresAt written without a UTC offset. Such
// values are read as UTC.
const localExpiryLayout = "2006-01-02T15:04:05.999999999"

// Expiry parses ExpiresAt.
func (s *Session) Expiry() (time.Time, error) {
	value := strings.TrimSpace(s.ExpiresAt)
	t, err := time.Parse(ExpiresAtLayout, value)
	if err != nil {
		var localErr error
		if t, localErr = time.Parse(localExpiryLayout, value); localErr != nil {
			return time.Time{}, &oauth.ParseError{Field: "expires_at", Value: s.ExpiresAt, Err: err}
		}
	}
	return t, nil
}

// Renew returns a copy of the session carrying the bundle's tokens and an
// expiry of now plus the bundle lifetime. The receiver is not modified.
func (s *Session) Renew(bundle oauth.TokenBundle, now time.Time) *Session {
	return &Session{
		ID:           s.ID,
		AccessToken:  bundle.AccessToken.Value(),
		RefreshToken: bundle.RefreshToken.Value(),
		ExpiresAt:    FormatExpiry(now.Add(bundle.ExpiresIn)),
		Claims:       maps.Clone(s.Claims),
	}
}

// Token returns the session's access token as an oauth2.Token so it can be
// attached to outbound requests with SetAuthHeader.
func (s *Session) Token() *oauth2.Token {
	token := &oauth2.Token{
		AccessToken:  s.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: s.RefreshToken,
	}
	if expiry, err := s.Expiry(); err == nil {
		token.Expiry = expiry
	}
	return token
}

// Subject returns the "sub" claim, if any.
func (s *Session) Subject() string {
	sub, _ := s.Claims["sub"].(string)
	return sub
}
