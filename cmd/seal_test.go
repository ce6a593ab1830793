package cmd

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"filippo.io/age"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bffgate/internal/session"
)

func newSealStore(t *testing.T) *session.Store {
	t.Helper()
	identity, err := age.GenerateX25519Identity()
	require.NoError(t, err)
	sealer, err := session.NewSealer(identity)
	require.NoError(t, err)
	return session.NewStore(sealer, session.CookieOptions{})
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func loadCookies(t *testing.T, store *session.Store, cookies []*http.Cookie) *session.Session {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	sess, err := store.Load(req)
	require.NoError(t, err)
	return sess
}

func TestSealTokenResponse(t *testing.T) {
	store := newSealStore(t)
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	idToken := signedToken(t, jwt.MapClaims{"sub": "alice", "email": "alice@example.com"})
	body := []byte(`{"access_token":"a1","refresh_token":"r1","expires_in":"3600","id_token":"` + idToken + `"}`)

	cookies, sess, err := sealTokenResponse(store, body, now)
	require.NoError(t, err)
	require.Len(t, cookies, 1)
	assert.Equal(t, session.DefaultCookieName, cookies[0].Name)

	loaded := loadCookies(t, store, cookies)
	assert.Equal(t, sess.ID, loaded.ID)
	assert.Equal(t, "a1", loaded.AccessToken)
	assert.Equal(t, "r1", loaded.RefreshToken)
	assert.Equal(t, "2026-05-04T11:00:00Z", loaded.ExpiresAt)
	assert.Equal(t, "alice", loaded.Subject())
	assert.Equal(t, "alice@example.com", loaded.Claims["email"])
}

func TestSealTokenResponse_OpaqueTokens(t *testing.T) {
	store := newSealStore(t)

	cookies, _, err := sealTokenResponse(store, []byte(`{"access_token":"opaque","refresh_token":"r1","expires_in":60}`), time.Now())
	require.NoError(t, err)

	loaded := loadCookies(t, store, cookies)
	assert.Nil(t, loaded.Claims)
}

func TestSealTokenResponse_Malformed(t *testing.T) {
	store := newSealStore(t)

	_, _, err := sealTokenResponse(store, []byte(`{"access_token":"a1"}`), time.Now())
	assert.ErrorContains(t, err, "invalid token response")
}

func TestSealTokenResponse_NonStringIDToken(t *testing.T) {
	store := newSealStore(t)

	body := []byte(`{"access_token":"a1","refresh_token":"r1","expires_in":60,"id_token":42}`)
	cookies, sess, err := sealTokenResponse(store, body, time.Now())
	assert.ErrorContains(t, err, "invalid id_token")
	assert.Nil(t, cookies)
	assert.Nil(t, sess)
}

func TestSealTokenResponse_NullIDToken(t *testing.T) {
	store := newSealStore(t)

	body := []byte(`{"access_token":"opaque","refresh_token":"r1","expires_in":60,"id_token":null}`)
	cookies, _, err := sealTokenResponse(store, body, time.Now())
	require.NoError(t, err)
	assert.Nil(t, loadCookies(t, store, cookies).Claims)
}

func TestPrincipalClaims_FallsBackToAccessToken(t *testing.T) {
	access := signedToken(t, jwt.MapClaims{"sub": "svc"})

	claims := principalClaims("not-a-jwt", access)
	assert.Equal(t, "svc", claims["sub"])
	assert.Nil(t, principalClaims("", "opaque"))
}
