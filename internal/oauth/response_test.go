package oauth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTokenResponse_Valid(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		lifetime time.Duration
	}{
		{
			name:     "string expires_in",
			body:     `{"access_token":"a2","refresh_token":"r2","expires_in":"3600"}`,
			lifetime: time.Hour,
		},
		{
			name:     "numeric expires_in",
			body:     `{"access_token":"a2","refresh_token":"r2","expires_in":3600,"token_type":"Bearer"}`,
			lifetime: time.Hour,
		},
		{
			name:     "padded string expires_in",
			body:     `{"access_token":"a2","refresh_token":"r2","expires_in":" 3600 "}`,
			lifetime: time.Hour,
		},
		{
			name:     "zero lifetime",
			body:     ` {"access_token":"a2","refresh_token":"r2","expires_in":"0"} `,
			lifetime: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bundle, err := DecodeTokenResponse([]byte(tc.body))
			require.NoError(t, err)
			assert.Equal(t, "a2", bundle.AccessToken.Value())
			assert.Equal(t, "r2", bundle.RefreshToken.Value())
			assert.Equal(t, tc.lifetime, bundle.ExpiresIn)
		})
	}
}

func TestDecodeTokenResponse_MissingFields(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		missing []string
	}{
		{
			name:    "missing refresh_token",
			body:    `{"access_token":"a2","expires_in":"3600"}`,
			missing: []string{"refresh_token"},
		},
		{
			name:    "missing access_token",
			body:    `{"refresh_token":"r2","expires_in":"3600"}`,
			missing: []string{"access_token"},
		},
		{
			name:    "missing expires_in",
			body:    `{"access_token":"a2","refresh_token":"r2"}`,
			missing: []string{"expires_in"},
		},
		{
			name:    "null counts as missing",
			body:    `{"access_token":null,"refresh_token":"r2","expires_in":"3600"}`,
			missing: []string{"access_token"},
		},
		{
			name:    "empty object",
			body:    `{}`,
			missing: []string{"access_token", "refresh_token", "expires_in"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeTokenResponse([]byte(tc.body))
			var malformed *MalformedResponseError
			require.True(t, errors.As(err, &malformed), "expected MalformedResponseError, got %v", err)
			assert.Equal(t, tc.missing, malformed.Missing)
		})
	}
}

func TestDecodeTokenResponse_Garbage(t *testing.T) {
	bodies := []string{
		``,
		`null`,
		`[]`,
		`"token"`,
		`<html>gateway timeout</html>`,
		`{"access_token":"a2",`,
		`{"access_token":7,"refresh_token":"r2","expires_in":"3600"}`,
	}

	for _, body := range bodies {
		_, err := DecodeTokenResponse([]byte(body))
		var malformed *MalformedResponseError
		assert.True(t, errors.As(err, &malformed), "body %q: expected MalformedResponseError, got %v", body, err)
	}
}

func TestDecodeTokenResponse_BadExpiresIn(t *testing.T) {
	for _, value := range []string{`"soon"`, `"-5"`, `-5`, `3600.5`, `"1e3"`, `""`, `"  "`, `"36 00"`, `true`} {
		body := `{"access_token":"a2","refresh_token":"r2","expires_in":` + value + `}`
		_, err := DecodeTokenResponse([]byte(body))

		var malformed *MalformedResponseError
		require.True(t, errors.As(err, &malformed), "expires_in %s: got %v", value, err)
		assert.Empty(t, malformed.Missing)
	}
}

func TestDecodeTokenResponse_ParseErrorExposed(t *testing.T) {
	_, err := DecodeTokenResponse([]byte(`{"access_token":"a","refresh_token":"r","expires_in":"later"}`))

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "expires_in", parseErr.Field)
	assert.Equal(t, "later", parseErr.Value)
}
