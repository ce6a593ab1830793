package oauth

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// fingerprintLength is the number of hex characters kept from the digest.
const fingerprintLength = 12

// RedactedToken wraps a sensitive token string to prevent accidental logging.
//
// It implements fmt.Stringer, fmt.GoStringer and the text/JSON marshalers so
// that printing or serializing the value yields "[REDACTED]".
type RedactedToken struct {
	value string
}

// NewRedactedToken creates a new RedactedToken wrapping the given value.
func NewRedactedToken(value string) RedactedToken {
	return RedactedToken{value: value}
}

// Value returns the actual token value. Never log the result.
func (t RedactedToken) Value() string {
	return t.value
}

// String implements fmt.Stringer.
func (t RedactedToken) String() string {
	return "[REDACTED]"
}

// GoString implements fmt.GoStringer for %#v formatting.
func (t RedactedToken) GoString() string {
	return "oauth.RedactedToken{[REDACTED]}"
}

// IsEmpty returns true if the token value is empty.
func (t RedactedToken) IsEmpty() bool {
	return t.value == ""
}

// Fingerprint returns a short, log-safe digest of the token.
func (t RedactedToken) Fingerprint() string {
	return Fingerprint(t.value)
}

// MarshalText implements encoding.TextMarshaler.
func (t RedactedToken) MarshalText() ([]byte, error) {
	return []byte("[REDACTED]"), nil
}

// MarshalJSON implements json.Marshaler.
func (t RedactedToken) MarshalJSON() ([]byte, error) {
	return []byte(`"[REDACTED]"`), nil
}

// Fingerprint returns the first hex characters of the blake3 digest of
// token, so log lines can correlate a refresh token lineage without
// revealing it. The empty token has the empty fingerprint.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	sum := blake3.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])[:fingerprintLength]
}
