package oauth

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

// tokenResponse is the wire shape of a token endpoint answer. Pointer fields
// distinguish an absent (or null) key from an empty value.
type tokenResponse struct {
	AccessToken  *string    `json:"access_token"`
	RefreshToken *string    `json:"refresh_token"`
	ExpiresIn    *expiresIn `json:"expires_in"`
}

// expiresIn accepts both "3600" and 3600 on the wire and keeps the raw text
// for parsing once presence has been checked.
type expiresIn string

func (e *expiresIn) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*e = expiresIn(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*e = expiresIn(n.String())
	return nil
}

// seconds parses the lifetime as a non-negative integer number of seconds.
// Surrounding whitespace is ignored.
func (e expiresIn) seconds() (time.Duration, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(string(e)), 10, 64)
	if err != nil {
		return 0, &ParseError{Field: "expires_in", Value: string(e), Err: err}
	}
	if n < 0 {
		return 0, &ParseError{Field: "expires_in", Value: string(e), Err: errors.New("negative lifetime")}
	}
	if n > int64(maxLifetime/time.Second) {
		return 0, &ParseError{Field: "expires_in", Value: string(e), Err: strconv.ErrRange}
	}
	return time.Duration(n) * time.Second, nil
}

// maxLifetime keeps now+expires_in representable.
const maxLifetime = 100 * 365 * 24 * time.Hour

// DecodeTokenResponse validates a 2xx token endpoint body and converts it into
// a TokenBundle. It returns a *MalformedResponseError when the body is not a
// JSON object, when a required key is missing, or when expires_in does not
// parse.
func DecodeTokenResponse(body []byte) (TokenBundle, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return TokenBundle{}, &MalformedResponseError{Err: errors.New("body is not a JSON object")}
	}

	var raw tokenResponse
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return TokenBundle{}, &MalformedResponseError{Err: err}
	}

	var missing []string
	if raw.AccessToken == nil {
		missing = append(missing, "access_token")
	}
	if raw.RefreshToken == nil {
		missing = append(missing, "refresh_token")
	}
	if raw.ExpiresIn == nil {
		missing = append(missing, "expires_in")
	}
	if len(missing) > 0 {
		return TokenBundle{}, &MalformedResponseError{Missing: missing}
	}

	lifetime, err := raw.ExpiresIn.seconds()
	if err != nil {
		return TokenBundle{}, &MalformedResponseError{Err: err}
	}

	return TokenBundle{
		AccessToken:  NewRedactedToken(*raw.AccessToken),
		RefreshToken: NewRedactedToken(*raw.RefreshToken),
		ExpiresIn:    lifetime,
	}, nil
}
