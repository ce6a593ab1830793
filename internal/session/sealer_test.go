package session

import (
	"strings"
	"testing"

	"filippo.io/age"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSealer(t *testing.T) (*Sealer, *age.X25519Identity) {
	t.Helper()
	identity, err := age.GenerateX25519Identity()
	require.NoError(t, err)
	sealer, err := NewSealer(identity)
	require.NoError(t, err)
	return sealer, identity
}

func sampleSession() *Session {
	return &Session{
		ID:           "0f8fad5b-d9cb-469f-a165-70867728950e",
		AccessToken:  "a1",
		RefreshToken: "r1",
		ExpiresAt:    "2026-05-04T09:00:00Z",
		Claims: map[string]any{
			"sub":    "alice",
			"groups": []any{"admins", "dev"},
		},
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	data, err := Encode(sampleSession())
	require.NoError(t, err)
	assert.Equal(t, recordVersion, data[0])

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, sampleSession(), decoded)
}

func TestCodec_RejectsUnknownVersion(t *testing.T) {
	data, err := Encode(sampleSession())
	require.NoError(t, err)
	data[0] = 9

	_, err = Decode(data)
	assert.ErrorIs(t, err, ErrUnsupportedRecord)

	_, err = Decode(nil)
	assert.Error(t, err)
}

func TestSealer_RoundTrip(t *testing.T) {
	sealer, _ := newTestSealer(t)

	value, err := sealer.Seal(sampleSession())
	require.NoError(t, err)
	assert.NotContains(t, value, "a1")
	assert.NotContains(t, value, "=")

	opened, err := sealer.Open(value)
	require.NoError(t, err)
	assert.Equal(t, sampleSession(), opened)
}

func TestSealer_WrongKey(t *testing.T) {
	sealer, _ := newTestSealer(t)
	other, _ := newTestSealer(t)

	value, err := sealer.Seal(sampleSession())
	require.NoError(t, err)

	_, err = other.Open(value)
	assert.Error(t, err)

	_, err = sealer.Open("not*base64")
	assert.Error(t, err)

	_, err = sealer.Open(value[:len(value)-10])
	assert.Error(t, err)
}

func TestSealer_KeyRotation(t *testing.T) {
	oldSealer, oldIdentity := newTestSealer(t)
	newIdentity, err := age.GenerateX25519Identity()
	require.NoError(t, err)

	value, err := oldSealer.Seal(sampleSession())
	require.NoError(t, err)

	rotated, err := NewSealer(newIdentity, oldIdentity)
	require.NoError(t, err)

	opened, err := rotated.Open(value)
	require.NoError(t, err)
	assert.Equal(t, "a1", opened.AccessToken)

	resealed, err := rotated.Seal(opened)
	require.NoError(t, err)
	_, err = oldSealer.Open(resealed)
	assert.Error(t, err, "new seals must use the first identity")
}

func TestParseIdentities(t *testing.T) {
	first, err := age.GenerateX25519Identity()
	require.NoError(t, err)
	second, err := age.GenerateX25519Identity()
	require.NoError(t, err)

	contents := "# created: 2026-05-04\n# public key: " + first.Recipient().String() + "\n" +
		first.String() + "\n\n" + second.String() + "\n"

	identities, err := ParseIdentities(strings.NewReader(contents))
	require.NoError(t, err)
	require.Len(t, identities, 2)
	assert.Equal(t, first.String(), identities[0].String())

	sealer, err := SealerFromString(contents)
	require.NoError(t, err)
	assert.NotNil(t, sealer)

	_, err = SealerFromString("garbage")
	assert.Error(t, err)

	_, err = NewSealer()
	assert.Error(t, err)
}
