package session

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"filippo.io/age"
)

// Sealer encrypts session records to the gateway's own age X25519 identity
// and decrypts them again. Additional identities are accepted for opening
// only, which allows rotating the sealing key without signing everyone out.
type Sealer struct {
	recipient  age.Recipient
	identities []age.Identity
}

// NewSealer seals to the first identity and opens with any of them.
func NewSealer(identities ...*age.X25519Identity) (*Sealer, error) {
	if len(identities) == 0 {
		return nil, errors.New("at least one identity is required")
	}

	s := &Sealer{recipient: identities[0].Recipient()}
	for _, id := range identities {
		s.identities = append(s.identities, id)
	}
	return s, nil
}

// ParseIdentities reads age X25519 identities in the age key file format:
// one AGE-SECRET-KEY-1... per line, with "#" comments and blank lines
// ignored. The first identity is used for sealing.
func ParseIdentities(r io.Reader) ([]*age.X25519Identity, error) {
	parsed, err := age.ParseIdentities(r)
	if err != nil {
		return nil, fmt.Errorf("parsing age identities: %w", err)
	}

	out := make([]*age.X25519Identity, 0, len(parsed))
	for _, id := range parsed {
		x, ok := id.(*age.X25519Identity)
		if !ok {
			return nil, fmt.Errorf("unsupported identity type %T", id)
		}
		out = append(out, x)
	}
	return out, nil
}

// LoadSealer builds a Sealer from an identity file.
func LoadSealer(path string) (*Sealer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening identity file: %w", err)
	}
	defer f.Close()

	identities, err := ParseIdentities(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewSealer(identities...)
}

// SealerFromString builds a Sealer from identity file contents.
func SealerFromString(contents string) (*Sealer, error) {
	identities, err := ParseIdentities(strings.NewReader(contents))
	if err != nil {
		return nil, err
	}
	return NewSealer(identities...)
}

// Seal encodes and encrypts s, returning a cookie-safe string.
func (s *Sealer) Seal(sess *Session) (string, error) {
	record, err := Encode(sess)
	if err != nil {
		return "", err
	}

	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, s.recipient)
	if err != nil {
		return "", fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := writer.Write(record); err != nil {
		return "", fmt.Errorf("writing session to age encryptor: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalizing age encryption: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(ciphertext.Bytes()), nil
}

// Open decrypts and decodes a value produced by Seal.
func (s *Sealer) Open(value string) (*Session, error) {
	ciphertext, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decoding sealed session: %w", err)
	}

	reader, err := age.Decrypt(bytes.NewReader(ciphertext), s.identities...)
	if err != nil {
		return nil, fmt.Errorf("decrypting session: %w", err)
	}

	record, err := io.ReadAll(io.LimitReader(reader, maxRecordBytes))
	if err != nil {
		return nil, fmt.Errorf("reading decrypted session: %w", err)
	}

	return Decode(record)
}
