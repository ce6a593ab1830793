package session

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
)

// recordVersion prefixes every encoded session so the format can evolve.
const recordVersion byte = 1

// maxRecordBytes bounds the decompressed size of a session record.
const maxRecordBytes = 64 << 10

var (
	encMode cbor.EncMode
	decMode cbor.DecMode

	compressor   *zstd.Encoder
	decompressor *zstd.Decoder
)

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("session: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Claims are decoded into map[string]any rather than CBOR's
		// default map[interface{}]interface{}.
		DefaultMapType:   reflect.TypeOf(map[string]any(nil)),
		MaxMapPairs:      1024,
		MaxArrayElements: 1024,
	}.DecMode()
	if err != nil {
		panic("session: CBOR decoder initialization failed: " + err.Error())
	}

	compressor, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("session: zstd encoder initialization failed: " + err.Error())
	}

	decompressor, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxRecordBytes))
	if err != nil {
		panic("session: zstd decoder initialization failed: " + err.Error())
	}
}

// ErrUnsupportedRecord is returned for a record with an unknown version.
var ErrUnsupportedRecord = errors.New("unsupported session record version")

// Encode serializes s as version byte + zstd(CBOR).
func Encode(s *Session) ([]byte, error) {
	raw, err := encMode.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding session: %w", err)
	}

	out := make([]byte, 1, 1+len(raw))
	out[0] = recordVersion
	return compressor.EncodeAll(raw, out), nil
}

// Decode is the inverse of Encode.
func Decode(data []byte) (*Session, error) {
	if len(data) == 0 {
		return nil, errors.New("empty session record")
	}
	if data[0] != recordVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedRecord, data[0])
	}

	raw, err := decompressor.DecodeAll(data[1:], nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing session: %w", err)
	}

	var s Session
	if err := decMode.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &s, nil
}
