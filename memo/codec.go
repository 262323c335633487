package memo

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Codec serializes function results for storage. Implementations must
// round-trip values with full fidelity.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: Decode failures on well-formed input from Encode are bugs;
//   Decode failures on foreign bytes must be reported, not panic.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte) (any, error)
}

// envelope wraps the stored value so gob can carry any concrete type
// behind a single interface field.
type envelope struct {
	Value any
}

func init() {
	// Pre-register the types a memoized function most commonly returns,
	// so the default codec works without ceremony.
	gob.Register(map[string]any{})
	gob.Register([]any{})
	gob.Register(time.Time{})
	gob.Register([]string{})
	gob.Register([]int{})
	gob.Register([]float64{})
}

// GobCodec serializes values with encoding/gob. It is the default codec.
type GobCodec struct{}

// Encode gob-encodes v.
func (GobCodec) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(envelope{Value: v}); err != nil {
		return nil, fmt.Errorf("memo: encoding value: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode gob-decodes a stored entry. Malformed input reports
// ErrCorruptEntry.
func (GobCodec) Decode(data []byte) (any, error) {
	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
	}
	return env.Value, nil
}

// ZstdCodec compresses another codec's output with zstandard.
type ZstdCodec struct {
	inner Codec
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

// NewZstdCodec wraps inner (GobCodec when nil) with zstd compression.
func NewZstdCodec(inner Codec) (*ZstdCodec, error) {
	if inner == nil {
		inner = GobCodec{}
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("memo: creating zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("memo: creating zstd decoder: %w", err)
	}
	return &ZstdCodec{inner: inner, enc: enc, dec: dec}, nil
}

// Encode serializes v with the inner codec and compresses the result.
func (c *ZstdCodec) Encode(v any) ([]byte, error) {
	data, err := c.inner.Encode(v)
	if err != nil {
		return nil, err
	}
	return c.enc.EncodeAll(data, nil), nil
}

// Decode decompresses a stored entry and decodes it with the inner codec.
func (c *ZstdCodec) Decode(data []byte) (any, error) {
	raw, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
	}
	return c.inner.Decode(raw)
}

// Ensure codecs implement Codec
var (
	_ Codec = GobCodec{}
	_ Codec = (*ZstdCodec)(nil)
)
