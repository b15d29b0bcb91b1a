package codec

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdErr     error
)

func zstdCoders() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEncoder, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil)
	})
	return zstdEncoder, zstdDecoder, zstdErr
}

// Zstd wraps Inner and compresses its output with zstd.
// Encoder and decoder are shared; EncodeAll and DecodeAll are concurrency safe.
type Zstd struct {
	Inner Codec
}

func (z Zstd) inner() Codec {
	if z.Inner == nil {
		return Default
	}
	return z.Inner
}

// Marshal encodes v with Inner and compresses the result.
func (z Zstd) Marshal(v any) ([]byte, error) {
	raw, err := z.inner().Marshal(v)
	if err != nil {
		return nil, err
	}
	enc, _, err := zstdCoders()
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

// Unmarshal decompresses data and decodes it with Inner.
func (z Zstd) Unmarshal(data []byte, v any) error {
	_, dec, err := zstdCoders()
	if err != nil {
		return err
	}
	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return fmt.Errorf("zstd decode: %w", err)
	}
	return z.inner().Unmarshal(raw, v)
}

// Name returns "zstd".
func (Zstd) Name() string { return "zstd" }

// LZ4 wraps Inner and compresses its output as an lz4 frame.
type LZ4 struct {
	Inner Codec
}

func (l LZ4) inner() Codec {
	if l.Inner == nil {
		return Default
	}
	return l.Inner
}

// Marshal encodes v with Inner and compresses the result.
func (l LZ4) Marshal(v any) ([]byte, error) {
	raw, err := l.inner().Marshal(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(raw); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decompresses data and decodes it with Inner.
func (l LZ4) Unmarshal(data []byte, v any) error {
	raw, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	if err != nil {
		return fmt.Errorf("lz4 decode: %w", err)
	}
	return l.inner().Unmarshal(raw, v)
}

// Name returns "lz4".
func (LZ4) Name() string { return "lz4" }
