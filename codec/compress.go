package codec

import (
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// ZstdCodec wraps another codec with zstd stream compression.
// Use [Zstd] to construct one.
type ZstdCodec struct {
	inner Codec
}

// Zstd returns a codec that compresses inner's output with zstd.
// If inner is nil, [Default] is used.
func Zstd(inner Codec) ZstdCodec {
	if inner == nil {
		inner = Default
	}
	return ZstdCodec{inner: inner}
}

// Encode compresses the inner encoding of v into w.
func (c ZstdCodec) Encode(w io.Writer, v any) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return encodeErr(c.Name(), err)
	}
	if err := c.inner.Encode(zw, v); err != nil {
		_ = zw.Close()
		return err
	}
	return encodeErr(c.Name(), zw.Close())
}

// Decode decompresses r and decodes the inner value into v.
func (c ZstdCodec) Decode(r io.Reader, v any) error {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return decodeErr(c.Name(), err)
	}
	defer zr.Close()
	return c.inner.Decode(zr, v)
}

// Name returns "zstd+" followed by the inner codec name.
func (c ZstdCodec) Name() string { return "zstd+" + c.inner.Name() }

// Binary reports binary stream semantics.
func (ZstdCodec) Binary() bool { return true }

// LZ4Codec wraps another codec with lz4 frame compression.
// Use [LZ4] to construct one.
type LZ4Codec struct {
	inner Codec
}

// LZ4 returns a codec that compresses inner's output with lz4 frames.
// If inner is nil, [Default] is used.
func LZ4(inner Codec) LZ4Codec {
	if inner == nil {
		inner = Default
	}
	return LZ4Codec{inner: inner}
}

// Encode compresses the inner encoding of v into w.
func (c LZ4Codec) Encode(w io.Writer, v any) error {
	lw := lz4.NewWriter(w)
	if err := c.inner.Encode(lw, v); err != nil {
		_ = lw.Close()
		return err
	}
	return encodeErr(c.Name(), lw.Close())
}

// Decode decompresses r and decodes the inner value into v.
func (c LZ4Codec) Decode(r io.Reader, v any) error {
	return c.inner.Decode(lz4.NewReader(r), v)
}

// Name returns "lz4+" followed by the inner codec name.
func (c LZ4Codec) Name() string { return "lz4+" + c.inner.Name() }

// Binary reports binary stream semantics.
func (LZ4Codec) Binary() bool { return true }
