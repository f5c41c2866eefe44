package container

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec identifies the compression algorithm used for a payload.
type Codec uint8

const (
	CodecNone Codec = iota
	CodecGzip
	CodecZstd
	CodecLz4
)

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecGzip:
		return "gzip"
	case CodecZstd:
		return "zstd"
	case CodecLz4:
		return "lz4"
	default:
		return "unknown"
	}
}

// ParseCodec maps a codec name to its tag. Recognized names are "none",
// "gzip", "zstd" and "lz4".
func ParseCodec(name string) (Codec, error) {
	switch name {
	case "none", "":
		return CodecNone, nil
	case "gzip":
		return CodecGzip, nil
	case "zstd":
		return CodecZstd, nil
	case "lz4":
		return CodecLz4, nil
	default:
		return CodecNone, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

// lz4Levels maps levels 1-9 to lz4 compression levels. Level 0 uses the
// fast path.
var lz4Levels = [...]lz4.CompressionLevel{
	lz4.Fast,
	lz4.Level1, lz4.Level2, lz4.Level3,
	lz4.Level4, lz4.Level5, lz4.Level6,
	lz4.Level7, lz4.Level8, lz4.Level9,
}

// newEncoder wraps w with an encoder for the codec. The caller must Close
// the returned writer to flush; closing does not close w.
func newEncoder(c Codec, level int, w io.Writer) (io.WriteCloser, error) {
	if c != CodecNone && (level < 0 || level > 9) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}
	switch c {
	case CodecNone:
		return nopWriteCloser{w}, nil
	case CodecGzip:
		return gzip.NewWriterLevel(w, level)
	case CodecZstd:
		lvl := zstd.EncoderLevelFromZstd(level)
		return zstd.NewWriter(w,
			zstd.WithEncoderLevel(lvl),
			zstd.WithEncoderConcurrency(1),
			zstd.WithLowerEncoderMem(true),
		)
	case CodecLz4:
		zw := lz4.NewWriter(w)
		if err := zw.Apply(lz4.CompressionLevelOption(lz4Levels[level])); err != nil {
			return nil, fmt.Errorf("configure lz4 encoder: %w", err)
		}
		return zw, nil
	default:
		return nil, fmt.Errorf("%w: tag %d", ErrUnknownCodec, c)
	}
}

// newDecoder wraps r with a decoder for the codec. Closing the returned
// reader releases decoder state; it does not close r.
func newDecoder(c Codec, r io.Reader) (io.ReadCloser, error) {
	switch c {
	case CodecNone:
		return io.NopCloser(r), nil
	case CodecGzip:
		return gzip.NewReader(r)
	case CodecZstd:
		dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case CodecLz4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("%w: tag %d", ErrUnknownCodec, c)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
