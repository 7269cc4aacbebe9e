package compress

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Errors returned by codecs.
var (
	// ErrUnknownCodec indicates a codec name is not recognized.
	ErrUnknownCodec = errors.New("unknown codec")

	// ErrTooLarge indicates a decoded payload exceeds the configured limit.
	ErrTooLarge = errors.New("decoded payload too large")
)

// DefaultMaxDecodedSize caps the size of a single decoded snapshot.
const DefaultMaxDecodedSize = 256 << 20

// Codec converts snapshots to and from a compressed form.
// Implementations must be safe for concurrent use and Decode must be the
// exact inverse of Encode.
type Codec interface {
	Name() string
	Encode(src []byte) ([]byte, error)
	Decode(src []byte) ([]byte, error)
}

// Zstd is a Codec backed by klauspost/compress/zstd.
type Zstd struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewZstd creates a zstd codec at the default speed level.
func NewZstd() (*Zstd, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(DefaultMaxDecodedSize),
	)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &Zstd{enc: enc, dec: dec}, nil
}

// Name returns "zstd".
func (z *Zstd) Name() string { return "zstd" }

// Encode compresses src as a single zstd frame.
func (z *Zstd) Encode(src []byte) ([]byte, error) {
	return z.enc.EncodeAll(src, make([]byte, 0, len(src)/4)), nil
}

// Decode decompresses a frame produced by Encode.
func (z *Zstd) Decode(src []byte) ([]byte, error) {
	out, err := z.dec.DecodeAll(src, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	return out, nil
}

// Close releases encoder and decoder resources.
func (z *Zstd) Close() error {
	z.dec.Close()
	return z.enc.Close()
}

// Gzip is a Codec using compress/gzip.
type Gzip struct {
	level int
}

// NewGzip creates a gzip codec. Invalid levels fall back to the default.
func NewGzip(level int) *Gzip {
	if level < gzip.HuffmanOnly || level > gzip.BestCompression {
		level = gzip.DefaultCompression
	}
	return &Gzip{level: level}
}

// Name returns "gzip".
func (g *Gzip) Name() string { return "gzip" }

// Encode compresses src.
func (g *Gzip) Encode(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, g.level)
	if err != nil {
		return nil, fmt.Errorf("gzip writer: %w", err)
	}
	if _, err := w.Write(src); err != nil {
		return nil, fmt.Errorf("gzip write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode decompresses src.
func (g *Gzip) Decode(src []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("gzip reader: %w", err)
	}
	defer r.Close()

	// Limit copy size to guard against decompression bombs
	out, err := io.ReadAll(io.LimitReader(r, DefaultMaxDecodedSize+1))
	if err != nil {
		return nil, fmt.Errorf("gzip read: %w", err)
	}
	if len(out) > DefaultMaxDecodedSize {
		return nil, ErrTooLarge
	}
	return out, nil
}

// ParseCodec returns the codec with the given name ("zstd" or "gzip").
// An empty name selects zstd.
func ParseCodec(name string) (Codec, error) {
	if err := CheckName(name); err != nil {
		return nil, err
	}
	if normalizeName(name) == "gzip" {
		return NewGzip(gzip.DefaultCompression), nil
	}
	return NewZstd()
}

// CheckName returns ErrUnknownCodec if ParseCodec would reject name.
func CheckName(name string) error {
	switch normalizeName(name) {
	case "", "zstd", "gzip":
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
