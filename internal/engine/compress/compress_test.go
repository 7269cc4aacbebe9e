package compress

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/dshills/rewind/internal/engine/history"
)

func largeScene(n int) string {
	var b strings.Builder
	b.WriteString(`{"objects":[`)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(`{"type":"rect","left":10,"top":20,"width":100,"height":50,"fill":"#336699"}`)
	}
	b.WriteString(`]}`)
	return b.String()
}

func randomBytes(n int) string {
	r := rand.New(rand.NewSource(1))
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(r.Intn(256))
	}
	return string(buf)
}

func newZstd(t *testing.T) *Zstd {
	t.Helper()
	z, err := NewZstd()
	if err != nil {
		t.Fatalf("NewZstd() error = %v", err)
	}
	t.Cleanup(func() { z.Close() })
	return z
}

type failingCodec struct{}

func (failingCodec) Name() string                    { return "failing" }
func (failingCodec) Encode([]byte) ([]byte, error)   { return nil, errors.New("boom") }
func (failingCodec) Decode(b []byte) ([]byte, error) { return b, nil }

type truncatingCodec struct{ Codec }

func (c truncatingCodec) Decode(b []byte) ([]byte, error) {
	out, err := c.Codec.Decode(b)
	if err != nil {
		return nil, err
	}
	return out[:len(out)-1], nil
}

func TestCodecs_RoundTrip(t *testing.T) {
	codecs := []Codec{newZstd(t), NewGzip(6)}
	inputs := []string{"", "a", largeScene(500), randomBytes(4096)}

	for _, c := range codecs {
		for _, in := range inputs {
			enc, err := c.Encode([]byte(in))
			if err != nil {
				t.Fatalf("%s Encode() error = %v", c.Name(), err)
			}
			dec, err := c.Decode(enc)
			if err != nil {
				t.Fatalf("%s Decode() error = %v", c.Name(), err)
			}
			if string(dec) != in {
				t.Errorf("%s round trip mismatch for %d byte input", c.Name(), len(in))
			}
		}
	}
}

func TestCodecs_DecodeGarbage(t *testing.T) {
	for _, c := range []Codec{newZstd(t), NewGzip(6)} {
		if _, err := c.Decode([]byte("definitely not compressed")); err == nil {
			t.Errorf("%s Decode(garbage) should fail", c.Name())
		}
	}
}

func TestParseCodec(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"", "zstd", false},
		{"zstd", "zstd", false},
		{" GZIP ", "gzip", false},
		{"brotli", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseCodec(tt.name)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownCodec) {
					t.Errorf("ParseCodec(%q) error = %v, want ErrUnknownCodec", tt.name, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCodec(%q) error = %v", tt.name, err)
			}
			if c.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", c.Name(), tt.want)
			}
		})
	}
}

func TestGate_Apply(t *testing.T) {
	big := largeScene(400)
	if len(big) <= DefaultThreshold {
		t.Fatalf("fixture too small: %d bytes", len(big))
	}

	tests := []struct {
		name     string
		gate     *Gate
		snapshot string
		want     Skip
	}{
		{"above threshold", NewGate(newZstd(t), true, 0), big, SkipNone},
		{"gzip above threshold", NewGate(NewGzip(6), true, 0), big, SkipNone},
		{"below threshold", NewGate(newZstd(t), true, 0), largeScene(2), SkipBelowThreshold},
		{"exactly threshold", NewGate(newZstd(t), true, len(big)), big, SkipBelowThreshold},
		{"disabled", NewGate(newZstd(t), false, 0), big, SkipDisabled},
		{"nil codec", NewGate(nil, true, 0), big, SkipDisabled},
		{"incompressible", NewGate(newZstd(t), true, 1024), randomBytes(16 * 1024), SkipNoGain},
		{"codec error", NewGate(failingCodec{}, true, 0), big, SkipCodecError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := history.NewEntry(history.EntryParams{Snapshot: tt.snapshot})
			out := tt.gate.Apply(e)

			if out.Skip != tt.want {
				t.Fatalf("Skip = %v, want %v", out.Skip, tt.want)
			}
			if out.Compressed() != e.IsCompressed() {
				t.Errorf("Compressed() = %v, entry IsCompressed() = %v", out.Compressed(), e.IsCompressed())
			}

			ratio, ok := e.CompressionRatio()
			if tt.want == SkipNone {
				if !ok || ratio <= 0 || ratio >= 1 {
					t.Errorf("CompressionRatio() = %v, %v; want (0,1), true", ratio, ok)
				}
				if e.Snapshot() != "" {
					t.Error("raw snapshot should be released after compression")
				}
			} else {
				if ok {
					t.Error("uncompressed entry should have no ratio")
				}
				if e.Snapshot() != tt.snapshot {
					t.Error("raw snapshot should be kept when compression is skipped")
				}
			}

			got, err := tt.gate.Expand(e)
			if err != nil {
				t.Fatalf("Expand() error = %v", err)
			}
			if got != tt.snapshot {
				t.Error("Expand() did not return the original snapshot")
			}
		})
	}
}

func TestGate_ApplyOnce(t *testing.T) {
	g := NewGate(newZstd(t), true, 0)
	e := history.NewEntry(history.EntryParams{Snapshot: largeScene(400)})

	if out := g.Apply(e); !out.Compressed() {
		t.Fatalf("first Apply() skipped: %v", out.Skip)
	}
	first := e.Compressed()
	if out := g.Apply(e); out.Skip != SkipAlreadyCompressed {
		t.Errorf("second Apply() Skip = %v, want already compressed", out.Skip)
	}
	if &e.Compressed()[0] != &first[0] {
		t.Error("payload replaced by second Apply()")
	}
}

func TestGate_ExpandCorrupt(t *testing.T) {
	z := newZstd(t)
	g := NewGate(z, true, 0)
	e := history.NewEntry(history.EntryParams{Snapshot: largeScene(400)})
	g.Apply(e)

	bad := NewGate(truncatingCodec{z}, true, 0)
	if _, err := bad.Expand(e); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Expand() error = %v, want ErrCorrupt", err)
	}

	noCodec := NewGate(nil, false, 0)
	if _, err := noCodec.Expand(e); err == nil {
		t.Error("Expand() without codec should fail for compressed entry")
	}
}

func TestGate_Defaults(t *testing.T) {
	g := NewGate(NewGzip(100), true, -1)
	if g.Threshold() != DefaultThreshold {
		t.Errorf("Threshold() = %d, want %d", g.Threshold(), DefaultThreshold)
	}
	if !g.Enabled() {
		t.Error("gate should be enabled")
	}
	if g.Eligible(DefaultThreshold) {
		t.Error("size equal to threshold should not be eligible")
	}
	if !g.Eligible(DefaultThreshold + 1) {
		t.Error("size above threshold should be eligible")
	}
}

func TestSkip_String(t *testing.T) {
	if SkipNoGain.String() != "no gain" {
		t.Errorf("String() = %q", SkipNoGain.String())
	}
	if Skip(99).String() != "Skip(99)" {
		t.Errorf("String() = %q", Skip(99).String())
	}
}
