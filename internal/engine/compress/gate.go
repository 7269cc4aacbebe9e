package compress

import (
	"errors"
	"fmt"

	"github.com/dshills/rewind/internal/engine/history"
)

// DefaultThreshold is the snapshot size, in bytes, above which entries are
// compressed.
const DefaultThreshold = 10 * 1024

// ErrCorrupt indicates a compressed payload did not decode to the size
// recorded at capture time.
var ErrCorrupt = errors.New("compressed payload corrupt")

// Skip explains why an entry was left uncompressed.
type Skip uint8

const (
	// SkipNone means the entry was compressed.
	SkipNone Skip = iota
	// SkipDisabled means compression is turned off.
	SkipDisabled
	// SkipBelowThreshold means the snapshot is not larger than the threshold.
	SkipBelowThreshold
	// SkipAlreadyCompressed means the entry already carries a payload.
	SkipAlreadyCompressed
	// SkipNoGain means the encoded form was not smaller.
	SkipNoGain
	// SkipCodecError means the codec failed.
	SkipCodecError
)

var skipNames = [...]string{
	SkipNone:              "none",
	SkipDisabled:          "disabled",
	SkipBelowThreshold:    "below threshold",
	SkipAlreadyCompressed: "already compressed",
	SkipNoGain:            "no gain",
	SkipCodecError:        "codec error",
}

func (s Skip) String() string {
	if int(s) < len(skipNames) {
		return skipNames[s]
	}
	return fmt.Sprintf("Skip(%d)", s)
}

// Outcome reports what Apply did to an entry.
type Outcome struct {
	Skip  Skip
	Ratio float64
	// Err is the codec error when Skip is SkipCodecError. It is informational;
	// the entry keeps its raw snapshot.
	Err error
}

// Compressed reports whether the entry was compressed by this call.
func (o Outcome) Compressed() bool { return o.Skip == SkipNone }

// Gate decides which entries get compressed and performs the compression.
type Gate struct {
	enabled   bool
	threshold int
	codec     Codec
}

// NewGate creates a gate. A nil codec disables compression; a non-positive
// threshold selects DefaultThreshold.
func NewGate(codec Codec, enabled bool, threshold int) *Gate {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Gate{
		enabled:   enabled && codec != nil,
		threshold: threshold,
		codec:     codec,
	}
}

// Enabled reports whether the gate compresses anything.
func (g *Gate) Enabled() bool { return g.enabled }

// Threshold returns the size threshold in bytes.
func (g *Gate) Threshold() int { return g.threshold }

// Codec returns the underlying codec, which may be nil.
func (g *Gate) Codec() Codec { return g.codec }

// Eligible reports whether a snapshot of the given size would be compressed.
func (g *Gate) Eligible(sizeBytes int) bool {
	return g.enabled && sizeBytes > g.threshold
}

// Apply compresses the entry if it is eligible. Failures never propagate:
// the entry simply stays uncompressed.
//
// Apply may run concurrently with readers of e; the payload swap is atomic.
func (g *Gate) Apply(e *history.Entry) Outcome {
	snapshot, compressed := e.Payload()
	switch {
	case !g.enabled:
		return Outcome{Skip: SkipDisabled}
	case compressed != nil:
		return Outcome{Skip: SkipAlreadyCompressed}
	case !g.Eligible(e.SizeBytes()):
		return Outcome{Skip: SkipBelowThreshold}
	}

	data, err := g.codec.Encode([]byte(snapshot))
	if err != nil {
		return Outcome{Skip: SkipCodecError, Err: err}
	}
	if len(data) == 0 || len(data) >= e.SizeBytes() {
		return Outcome{Skip: SkipNoGain}
	}

	ratio := float64(len(data)) / float64(e.SizeBytes())
	if !e.SetCompressed(data, ratio) {
		return Outcome{Skip: SkipAlreadyCompressed}
	}
	return Outcome{Skip: SkipNone, Ratio: ratio}
}

// Expand returns the snapshot held by the entry, decoding the compressed
// payload when present.
func (g *Gate) Expand(e *history.Entry) (string, error) {
	snapshot, data := e.Payload()
	if data == nil {
		return snapshot, nil
	}
	if g.codec == nil {
		return "", fmt.Errorf("entry %s: compressed payload but no codec", e.ID())
	}

	raw, err := g.codec.Decode(data)
	if err != nil {
		return "", fmt.Errorf("entry %s: %w", e.ID(), err)
	}
	if len(raw) != e.SizeBytes() {
		return "", fmt.Errorf("entry %s: decoded %d bytes, want %d: %w", e.ID(), len(raw), e.SizeBytes(), ErrCorrupt)
	}
	return string(raw), nil
}
