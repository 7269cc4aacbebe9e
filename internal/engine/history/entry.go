package history

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EntryParams holds the fields used to build an Entry.
type EntryParams struct {
	Snapshot          string
	Timestamp         time.Time
	ActionType        ActionType
	Description       string
	AffectedObjectIDs []string
	SessionID         string
}

// Entry is a single captured document snapshot.
//
// All fields are fixed at creation. The only permitted change is the
// one-time attachment of a compressed form via SetCompressed, after which the
// compressed bytes become the authoritative payload.
type Entry struct {
	id          string
	timestamp   time.Time
	actionType  ActionType
	description string
	affected    []string
	sizeBytes   int
	sessionID   string

	mu         sync.RWMutex
	snapshot   string
	compressed []byte
	ratio      float64
}

// NewEntry creates an entry with a fresh time-ordered identifier.
func NewEntry(p EntryParams) *Entry {
	ts := p.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	var affected []string
	if len(p.AffectedObjectIDs) > 0 {
		affected = make([]string, len(p.AffectedObjectIDs))
		copy(affected, p.AffectedObjectIDs)
	}

	return &Entry{
		id:          newID(),
		timestamp:   ts,
		actionType:  p.ActionType,
		description: p.Description,
		affected:    affected,
		sizeBytes:   len(p.Snapshot),
		sessionID:   p.SessionID,
		snapshot:    p.Snapshot,
	}
}

// newID returns a UUIDv7 (millisecond timestamp prefix plus random bits).
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// ID returns the unique entry identifier.
func (e *Entry) ID() string { return e.id }

// Timestamp returns the capture instant.
func (e *Entry) Timestamp() time.Time { return e.timestamp }

// ActionType returns the classification tag.
func (e *Entry) ActionType() ActionType { return e.actionType }

// Description returns the human-readable summary.
func (e *Entry) Description() string { return e.description }

// SizeBytes returns the size of the uncompressed snapshot.
func (e *Entry) SizeBytes() int { return e.sizeBytes }

// SessionID returns the editing session that produced the entry.
func (e *Entry) SessionID() string { return e.sessionID }

// AffectedObjectIDs returns a copy of the identifiers touched by the change.
func (e *Entry) AffectedObjectIDs() []string {
	if len(e.affected) == 0 {
		return nil
	}
	out := make([]string, len(e.affected))
	copy(out, e.affected)
	return out
}

// Snapshot returns the raw snapshot. It is empty once the entry has been
// compressed; use Compressed in that case.
func (e *Entry) Snapshot() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot
}

// Compressed returns the compressed payload, or nil.
func (e *Entry) Compressed() []byte {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.compressed
}

// Payload returns the raw snapshot and the compressed payload read together,
// so a concurrent SetCompressed cannot be observed half way. Exactly one of
// them is set.
func (e *Entry) Payload() (string, []byte) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot, e.compressed
}

// IsCompressed reports whether a compressed payload is attached.
func (e *Entry) IsCompressed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.compressed != nil
}

// CompressionRatio returns compressed/original size, and false if the entry
// is not compressed.
func (e *Entry) CompressionRatio() (float64, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ratio, e.compressed != nil
}

// StoredBytes returns the number of payload bytes actually held.
func (e *Entry) StoredBytes() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.compressed != nil {
		return len(e.compressed)
	}
	return len(e.snapshot)
}

// SetCompressed attaches a compressed payload and releases the raw snapshot.
// It returns false and changes nothing if a payload is already attached or
// data is empty.
func (e *Entry) SetCompressed(data []byte, ratio float64) bool {
	if len(data) == 0 {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.compressed != nil {
		return false
	}
	e.compressed = data
	e.ratio = ratio
	e.snapshot = ""
	return true
}

// Metadata returns a read-only summary of the entry.
func (e *Entry) Metadata() Metadata {
	ratio, compressed := e.CompressionRatio()
	return Metadata{
		ID:                e.id,
		ActionType:        e.actionType,
		Description:       e.description,
		Timestamp:         e.timestamp,
		SizeBytes:         e.sizeBytes,
		StoredBytes:       e.StoredBytes(),
		Compressed:        compressed,
		CompressionRatio:  ratio,
		AffectedObjectIDs: e.AffectedObjectIDs(),
		SessionID:         e.sessionID,
	}
}

// Metadata provides read-only info about an entry.
// Used for displaying the history list to users.
type Metadata struct {
	ID                string     `json:"id" yaml:"id"`
	ActionType        ActionType `json:"actionType" yaml:"actionType"`
	Description       string     `json:"description" yaml:"description"`
	Timestamp         time.Time  `json:"timestamp" yaml:"timestamp"`
	SizeBytes         int        `json:"sizeBytes" yaml:"sizeBytes"`
	StoredBytes       int        `json:"storedBytes" yaml:"storedBytes"`
	Compressed        bool       `json:"compressed" yaml:"compressed"`
	CompressionRatio  float64    `json:"compressionRatio,omitempty" yaml:"compressionRatio,omitempty"`
	AffectedObjectIDs []string   `json:"affectedObjectIds,omitempty" yaml:"affectedObjectIds,omitempty"`
	SessionID         string     `json:"sessionId" yaml:"sessionId"`
}
