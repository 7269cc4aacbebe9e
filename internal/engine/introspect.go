package engine

import (
	"fmt"

	"github.com/dshills/rewind/internal/engine/history"
)

// Stats summarizes the timeline.
type Stats struct {
	Size              int    `json:"size" yaml:"size"`
	MaxSize           int    `json:"maxSize" yaml:"maxSize"`
	CurrentIndex      int    `json:"currentIndex" yaml:"currentIndex"`
	CanUndo           bool   `json:"canUndo" yaml:"canUndo"`
	CanRedo           bool   `json:"canRedo" yaml:"canRedo"`
	MemoryUsage       int    `json:"memoryUsage" yaml:"memoryUsage"`
	StoredBytes       int    `json:"storedBytes" yaml:"storedBytes"`
	CompressedEntries int    `json:"compressedEntries" yaml:"compressedEntries"`
	State             string `json:"state" yaml:"state"`
	SessionID         string `json:"sessionId" yaml:"sessionId"`
}

// CanUndo returns true if there is an entry before the cursor.
func (e *Engine) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timeline.CanUndo()
}

// CanRedo returns true if there is an entry after the cursor.
func (e *Engine) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timeline.CanRedo()
}

// HistorySize returns the number of entries.
func (e *Engine) HistorySize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timeline.Len()
}

// MaxHistorySize returns the capacity bound.
func (e *Engine) MaxHistorySize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timeline.MaxSize()
}

// CurrentIndex returns the cursor, -1 when the timeline is empty.
func (e *Engine) CurrentIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timeline.Cursor()
}

// History returns the entries in order. Entries are read-only.
func (e *Engine) History() []*history.Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timeline.Entries()
}

// Metadata returns per-entry metadata in order.
func (e *Engine) Metadata() []history.Metadata {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timeline.Metadata()
}

// MemoryUsage returns the sum of uncompressed snapshot sizes.
func (e *Engine) MemoryUsage() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timeline.MemoryUsage()
}

// EntrySnapshot returns the snapshot recorded at index, decoded if
// compressed.
func (e *Engine) EntrySnapshot(index int) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.timeline.EntryAt(index)
	if !ok {
		return "", fmt.Errorf("entry %d: index out of range [0,%d)", index, e.timeline.Len())
	}
	return e.gate.Expand(entry)
}

// Stats returns a summary of the timeline.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statsLocked()
}

func (e *Engine) statsLocked() Stats {
	compressed := 0
	for _, entry := range e.timeline.Entries() {
		if entry.IsCompressed() {
			compressed++
		}
	}
	return Stats{
		Size:              e.timeline.Len(),
		MaxSize:           e.timeline.MaxSize(),
		CurrentIndex:      e.timeline.Cursor(),
		CanUndo:           e.timeline.CanUndo(),
		CanRedo:           e.timeline.CanRedo(),
		MemoryUsage:       e.timeline.MemoryUsage(),
		StoredBytes:       e.timeline.StoredBytes(),
		CompressedEntries: compressed,
		State:             e.state.String(),
		SessionID:         e.sessionID,
	}
}

// CleanupOldStates evicts the oldest entries until at most keepCount
// remain. The entry at the cursor is never evicted, so fewer entries may be
// removed than requested. It returns the number removed.
func (e *Engine) CleanupOldStates(keepCount int) int {
	if keepCount < 0 {
		keepCount = 0
	}

	e.mu.Lock()
	removed := e.timeline.EvictFromHead(e.timeline.Len() - keepCount)
	stats := e.statsLocked()
	e.mu.Unlock()

	if removed > 0 {
		e.logger.Debug("old states cleaned up", "removed", removed, "remaining", stats.Size)
		e.observer.OnEvict(removed)
	}
	e.observer.OnStats(stats)
	return removed
}

// CompressHistory compresses every eligible entry that is still stored
// raw, such as entries captured while compression was off. It returns the
// number of entries compressed. Encoding runs without the engine lock.
func (e *Engine) CompressHistory() int {
	e.mu.Lock()
	gate := e.gate
	entries := e.timeline.Entries()
	e.mu.Unlock()

	if !gate.Enabled() {
		return 0
	}

	var ratios []float64
	for _, entry := range entries {
		out := gate.Apply(entry)
		if out.Compressed() {
			ratios = append(ratios, out.Ratio)
		} else if out.Err != nil {
			e.logger.Debug("compression failed", "entry", entry.ID(), "error", out.Err)
		}
	}
	if len(ratios) == 0 {
		return 0
	}

	e.mu.Lock()
	stats := e.statsLocked()
	e.mu.Unlock()

	for _, r := range ratios {
		e.observer.OnCompress(r)
	}
	e.logger.Debug("history compressed", "entries", len(ratios), "storedBytes", stats.StoredBytes)
	e.observer.OnStats(stats)
	return len(ratios)
}
