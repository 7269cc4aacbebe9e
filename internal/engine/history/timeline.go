package history

// DefaultMaxSize is used when a non-positive bound is supplied.
const DefaultMaxSize = 50

// Timeline is an ordered, size-bounded sequence of entries with a cursor.
//
// Invariants:
//   - -1 <= Cursor() < Len(); -1 only when the timeline is empty
//   - Len() <= MaxSize()
type Timeline struct {
	entries []*Entry
	cursor  int
	maxSize int
}

// NewTimeline creates an empty timeline holding at most maxSize entries.
func NewTimeline(maxSize int) *Timeline {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Timeline{
		cursor:  -1,
		maxSize: maxSize,
	}
}

// Append adds an entry at the tail and moves the cursor onto it.
// Entries after the cursor are discarded first, and the oldest entries are
// evicted if the bound is exceeded. It returns the number of entries
// truncated and evicted.
func (t *Timeline) Append(e *Entry) (truncated, evicted int) {
	if t.cursor < len(t.entries)-1 {
		truncated = t.TruncateAfterCursor()
	}

	t.entries = append(t.entries, e)
	t.cursor = len(t.entries) - 1

	if len(t.entries) > t.maxSize {
		evicted = t.EvictFromHead(len(t.entries) - t.maxSize)
	}
	return truncated, evicted
}

// TruncateAfterCursor discards every entry after the cursor (the redo
// branch) and returns how many were removed.
func (t *Timeline) TruncateAfterCursor() int {
	keep := t.cursor + 1
	removed := len(t.entries) - keep
	if removed <= 0 {
		return 0
	}

	// Clear references so dropped snapshots can be collected
	for i := keep; i < len(t.entries); i++ {
		t.entries[i] = nil
	}
	t.entries = t.entries[:keep]
	return removed
}

// EvictFromHead removes up to count of the oldest entries and shifts the
// cursor accordingly. The entry at the cursor is never evicted, so the
// actual number removed may be smaller than count.
func (t *Timeline) EvictFromHead(count int) int {
	if count <= 0 || len(t.entries) == 0 {
		return 0
	}
	if count > t.cursor {
		count = t.cursor
	}
	if count <= 0 {
		return 0
	}

	for i := 0; i < count; i++ {
		t.entries[i] = nil
	}
	n := len(t.entries) - count
	remaining := make([]*Entry, n, max(n, t.maxSize+1))
	copy(remaining, t.entries[count:])
	t.entries = remaining

	t.cursor -= count
	if t.cursor < 0 {
		t.cursor = 0
	}
	return count
}

// EntryAt returns the entry at index, or false if index is out of range.
func (t *Timeline) EntryAt(index int) (*Entry, bool) {
	if index < 0 || index >= len(t.entries) {
		return nil, false
	}
	return t.entries[index], true
}

// Current returns the entry at the cursor.
func (t *Timeline) Current() (*Entry, bool) {
	return t.EntryAt(t.cursor)
}

// SetCursor moves the cursor to index. It returns false and leaves the
// cursor unchanged if index is out of range.
func (t *Timeline) SetCursor(index int) bool {
	if index < 0 || index >= len(t.entries) {
		return false
	}
	t.cursor = index
	return true
}

// Cursor returns the current position, -1 when empty.
func (t *Timeline) Cursor() int {
	return t.cursor
}

// Len returns the number of entries.
func (t *Timeline) Len() int {
	return len(t.entries)
}

// MaxSize returns the capacity bound.
func (t *Timeline) MaxSize() int {
	return t.maxSize
}

// SetMaxSize changes the capacity bound. If the timeline is larger, the
// oldest entries are evicted; when the cursor sits too close to the head for
// that, the redo branch is trimmed from the tail instead. It returns the
// number of entries removed.
func (t *Timeline) SetMaxSize(max int) int {
	if max <= 0 {
		max = DefaultMaxSize
	}
	t.maxSize = max

	if len(t.entries) <= max {
		return 0
	}
	removed := t.EvictFromHead(len(t.entries) - max)
	if len(t.entries) > max {
		for i := max; i < len(t.entries); i++ {
			t.entries[i] = nil
		}
		removed += len(t.entries) - max
		t.entries = t.entries[:max]
	}
	return removed
}

// CanUndo returns true if there is an entry before the cursor.
func (t *Timeline) CanUndo() bool {
	return t.cursor > 0
}

// CanRedo returns true if there is an entry after the cursor.
func (t *Timeline) CanRedo() bool {
	return t.cursor < len(t.entries)-1
}

// Entries returns a copy of the entry slice.
func (t *Timeline) Entries() []*Entry {
	out := make([]*Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Metadata returns metadata for every entry in order.
func (t *Timeline) Metadata() []Metadata {
	result := make([]Metadata, len(t.entries))
	for i, e := range t.entries {
		result[i] = e.Metadata()
	}
	return result
}

// MemoryUsage returns the sum of uncompressed snapshot sizes.
func (t *Timeline) MemoryUsage() int {
	total := 0
	for _, e := range t.entries {
		total += e.SizeBytes()
	}
	return total
}

// StoredBytes returns the sum of payload bytes actually held.
func (t *Timeline) StoredBytes() int {
	total := 0
	for _, e := range t.entries {
		total += e.StoredBytes()
	}
	return total
}

// Clear removes all entries and resets the cursor.
func (t *Timeline) Clear() {
	for i := range t.entries {
		t.entries[i] = nil
	}
	t.entries = nil
	t.cursor = -1
}
