// Package history provides the snapshot timeline behind undo/redo.
//
// The history system stores full document snapshots rather than edit
// commands. Key concepts:
//
// # Entries
//
// An Entry is one captured snapshot of the document plus metadata:
//   - A unique, time-ordered identifier
//   - The action type and a human-readable description
//   - Size and compression diagnostics
//
// Entries are immutable once created, except for the one-time attachment of
// a compressed representation.
//
// # Timeline
//
// The Timeline type is an ordered, size-bounded sequence of entries with a
// cursor marking the current position:
//
//	tl := NewTimeline(50) // Max 50 entries
//
//	tl.Append(entry)        // truncates any redo branch, evicts from the head
//	e, ok := tl.EntryAt(tl.Cursor() - 1)
//
// The timeline is strictly linear. Appending while the cursor is not at the
// tail discards everything after the cursor first.
//
// Timeline is not safe for concurrent use; the engine serializes access.
package history
