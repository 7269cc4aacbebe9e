// Package engine provides the undo/redo history engine for a graphical
// document editor.
//
// The engine never touches the document itself. A DocumentHost serializes
// its state to an opaque snapshot and restores from one; the engine records
// snapshots in a bounded, linear timeline and navigates it.
//
// # Capturing
//
// Direct-manipulation interactions call Capture on every mutation. Calls are
// debounced: the last call in a burst wins and a single capture runs once
// the window elapses. Explicit actions such as delete call CaptureNow, which
// captures synchronously and skips the minor-change filter.
//
//	eng, err := engine.New(host, engine.WithMaxHistorySize(100))
//	...
//	eng.Capture(history.ActionAuto, "")             // on every drag event
//	eng.CaptureNow(history.ActionRemove, "Delete")  // on delete
//
// Each capture serializes the host, classifies the change against the entry
// at the cursor, compresses large snapshots and appends to the timeline.
// Appending after an undo discards the redo branch.
//
// # Navigating
//
// Undo, Redo and Seek ask the host to restore an entry. While a restore is
// in flight the engine is Replaying: captures and further navigation are
// dropped, so the mutations caused by the restore are not recorded.
// Out-of-range navigation is a no-op, not an error.
//
// # Errors
//
// Serialize and restore failures abort the operation, leave the timeline
// unchanged and are returned as *OperationError. Compression failures are
// never errors; the entry is stored raw.
package engine
