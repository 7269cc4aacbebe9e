package engine

import (
	"context"
)

// Undo restores the entry before the cursor. It is a no-op at the start of
// the timeline, while another restore is in flight, and after Close.
// A pending debounced capture is flushed first so the change it stands for
// can itself be undone.
func (e *Engine) Undo(ctx context.Context) error {
	e.scheduler.Flush()

	e.mu.Lock()
	target := e.timeline.Cursor() - 1
	if !e.timeline.CanUndo() {
		e.mu.Unlock()
		return nil
	}
	return e.navigateLocked(ctx, OpUndo, target)
}

// Redo restores the entry after the cursor. It is a no-op at the end of the
// timeline and while another restore is in flight.
func (e *Engine) Redo(ctx context.Context) error {
	e.scheduler.Flush()

	e.mu.Lock()
	target := e.timeline.Cursor() + 1
	if !e.timeline.CanRedo() {
		e.mu.Unlock()
		return nil
	}
	return e.navigateLocked(ctx, OpRedo, target)
}

// Seek restores the entry at index. Out-of-range indices are a no-op.
func (e *Engine) Seek(ctx context.Context, index int) error {
	e.scheduler.Flush()

	e.mu.Lock()
	if index < 0 || index >= e.timeline.Len() {
		e.mu.Unlock()
		e.logger.Debug("seek out of range", "index", index)
		return nil
	}
	return e.navigateLocked(ctx, OpSeek, index)
}

// navigateLocked runs one Idle -> Replaying -> Idle transition. It must be
// called with e.mu held and releases it.
func (e *Engine) navigateLocked(ctx context.Context, op Op, target int) error {
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.state != StateIdle {
		e.mu.Unlock()
		e.logger.Debug("navigation dropped while replaying", "op", op, "index", target)
		return nil
	}

	entry, _ := e.timeline.EntryAt(target)
	snapshot, err := e.gate.Expand(entry)
	if err != nil {
		e.mu.Unlock()
		err = opError(op, target, err)
		e.report(op, err)
		return err
	}
	e.state = StateReplaying
	e.navGen++
	timeout := e.restoreTimeout
	e.mu.Unlock()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	restoreErr := e.restore(ctx, snapshot)

	e.mu.Lock()
	e.state = StateIdle
	if restoreErr != nil {
		e.mu.Unlock()
		err := opError(op, target, restoreErr)
		e.report(op, err)
		return err
	}

	// The timeline may have changed while the lock was released, so locate
	// the restored entry again rather than trusting target.
	index := e.indexOfLocked(entry.ID(), target)
	if index >= 0 {
		e.timeline.SetCursor(index)
	}
	stats := e.statsLocked()
	e.mu.Unlock()

	e.logger.Debug("navigated", "op", op, "index", index, "action", entry.ActionType())
	e.observer.OnNavigate(op, index)
	e.observer.OnStats(stats)
	return nil
}

// indexOfLocked returns the index of the entry with id, checking hint first.
func (e *Engine) indexOfLocked(id string, hint int) int {
	if cur, ok := e.timeline.EntryAt(hint); ok && cur.ID() == id {
		return hint
	}
	for i, cur := range e.timeline.Entries() {
		if cur.ID() == id {
			return i
		}
	}
	return -1
}

// State returns the navigator state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}
