package engine

import (
	"context"
	"fmt"
)

// DocumentHost owns the live document. The engine only exchanges opaque
// snapshots with it.
type DocumentHost interface {
	// Serialize returns the current document state. It must report failure
	// as an error rather than return an empty snapshot.
	Serialize() (string, error)

	// Restore replaces the document state with snapshot. It may block until
	// the document has been rebuilt and must not partially apply a snapshot
	// it rejects.
	Restore(ctx context.Context, snapshot string) error
}

// HostFuncs adapts a pair of functions to DocumentHost.
type HostFuncs struct {
	SerializeFunc func() (string, error)
	RestoreFunc   func(ctx context.Context, snapshot string) error
}

// Serialize calls SerializeFunc.
func (h HostFuncs) Serialize() (string, error) {
	return h.SerializeFunc()
}

// Restore calls RestoreFunc.
func (h HostFuncs) Restore(ctx context.Context, snapshot string) error {
	return h.RestoreFunc(ctx, snapshot)
}

// serialize calls the host and converts panics and empty results to errors.
func (e *Engine) serialize() (snapshot string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: host panic: %v", ErrSerialize, r)
		}
	}()

	snapshot, err = e.host.Serialize()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSerialize, err)
	}
	if snapshot == "" {
		return "", fmt.Errorf("%w: %w", ErrSerialize, ErrEmptySnapshot)
	}
	return snapshot, nil
}

// restore calls the host, honoring ctx cancellation even if the host
// ignores it. A restore abandoned on cancellation is left to finish in the
// background; its result is discarded.
func (e *Engine) restore(ctx context.Context, snapshot string) error {
	if ctx.Done() == nil {
		return e.callRestore(ctx, snapshot)
	}

	done := make(chan error, 1)
	go func() {
		done <- e.callRestore(ctx, snapshot)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		e.logger.Warn("restore abandoned", "error", ctx.Err())
		return fmt.Errorf("%w: %w", ErrRestore, ctx.Err())
	}
}

func (e *Engine) callRestore(ctx context.Context, snapshot string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: host panic: %v", ErrRestore, r)
		}
	}()

	if err := e.host.Restore(ctx, snapshot); err != nil {
		return fmt.Errorf("%w: %w", ErrRestore, err)
	}
	return nil
}
