package engine

import (
	"errors"
	"fmt"
)

// Errors returned by engine operations.
var (
	// ErrSerialize indicates the document host failed to produce a snapshot.
	ErrSerialize = errors.New("serialize failed")

	// ErrRestore indicates the document host failed to restore a snapshot.
	ErrRestore = errors.New("restore failed")

	// ErrClosed indicates the engine has been closed.
	ErrClosed = errors.New("engine is closed")

	// ErrNoHost indicates New was called without a document host.
	ErrNoHost = errors.New("no document host")

	// ErrInvalidSnapshot is returned by hosts that reject a malformed
	// snapshot. Hosts should wrap it so callers can match with errors.Is.
	ErrInvalidSnapshot = errors.New("invalid snapshot")

	// ErrEmptySnapshot indicates the host serialized to an empty snapshot.
	ErrEmptySnapshot = errors.New("empty snapshot")
)

// Op names an engine operation in errors, logs and observer callbacks.
type Op string

// Operations.
const (
	OpCapture  Op = "capture"
	OpUndo     Op = "undo"
	OpRedo     Op = "redo"
	OpSeek     Op = "seek"
	OpCompress Op = "compress"
)

// OperationError reports a failed operation on a specific timeline index.
type OperationError struct {
	Op    Op    // Operation name
	Index int   // Target timeline index, -1 when not applicable
	Err   error // Underlying error
}

func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}

	msg := string(e.Op)
	if e.Index >= 0 {
		msg = fmt.Sprintf("%s [%d]", msg, e.Index)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is implements errors.Is for OperationError.
// Matches both the wrapper itself and the wrapped error.
func (e *OperationError) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*OperationError); ok {
		return e == t
	}
	return errors.Is(e.Err, target)
}

func opError(op Op, index int, err error) *OperationError {
	return &OperationError{Op: op, Index: index, Err: err}
}
