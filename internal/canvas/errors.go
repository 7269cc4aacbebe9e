package canvas

import "errors"

// Errors returned by canvas operations.
var (
	ErrNotFound    = errors.New("object not found")
	ErrDuplicateID = errors.New("duplicate object id")
	ErrLocked      = errors.New("object is locked")
	ErrOutOfRange  = errors.New("layer index out of range")
)
