package history

import (
	"fmt"
	"strings"
)

// ActionType classifies the nature of a recorded change.
type ActionType uint8

const (
	// ActionAuto asks the engine to infer the action type. It is never stored
	// on an entry.
	ActionAuto ActionType = iota

	// ActionAdd indicates one or more objects were added.
	ActionAdd

	// ActionRemove indicates one or more objects were removed.
	ActionRemove

	// ActionMove indicates an object position changed.
	ActionMove

	// ActionResize indicates an object size or scale changed.
	ActionResize

	// ActionRotate indicates an object rotation angle changed.
	ActionRotate

	// ActionStyleChange indicates a fill or stroke color changed.
	ActionStyleChange

	// ActionTextEdit indicates the content of a text object changed.
	ActionTextEdit

	// ActionLayerChange indicates the stacking order changed.
	ActionLayerChange

	// ActionLock indicates an object was locked.
	ActionLock

	// ActionUnlock indicates an object was unlocked.
	ActionUnlock

	// ActionModify is the catch-all for changes that could not be classified.
	ActionModify
)

var actionNames = [...]string{
	ActionAuto:        "auto",
	ActionAdd:         "add",
	ActionRemove:      "remove",
	ActionMove:        "move",
	ActionResize:      "resize",
	ActionRotate:      "rotate",
	ActionStyleChange: "style",
	ActionTextEdit:    "text",
	ActionLayerChange: "layer",
	ActionLock:        "lock",
	ActionUnlock:      "unlock",
	ActionModify:      "modify",
}

// String returns the lowercase name of the action type.
func (a ActionType) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return "unknown"
}

// Verb returns the past-tense verb used in generated descriptions.
func (a ActionType) Verb() string {
	switch a {
	case ActionAdd:
		return "Added"
	case ActionRemove:
		return "Removed"
	case ActionMove:
		return "Moved"
	case ActionResize:
		return "Resized"
	case ActionRotate:
		return "Rotated"
	case ActionStyleChange:
		return "Restyled"
	case ActionTextEdit:
		return "Edited text of"
	case ActionLayerChange:
		return "Reordered"
	case ActionLock:
		return "Locked"
	case ActionUnlock:
		return "Unlocked"
	default:
		return "Modified"
	}
}

// ParseActionType parses a name produced by String. Matching is
// case-insensitive; "" parses as ActionAuto.
func ParseActionType(s string) (ActionType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ActionAuto, nil
	}
	for i, name := range actionNames {
		if name == s {
			return ActionType(i), nil
		}
	}
	return ActionAuto, fmt.Errorf("unknown action type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (a ActionType) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *ActionType) UnmarshalText(text []byte) error {
	v, err := ParseActionType(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
