package classify

import (
	"fmt"

	"github.com/dshills/rewind/internal/engine/history"
)

// DefaultMinorChangeThreshold is the size delta, in bytes, below which a
// filtered change is considered noise.
const DefaultMinorChangeThreshold = 100

// Input describes one classification request.
type Input struct {
	// Previous is the snapshot at the timeline cursor. Ignored unless
	// HasPrevious is set.
	Previous    string
	HasPrevious bool

	// Current is the freshly serialized snapshot.
	Current string

	// Filtered applies the minor-change filter. Explicit captures leave it
	// unset so they are always recorded.
	Filtered bool
}

// Result is the outcome of a classification.
type Result struct {
	Action      history.ActionType
	Significant bool
	// AffectedIDs lists objects that differ between the snapshots.
	AffectedIDs []string
	// ParseErr is set when either snapshot could not be parsed.
	ParseErr error
}

// Classifier infers action types and filters insignificant changes.
type Classifier struct {
	ignoreMinor    bool
	minorThreshold int
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithMinorChangeFilter enables or disables the size-delta filter and sets
// its threshold. Non-positive thresholds keep the current value.
func WithMinorChangeFilter(enabled bool, threshold int) Option {
	return func(c *Classifier) {
		c.ignoreMinor = enabled
		if threshold > 0 {
			c.minorThreshold = threshold
		}
	}
}

// New creates a Classifier. The minor-change filter is enabled with
// DefaultMinorChangeThreshold unless overridden.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		ignoreMinor:    true,
		minorThreshold: DefaultMinorChangeThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MinorChangeThreshold returns the configured threshold.
func (c *Classifier) MinorChangeThreshold() int {
	return c.minorThreshold
}

// IgnoresMinorChanges reports whether the filter is enabled.
func (c *Classifier) IgnoresMinorChanges() bool {
	return c.ignoreMinor
}

// Classify compares two snapshots.
func (c *Classifier) Classify(in Input) Result {
	if !in.HasPrevious {
		res := Result{Action: history.ActionAdd, Significant: true}
		if objs, err := ParseObjects(in.Current); err == nil {
			res.AffectedIDs = ids(objs)
		}
		return res
	}

	prevObjs, err := ParseObjects(in.Previous)
	if err != nil {
		return Result{Action: history.ActionModify, Significant: true, ParseErr: fmt.Errorf("previous snapshot: %w", err)}
	}
	curObjs, err := ParseObjects(in.Current)
	if err != nil {
		return Result{Action: history.ActionModify, Significant: true, ParseErr: fmt.Errorf("current snapshot: %w", err)}
	}

	res := compare(prevObjs, curObjs)
	res.Significant = c.significant(in)
	return res
}

// significant applies the size-delta heuristic.
func (c *Classifier) significant(in Input) bool {
	if !in.Filtered || !c.ignoreMinor {
		return true
	}
	delta := len(in.Current) - len(in.Previous)
	if delta < 0 {
		delta = -delta
	}
	return delta >= c.minorThreshold
}

func compare(prev, cur []Object) Result {
	switch {
	case len(cur) > len(prev):
		return Result{Action: history.ActionAdd, AffectedIDs: added(prev, cur)}
	case len(cur) < len(prev):
		return Result{Action: history.ActionRemove, AffectedIDs: added(cur, prev)}
	}

	var (
		first    fieldKind
		firstObj Object
		prevObj  Object
		affected []string
	)
	for i := range cur {
		kind, ok := diff(prev[i], cur[i])
		if !ok {
			continue
		}
		if first == 0 {
			first, firstObj, prevObj = kind, cur[i], prev[i]
		}
		affected = append(affected, cur[i].ID)
	}

	if first == 0 {
		// Nothing tracked differs
		return Result{Action: history.ActionModify}
	}
	return Result{Action: actionFor(first, prevObj, firstObj), AffectedIDs: affected}
}

func actionFor(kind fieldKind, prev, cur Object) history.ActionType {
	switch kind {
	case fieldPosition:
		return history.ActionMove
	case fieldSize:
		return history.ActionResize
	case fieldRotation:
		return history.ActionRotate
	case fieldText:
		return history.ActionTextEdit
	case fieldColor:
		return history.ActionStyleChange
	case fieldLock:
		if cur.Locked && !prev.Locked {
			return history.ActionLock
		}
		return history.ActionUnlock
	case fieldIdentity:
		return history.ActionLayerChange
	default:
		return history.ActionModify
	}
}

// added returns the IDs present in to but not in from. When IDs collide it
// falls back to the trailing objects of to.
func added(from, to []Object) []string {
	seen := make(map[string]int, len(from))
	for _, o := range from {
		seen[o.ID]++
	}

	var out []string
	for _, o := range to {
		if seen[o.ID] > 0 {
			seen[o.ID]--
			continue
		}
		out = append(out, o.ID)
	}
	if len(out) == 0 {
		for _, o := range to[len(from):] {
			out = append(out, o.ID)
		}
	}
	return out
}

func ids(objs []Object) []string {
	if len(objs) == 0 {
		return nil
	}
	out := make([]string, len(objs))
	for i, o := range objs {
		out[i] = o.ID
	}
	return out
}

// Describe builds a human-readable summary such as "Moved 3 object(s)" or
// "Added object".
func Describe(action history.ActionType, affected int) string {
	if affected <= 1 {
		return action.Verb() + " object"
	}
	return fmt.Sprintf("%s %d object(s)", action.Verb(), affected)
}
