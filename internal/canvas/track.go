package canvas

import (
	"github.com/dshills/rewind/internal/engine"
)

// Track records changes to c in e. Continuous changes go through the
// debounced capture path and discrete ones are captured immediately.
// Changes caused by the engine restoring a snapshot are dropped by the
// engine itself.
func Track(c *Canvas, e *engine.Engine) {
	c.SetChangeHandler(func(ch Change) {
		if ch.Continuous {
			e.Capture(ch.Action, "")
			return
		}
		// Failures reach the engine's error handler and observers
		_ = e.CaptureNow(ch.Action, ch.Description)
	})
}
