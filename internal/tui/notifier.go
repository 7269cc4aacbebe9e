package tui

import (
	"github.com/gdamore/tcell/v2"

	"github.com/dshills/rewind/internal/engine"
)

// redraw is posted to wake the event loop when the engine changes outside
// of a key press, for example when a debounced capture fires.
type redraw struct{}

// Notifier is an engine.Observer that asks the terminal to redraw.
type Notifier struct {
	engine.NopObserver
	term *Terminal
}

// NewNotifier creates a Notifier posting to term.
func NewNotifier(term *Terminal) *Notifier {
	return &Notifier{term: term}
}

// OnStats implements engine.Observer.
func (n *Notifier) OnStats(engine.Stats) {
	n.term.PostEvent(tcell.NewEventInterrupt(redraw{}))
}

// OnError implements engine.Observer.
func (n *Notifier) OnError(engine.Op, error) {
	n.term.PostEvent(tcell.NewEventInterrupt(redraw{}))
}
