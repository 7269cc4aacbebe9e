package engine

import "github.com/dshills/rewind/internal/engine/history"

// SkipReason explains why a capture did not produce an entry.
type SkipReason string

// Skip reasons.
const (
	SkipReplaying     SkipReason = "replaying"
	SkipInsignificant SkipReason = "insignificant"
	SkipClosed        SkipReason = "closed"
)

// Observer receives engine events. Callbacks run synchronously after the
// engine lock has been released, so they may call back into the engine.
type Observer interface {
	OnCapture(meta history.Metadata)
	OnSkip(reason SkipReason)
	OnNavigate(op Op, index int)
	OnEvict(count int)
	OnCompress(ratio float64)
	OnError(op Op, err error)
	OnStats(stats Stats)
}

// NopObserver implements Observer with no-ops. Embed it to implement a
// subset of the callbacks.
type NopObserver struct{}

func (NopObserver) OnCapture(history.Metadata) {}
func (NopObserver) OnSkip(SkipReason)          {}
func (NopObserver) OnNavigate(Op, int)         {}
func (NopObserver) OnEvict(int)                {}
func (NopObserver) OnCompress(float64)         {}
func (NopObserver) OnError(Op, error)          {}
func (NopObserver) OnStats(Stats)              {}

// multiObserver fans events out to several observers.
type multiObserver []Observer

func (m multiObserver) OnCapture(meta history.Metadata) {
	for _, o := range m {
		o.OnCapture(meta)
	}
}

func (m multiObserver) OnSkip(reason SkipReason) {
	for _, o := range m {
		o.OnSkip(reason)
	}
}

func (m multiObserver) OnNavigate(op Op, index int) {
	for _, o := range m {
		o.OnNavigate(op, index)
	}
}

func (m multiObserver) OnEvict(count int) {
	for _, o := range m {
		o.OnEvict(count)
	}
}

func (m multiObserver) OnCompress(ratio float64) {
	for _, o := range m {
		o.OnCompress(ratio)
	}
}

func (m multiObserver) OnError(op Op, err error) {
	for _, o := range m {
		o.OnError(op, err)
	}
}

func (m multiObserver) OnStats(stats Stats) {
	for _, o := range m {
		o.OnStats(stats)
	}
}
