package engine

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/rewind/internal/clock"
	"github.com/dshills/rewind/internal/config"
	"github.com/dshills/rewind/internal/engine/capture"
	"github.com/dshills/rewind/internal/engine/classify"
	"github.com/dshills/rewind/internal/engine/compress"
	"github.com/dshills/rewind/internal/engine/history"
)

// State is the navigator state.
type State uint8

const (
	// StateIdle accepts captures and navigation.
	StateIdle State = iota
	// StateReplaying means a restore is in flight. Captures and further
	// navigation are dropped.
	StateReplaying
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReplaying:
		return "replaying"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// Engine records document snapshots and navigates between them.
//
// All methods are safe for concurrent use. The document host is never
// called with the engine lock held, so host callbacks may re-enter the
// engine; captures they trigger during a restore are dropped.
type Engine struct {
	mu sync.Mutex

	host       DocumentHost
	timeline   *history.Timeline
	classifier *classify.Classifier
	gate       *compress.Gate
	scheduler  *capture.Scheduler
	clock      clock.Clock

	state          State
	closed         bool
	navGen         uint64 // bumped by every navigation and Clear
	sessionID      string
	restoreTimeout time.Duration
	ownedCodec     io.Closer

	logger   *slog.Logger
	observer Observer
	onError  func(Op, error)
}

// New creates an engine bound to host.
func New(host DocumentHost, opts ...Option) (*Engine, error) {
	if host == nil {
		return nil, ErrNoHost
	}

	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}

	e := &Engine{
		host:           host,
		timeline:       history.NewTimeline(s.maxSize),
		clock:          s.clock,
		sessionID:      s.sessionID,
		restoreTimeout: s.restoreTimeout,
		logger:         s.logger,
		onError:        s.onError,
	}
	if e.clock == nil {
		e.clock = clock.Real()
	}
	if e.sessionID == "" {
		e.sessionID = uuid.NewString()
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	e.logger = e.logger.With("component", "history", "session", e.sessionID)

	switch len(s.observers) {
	case 0:
		e.observer = NopObserver{}
	case 1:
		e.observer = s.observers[0]
	default:
		e.observer = multiObserver(s.observers)
	}

	e.classifier = s.classifier
	if e.classifier == nil {
		e.classifier = classify.New(classify.WithMinorChangeFilter(s.ignoreMinor, s.minorThreshold))
	}

	codec := s.codec
	if codec == nil && s.compressionEnabled {
		c, err := compress.ParseCodec(s.codecName)
		if err != nil {
			return nil, err
		}
		codec = c
		if closer, ok := c.(io.Closer); ok {
			e.ownedCodec = closer
		}
	}
	e.gate = compress.NewGate(codec, s.compressionEnabled, s.compressionThreshold)

	// Deferred capture errors are reported inside capture itself
	e.scheduler = capture.New(s.debounceDelay, e.capture, capture.WithClock(e.clock))

	e.logger.Debug("engine created",
		"maxSize", s.maxSize,
		"debounce", s.debounceDelay,
		"compression", e.gate.Enabled(),
		"compressionThreshold", e.gate.Threshold(),
		"minorFilter", e.classifier.IgnoresMinorChanges(),
	)
	return e, nil
}

// SessionID returns the session tag applied to entries.
func (e *Engine) SessionID() string {
	return e.sessionID
}

// Capture requests a debounced capture. The hints of the last call within
// the debounce window win. ActionAuto and an empty description are
// inferred. Changes below the minor-change threshold are not recorded.
func (e *Engine) Capture(action history.ActionType, description string) {
	e.mu.Lock()
	closed, replaying := e.closed, e.state == StateReplaying
	e.mu.Unlock()

	switch {
	case closed:
		e.observer.OnSkip(SkipClosed)
		return
	case replaying:
		e.logger.Debug("capture dropped while replaying")
		e.observer.OnSkip(SkipReplaying)
		return
	}
	e.scheduler.Request(action, description)
}

// CaptureNow captures synchronously, bypassing the debounce window and the
// minor-change filter. A pending debounced capture is left untouched.
// It returns an error only if the host fails to serialize.
func (e *Engine) CaptureNow(action history.ActionType, description string) error {
	err := e.scheduler.RequestNow(action, description)
	if errors.Is(err, capture.ErrClosed) {
		return ErrClosed
	}
	return err
}

// Flush runs a pending debounced capture immediately.
func (e *Engine) Flush() {
	e.scheduler.Flush()
}

// CapturePending reports whether a debounced capture is armed.
func (e *Engine) CapturePending() bool {
	return e.scheduler.IsPending()
}

// capture is the single capture path behind both scheduler entry points.
func (e *Engine) capture(req capture.Request) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		e.observer.OnSkip(SkipClosed)
		if req.Immediate {
			return ErrClosed
		}
		return nil
	}
	if e.state == StateReplaying {
		e.mu.Unlock()
		e.logger.Debug("capture dropped while replaying", "immediate", req.Immediate)
		e.observer.OnSkip(SkipReplaying)
		return nil
	}
	prev, hasPrev, prevErr := e.currentSnapshotLocked()
	cls, gate, gen := e.classifier, e.gate, e.navGen
	e.mu.Unlock()

	snapshot, err := e.serialize()
	if err != nil {
		err = opError(OpCapture, -1, err)
		e.report(OpCapture, err)
		return err
	}

	var res classify.Result
	if prevErr != nil {
		e.logger.Warn("previous snapshot unreadable", "error", prevErr)
		res = classify.Result{Action: history.ActionModify, Significant: true}
	} else {
		res = cls.Classify(classify.Input{
			Previous:    prev,
			HasPrevious: hasPrev,
			Current:     snapshot,
			Filtered:    !req.Immediate,
		})
	}
	if res.ParseErr != nil {
		e.logger.Debug("snapshot not classifiable", "error", res.ParseErr)
	}
	if !res.Significant {
		e.logger.Debug("minor change skipped", "size", len(snapshot), "previous", len(prev))
		e.observer.OnSkip(SkipInsignificant)
		return nil
	}

	action := req.Action
	if action == history.ActionAuto {
		action = res.Action
	}
	description := req.Description
	if description == "" {
		description = classify.Describe(action, len(res.AffectedIDs))
	}

	entry := history.NewEntry(history.EntryParams{
		Snapshot:          snapshot,
		Timestamp:         e.clock.Now(),
		ActionType:        action,
		Description:       description,
		AffectedObjectIDs: res.AffectedIDs,
		SessionID:         e.sessionID,
	})

	// The entry is not shared yet, so it is compressed without the lock
	outcome := gate.Apply(entry)

	e.mu.Lock()
	if e.closed || e.state == StateReplaying || e.navGen != gen {
		// Close or a navigation happened while serializing. The snapshot
		// predates the restored state and must not truncate the timeline.
		reason := SkipReplaying
		if e.closed {
			reason = SkipClosed
		}
		e.mu.Unlock()
		e.logger.Debug("capture superseded", "reason", reason)
		e.observer.OnSkip(reason)
		return nil
	}
	truncated, evicted := e.timeline.Append(entry)
	stats := e.statsLocked()
	e.mu.Unlock()

	if outcome.Err != nil {
		e.logger.Debug("compression failed, storing raw snapshot", "error", outcome.Err)
	}
	if outcome.Compressed() {
		e.observer.OnCompress(outcome.Ratio)
	}
	e.logger.Debug("captured",
		"action", action,
		"size", entry.SizeBytes(),
		"compressed", outcome.Compressed(),
		"truncated", truncated,
		"evicted", evicted,
		"index", stats.CurrentIndex,
	)

	e.observer.OnCapture(entry.Metadata())
	if evicted > 0 {
		e.observer.OnEvict(evicted)
	}
	e.observer.OnStats(stats)
	return nil
}

// currentSnapshotLocked returns the snapshot at the cursor, decoding it if
// compressed.
func (e *Engine) currentSnapshotLocked() (string, bool, error) {
	cur, ok := e.timeline.Current()
	if !ok {
		return "", false, nil
	}
	snap, err := e.gate.Expand(cur)
	return snap, true, err
}

// report logs a failure and forwards it to the observer and error handler.
func (e *Engine) report(op Op, err error) {
	e.logger.Error("operation failed", "op", op, "error", err)
	e.observer.OnError(op, err)
	if e.onError != nil {
		e.onError(op, err)
	}
}

// Clear discards every entry and any pending capture.
func (e *Engine) Clear() {
	e.scheduler.Cancel()

	e.mu.Lock()
	n := e.timeline.Len()
	e.timeline.Clear()
	e.navGen++
	stats := e.statsLocked()
	e.mu.Unlock()

	e.logger.Debug("history cleared", "entries", n)
	e.observer.OnStats(stats)
}

// SetMaxHistorySize changes the capacity bound, evicting entries if needed.
// It returns the number of entries removed.
func (e *Engine) SetMaxHistorySize(max int) int {
	e.mu.Lock()
	removed := e.timeline.SetMaxSize(max)
	stats := e.statsLocked()
	e.mu.Unlock()

	if removed > 0 {
		e.logger.Debug("history shrunk", "maxSize", stats.MaxSize, "removed", removed)
		e.observer.OnEvict(removed)
	}
	e.observer.OnStats(stats)
	return removed
}

// SetDebounceDelay changes the debounce window for later captures.
func (e *Engine) SetDebounceDelay(d time.Duration) {
	e.scheduler.SetDelay(d)
}

// ApplyConfig applies the runtime-adjustable parts of a history section:
// the capacity bound, debounce delay, minor-change filter, restore timeout
// and compression settings. An existing codec is kept; one is created if
// compression is turned on for the first time. The section is validated
// before anything is applied, so an error leaves the engine unchanged.
func (e *Engine) ApplyConfig(cfg config.History) error {
	if err := compress.CheckName(cfg.Codec); err != nil {
		return err
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	codec := e.gate.Codec()
	if codec == nil && cfg.CompressionEnabled {
		c, err := compress.ParseCodec(cfg.Codec)
		if err != nil {
			e.mu.Unlock()
			return err
		}
		codec = c
		if closer, ok := c.(io.Closer); ok {
			e.ownedCodec = closer
		}
	}

	removed := 0
	if cfg.MaxSize > 0 {
		removed = e.timeline.SetMaxSize(cfg.MaxSize)
	}
	e.classifier = classify.New(classify.WithMinorChangeFilter(cfg.IgnoreMinorChanges, cfg.MinorChangeThreshold))
	e.gate = compress.NewGate(codec, cfg.CompressionEnabled, cfg.CompressionThreshold)
	e.restoreTimeout = cfg.RestoreTimeout.Std()
	stats := e.statsLocked()
	e.mu.Unlock()

	if cfg.DebounceDelay > 0 {
		e.SetDebounceDelay(cfg.DebounceDelay.Std())
	}

	e.logger.Info("configuration applied",
		"maxSize", stats.MaxSize,
		"compression", cfg.CompressionEnabled,
		"minorFilter", cfg.IgnoreMinorChanges,
	)
	if removed > 0 {
		e.observer.OnEvict(removed)
	}
	e.observer.OnStats(stats)
	return nil
}

// Close cancels any pending capture and releases the codec. Captures and
// navigation are rejected afterwards; introspection keeps working.
func (e *Engine) Close() error {
	e.scheduler.Close()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	closer := e.ownedCodec
	e.ownedCodec = nil
	e.mu.Unlock()

	if closer != nil {
		return closer.Close()
	}
	return nil
}
