package config

import (
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/rewind/internal/clock"
)

// DefaultReloadDelay coalesces the burst of events editors produce when
// saving a file.
const DefaultReloadDelay = 100 * time.Millisecond

// Watcher reloads a configuration file when it changes.
//
// The parent directory is watched rather than the file, so saves that
// replace the file through a rename are still seen.
type Watcher struct {
	mu sync.Mutex

	fsw    *fsnotify.Watcher
	path   string
	loader *Loader
	clock  clock.Clock
	delay  time.Duration
	logger *slog.Logger

	onChange func(Config)
	onError  func(error)

	timer  clock.Timer
	seq    uint64 // sequence number to detect stale reloads
	closed bool

	closeCh chan struct{}
	wg      sync.WaitGroup
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithReloadDelay sets the quiet period before reloading.
func WithReloadDelay(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

// WithLoader sets the Loader used for reloads.
func WithLoader(l *Loader) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.loader = l
		}
	}
}

// WithWatcherClock sets the clock used for the reload delay.
func WithWatcherClock(c clock.Clock) WatcherOption {
	return func(w *Watcher) {
		if c != nil {
			w.clock = c
		}
	}
}

// WithWatcherLogger sets the logger.
func WithWatcherLogger(l *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithErrorHandler receives reload and watch errors.
func WithErrorHandler(fn func(error)) WatcherOption {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// NewWatcher starts watching path. onChange is called with every
// successfully reloaded configuration; invalid files are reported to the
// error handler and the previous configuration stays in effect.
func NewWatcher(path string, onChange func(Config), opts ...WatcherOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:     abs,
		loader:   NewLoader(),
		clock:    clock.Real(),
		delay:    DefaultReloadDelay,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		onChange: onChange,
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With("component", "config", "path", abs)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, err
	}
	w.fsw = fsw

	w.wg.Add(1)
	go w.processLoop()
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// processLoop handles incoming fsnotify events.
func (w *Watcher) processLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Rename) {
				w.logger.Debug("config file changed", "op", ev.Op.String())
				w.schedule()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
			w.reportError(err)
		}
	}
}

// schedule arms the reload timer, replacing any pending one.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	w.seq++
	currentSeq := w.seq
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = w.clock.AfterFunc(w.delay, func() {
		w.mu.Lock()
		stale := w.closed || w.seq != currentSeq
		if !stale {
			w.timer = nil
		}
		w.mu.Unlock()
		if !stale {
			w.Reload()
		}
	})
}

// Reload loads the file now and dispatches the result.
func (w *Watcher) Reload() {
	cfg, err := w.loader.Load(w.path)
	if err != nil {
		w.logger.Warn("config reload failed", "error", err)
		w.reportError(err)
		return
	}
	w.logger.Info("config reloaded")
	if w.onChange != nil {
		w.onChange(cfg)
	}
}

func (w *Watcher) reportError(err error) {
	if w.onError != nil {
		w.onError(err)
	}
}

// Close stops the watcher. A pending reload is cancelled.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	close(w.closeCh)
	w.mu.Unlock()

	w.wg.Wait()
	return w.fsw.Close()
}
