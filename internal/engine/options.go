package engine

import (
	"log/slog"
	"time"

	"github.com/dshills/rewind/internal/clock"
	"github.com/dshills/rewind/internal/config"
	"github.com/dshills/rewind/internal/engine/capture"
	"github.com/dshills/rewind/internal/engine/classify"
	"github.com/dshills/rewind/internal/engine/compress"
	"github.com/dshills/rewind/internal/engine/history"
)

// Default configuration values.
const (
	DefaultMaxHistorySize       = history.DefaultMaxSize
	DefaultDebounceDelay        = capture.DefaultDelay
	DefaultCompressionThreshold = compress.DefaultThreshold
	DefaultMinorChangeThreshold = classify.DefaultMinorChangeThreshold
)

// settings collects option values before the engine is assembled.
type settings struct {
	maxSize              int
	debounceDelay        time.Duration
	compressionEnabled   bool
	compressionThreshold int
	codecName            string
	codec                compress.Codec
	ignoreMinor          bool
	minorThreshold       int
	classifier           *classify.Classifier
	clock                clock.Clock
	sessionID            string
	logger               *slog.Logger
	observers            []Observer
	onError              func(Op, error)
	restoreTimeout       time.Duration
}

func defaultSettings() settings {
	return settings{
		maxSize:              DefaultMaxHistorySize,
		debounceDelay:        DefaultDebounceDelay,
		compressionEnabled:   true,
		compressionThreshold: DefaultCompressionThreshold,
		ignoreMinor:          true,
		minorThreshold:       DefaultMinorChangeThreshold,
	}
}

// Option configures an Engine during creation.
type Option func(*settings)

// WithConfig applies a history configuration section. Options given after
// it override individual values.
func WithConfig(cfg config.History) Option {
	return func(s *settings) {
		if cfg.MaxSize > 0 {
			s.maxSize = cfg.MaxSize
		}
		if cfg.DebounceDelay > 0 {
			s.debounceDelay = cfg.DebounceDelay.Std()
		}
		s.compressionEnabled = cfg.CompressionEnabled
		if cfg.CompressionThreshold > 0 {
			s.compressionThreshold = cfg.CompressionThreshold
		}
		if cfg.Codec != "" {
			s.codecName = cfg.Codec
		}
		s.ignoreMinor = cfg.IgnoreMinorChanges
		if cfg.MinorChangeThreshold > 0 {
			s.minorThreshold = cfg.MinorChangeThreshold
		}
		s.restoreTimeout = cfg.RestoreTimeout.Std()
	}
}

// WithMaxHistorySize sets the maximum number of entries.
func WithMaxHistorySize(max int) Option {
	return func(s *settings) {
		if max > 0 {
			s.maxSize = max
		}
	}
}

// WithDebounceDelay sets the capture debounce window.
func WithDebounceDelay(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.debounceDelay = d
		}
	}
}

// WithCompression enables or disables compression and sets the size
// threshold. Non-positive thresholds keep the current value.
func WithCompression(enabled bool, threshold int) Option {
	return func(s *settings) {
		s.compressionEnabled = enabled
		if threshold > 0 {
			s.compressionThreshold = threshold
		}
	}
}

// WithCodec sets the compression codec. The engine does not close it.
func WithCodec(c compress.Codec) Option {
	return func(s *settings) {
		s.codec = c
	}
}

// WithMinorChangeFilter configures the size-delta significance filter.
func WithMinorChangeFilter(enabled bool, threshold int) Option {
	return func(s *settings) {
		s.ignoreMinor = enabled
		if threshold > 0 {
			s.minorThreshold = threshold
		}
	}
}

// WithClassifier replaces the change classifier. It takes precedence over
// WithMinorChangeFilter.
func WithClassifier(c *classify.Classifier) Option {
	return func(s *settings) {
		s.classifier = c
	}
}

// WithClock sets the clock used for timestamps and the debounce timer.
func WithClock(c clock.Clock) Option {
	return func(s *settings) {
		s.clock = c
	}
}

// WithSessionID tags every entry with id. A random id is used otherwise.
func WithSessionID(id string) Option {
	return func(s *settings) {
		s.sessionID = id
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}

// WithObserver registers an observer. It may be given more than once.
func WithObserver(o Observer) Option {
	return func(s *settings) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// WithErrorHandler receives every failure, including those from deferred
// captures that have no caller to return to.
func WithErrorHandler(fn func(op Op, err error)) Option {
	return func(s *settings) {
		s.onError = fn
	}
}

// WithRestoreTimeout bounds each restore. Zero disables the bound.
func WithRestoreTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d >= 0 {
			s.restoreTimeout = d
		}
	}
}
