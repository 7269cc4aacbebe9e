package config

import (
	"fmt"
	"time"
)

// Config is the complete rewind configuration.
type Config struct {
	History History `toml:"history" yaml:"history"`
	Log     Log     `toml:"log" yaml:"log"`
	Metrics Metrics `toml:"metrics" yaml:"metrics"`
	TUI     TUI     `toml:"tui" yaml:"tui"`
}

// History configures the history engine.
type History struct {
	// MaxSize bounds the number of entries.
	MaxSize int `toml:"maxSize" yaml:"maxSize"`
	// DebounceDelay is the quiet period before a deferred capture runs.
	DebounceDelay Duration `toml:"debounceDelay" yaml:"debounceDelay"`

	CompressionEnabled bool `toml:"compressionEnabled" yaml:"compressionEnabled"`
	// CompressionThreshold is the snapshot size in bytes above which
	// entries are compressed.
	CompressionThreshold int `toml:"compressionThreshold" yaml:"compressionThreshold"`
	// Codec is "zstd" or "gzip".
	Codec string `toml:"codec" yaml:"codec"`

	IgnoreMinorChanges bool `toml:"ignoreMinorChanges" yaml:"ignoreMinorChanges"`
	// MinorChangeThreshold is the snapshot size delta in bytes below which
	// a debounced capture is dropped.
	MinorChangeThreshold int `toml:"minorChangeThreshold" yaml:"minorChangeThreshold"`

	// RestoreTimeout bounds each restore; zero means no bound.
	RestoreTimeout Duration `toml:"restoreTimeout" yaml:"restoreTimeout"`
}

// Log configures structured logging.
type Log struct {
	// Level is debug, info, warn or error.
	Level string `toml:"level" yaml:"level"`
	// Format is text or json.
	Format string `toml:"format" yaml:"format"`
}

// Metrics configures the Prometheus endpoint.
type Metrics struct {
	// Addr is the listen address for /metrics; empty disables it.
	Addr string `toml:"addr" yaml:"addr"`
	// Namespace prefixes every metric name.
	Namespace string `toml:"namespace" yaml:"namespace"`
}

// TUI configures the terminal editor.
type TUI struct {
	// Objects is the number of shapes in the initial scene.
	Objects int `toml:"objects" yaml:"objects"`
	// Step is the distance moved per arrow key press.
	Step int `toml:"step" yaml:"step"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		History: History{
			MaxSize:              50,
			DebounceDelay:        Duration(500 * time.Millisecond),
			CompressionEnabled:   true,
			CompressionThreshold: 10 * 1024,
			Codec:                "zstd",
			IgnoreMinorChanges:   true,
			MinorChangeThreshold: 100,
		},
		Log: Log{
			Level:  "warn",
			Format: "text",
		},
		Metrics: Metrics{
			Namespace: "rewind",
		},
		TUI: TUI{
			Objects: 3,
			Step:    1,
		},
	}
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs ValidationErrors

	h := c.History
	if h.MaxSize < 1 {
		errs = append(errs, &ValidationError{Path: "history.maxSize", Value: h.MaxSize, Message: "must be at least 1"})
	}
	if h.DebounceDelay < 0 {
		errs = append(errs, &ValidationError{Path: "history.debounceDelay", Value: h.DebounceDelay, Message: "must not be negative"})
	}
	if h.CompressionThreshold < 0 {
		errs = append(errs, &ValidationError{Path: "history.compressionThreshold", Value: h.CompressionThreshold, Message: "must not be negative"})
	}
	switch h.Codec {
	case "", "zstd", "gzip":
	default:
		errs = append(errs, &ValidationError{Path: "history.codec", Value: h.Codec, Message: "must be zstd or gzip"})
	}
	if h.MinorChangeThreshold < 0 {
		errs = append(errs, &ValidationError{Path: "history.minorChangeThreshold", Value: h.MinorChangeThreshold, Message: "must not be negative"})
	}
	if h.RestoreTimeout < 0 {
		errs = append(errs, &ValidationError{Path: "history.restoreTimeout", Value: h.RestoreTimeout, Message: "must not be negative"})
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, &ValidationError{Path: "log.level", Value: c.Log.Level, Message: "must be debug, info, warn or error"})
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, &ValidationError{Path: "log.format", Value: c.Log.Format, Message: "must be text or json"})
	}

	if c.TUI.Objects < 0 {
		errs = append(errs, &ValidationError{Path: "tui.objects", Value: c.TUI.Objects, Message: "must not be negative"})
	}
	if c.TUI.Step <= 0 {
		errs = append(errs, &ValidationError{Path: "tui.step", Value: c.TUI.Step, Message: "must be positive"})
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Duration is a time.Duration that reads and writes as a string such as
// "500ms" in configuration files.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}
