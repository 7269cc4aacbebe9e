package config

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"
)

type memFS map[string]string

func (m memFS) ReadFile(path string) ([]byte, error) {
	data, ok := m[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return []byte(data), nil
}

func (m memFS) Stat(path string) (fs.FileInfo, error) {
	if _, ok := m[path]; !ok {
		return nil, fs.ErrNotExist
	}
	return nil, nil
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}

	h := cfg.History
	if h.MaxSize != 50 {
		t.Errorf("MaxSize = %d, want 50", h.MaxSize)
	}
	if h.DebounceDelay.Std() != 500*time.Millisecond {
		t.Errorf("DebounceDelay = %v, want 500ms", h.DebounceDelay)
	}
	if !h.CompressionEnabled || h.CompressionThreshold != 10240 {
		t.Errorf("compression = %v/%d, want true/10240", h.CompressionEnabled, h.CompressionThreshold)
	}
	if !h.IgnoreMinorChanges || h.MinorChangeThreshold != 100 {
		t.Errorf("minor filter = %v/%d, want true/100", h.IgnoreMinorChanges, h.MinorChangeThreshold)
	}
	if h.RestoreTimeout != 0 {
		t.Errorf("RestoreTimeout = %v, want 0", h.RestoreTimeout)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"max size", func(c *Config) { c.History.MaxSize = 0 }, "history.maxSize"},
		{"debounce", func(c *Config) { c.History.DebounceDelay = -1 }, "history.debounceDelay"},
		{"codec", func(c *Config) { c.History.Codec = "lz4" }, "history.codec"},
		{"minor threshold", func(c *Config) { c.History.MinorChangeThreshold = -1 }, "history.minorChangeThreshold"},
		{"restore timeout", func(c *Config) { c.History.RestoreTimeout = Duration(-time.Second) }, "history.restoreTimeout"},
		{"log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"tui step", func(c *Config) { c.TUI.Step = 0 }, "tui.step"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if !errors.Is(err, ErrValidationFailed) {
				t.Fatalf("Validate() = %v, want ErrValidationFailed", err)
			}
			if !strings.Contains(err.Error(), tt.path) {
				t.Errorf("error %q does not mention %s", err, tt.path)
			}
		})
	}
}

func TestValidate_Multiple(t *testing.T) {
	cfg := Default()
	cfg.History.MaxSize = -1
	cfg.Log.Level = "loud"

	var errs ValidationErrors
	if !errors.As(cfg.Validate(), &errs) {
		t.Fatal("expected ValidationErrors")
	}
	if len(errs) != 2 {
		t.Errorf("len(errs) = %d, want 2", len(errs))
	}
}

func TestLoader_Layers(t *testing.T) {
	files := memFS{
		"/etc/rewind.toml": `
[history]
maxSize = 20
debounceDelay = "250ms"
codec = "gzip"

[log]
level = "info"
`,
	}

	l := NewLoader(
		WithFS(files),
		WithEnviron([]string{
			"REWIND_HISTORY_MAX_SIZE=30",
			"REWIND_HISTORY_RESTORE_TIMEOUT=2s",
		}),
	)
	cfg, err := l.Load("/etc/rewind.toml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.History.MaxSize != 30 {
		t.Errorf("MaxSize = %d, want 30 from env", cfg.History.MaxSize)
	}
	if cfg.History.DebounceDelay.Std() != 250*time.Millisecond {
		t.Errorf("DebounceDelay = %v, want 250ms from file", cfg.History.DebounceDelay)
	}
	if cfg.History.Codec != "gzip" {
		t.Errorf("Codec = %q, want gzip", cfg.History.Codec)
	}
	if cfg.History.RestoreTimeout.Std() != 2*time.Second {
		t.Errorf("RestoreTimeout = %v, want 2s", cfg.History.RestoreTimeout)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if cfg.History.MinorChangeThreshold != 100 {
		t.Errorf("MinorChangeThreshold = %d, want default 100", cfg.History.MinorChangeThreshold)
	}
}

func TestLoader_YAML(t *testing.T) {
	files := memFS{
		"/rewind.yaml": "history:\n  maxSize: 7\n  ignoreMinorChanges: false\ntui:\n  objects: 5\n",
	}

	cfg, err := NewLoader(WithFS(files), WithoutEnv()).Load("/rewind.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.History.MaxSize != 7 || cfg.History.IgnoreMinorChanges {
		t.Errorf("history = %+v, want maxSize 7 and filter off", cfg.History)
	}
	if cfg.TUI.Objects != 5 {
		t.Errorf("TUI.Objects = %d, want 5", cfg.TUI.Objects)
	}
}

func TestLoader_Errors(t *testing.T) {
	files := memFS{
		"/bad-type.toml":  "[history]\nmaxSize = \"lots\"\n",
		"/invalid.toml":   "[history]\nmaxSize = 0\n",
		"/bad-dur.toml":   "[history]\ndebounceDelay = \"soon\"\n",
		"/rewind.json":    "{}",
		"/bad-syntax.yml": "history: [\n",
	}

	tests := []struct {
		path string
		want error
	}{
		{"/missing.toml", ErrFileNotFound},
		{"/bad-type.toml", ErrDecode},
		{"/bad-dur.toml", ErrDecode},
		{"/invalid.toml", ErrValidationFailed},
	}

	l := NewLoader(WithFS(files), WithoutEnv())
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if _, err := l.Load(tt.path); !errors.Is(err, tt.want) {
				t.Errorf("Load(%s) error = %v, want %v", tt.path, err, tt.want)
			}
		})
	}

	for _, path := range []string{"/rewind.json", "/bad-syntax.yml"} {
		if _, err := l.Load(path); err == nil {
			t.Errorf("Load(%s) should fail", path)
		}
	}
}

func TestLoader_NoFile(t *testing.T) {
	cfg, err := NewLoader(WithEnviron([]string{"REWIND_LOG_FORMAT=json"})).Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want json", cfg.Log.Format)
	}
}

func TestEncodeTOML_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.History.MaxSize = 12
	cfg.History.RestoreTimeout = Duration(3 * time.Second)

	data, err := cfg.EncodeTOML()
	if err != nil {
		t.Fatalf("EncodeTOML() error = %v", err)
	}
	if !strings.Contains(string(data), `debounceDelay = '500ms'`) && !strings.Contains(string(data), `debounceDelay = "500ms"`) {
		t.Errorf("encoded TOML missing debounceDelay:\n%s", data)
	}

	files := memFS{"/out.toml": string(data)}
	got, err := NewLoader(WithFS(files), WithoutEnv()).Load("/out.toml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != cfg {
		t.Errorf("round trip = %+v, want %+v", got, cfg)
	}
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("1m30s")); err != nil {
		t.Fatalf("UnmarshalText() error = %v", err)
	}
	if d.Std() != 90*time.Second {
		t.Errorf("d = %v, want 1m30s", d)
	}
	if err := d.UnmarshalText([]byte("fast")); err == nil {
		t.Error("expected error for invalid duration")
	}
}
