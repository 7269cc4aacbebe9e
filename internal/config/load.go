package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/rewind/internal/config/loader"
)

// Loader assembles a Config from defaults, an optional file and the
// environment, in that order of increasing precedence.
type Loader struct {
	fs      loader.FileSystem
	env     loader.Loader
	noEnv   bool
	prefix  string
	environ []string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFS reads files through fsys.
func WithFS(fsys loader.FileSystem) LoaderOption {
	return func(l *Loader) {
		l.fs = fsys
	}
}

// WithEnviron replaces os.Environ as the environment source.
func WithEnviron(environ []string) LoaderOption {
	return func(l *Loader) {
		l.environ = environ
	}
}

// WithEnvPrefix changes the environment variable prefix.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(l *Loader) {
		l.prefix = prefix
	}
}

// WithoutEnv disables environment overrides.
func WithoutEnv() LoaderOption {
	return func(l *Loader) {
		l.noEnv = true
	}
}

// NewLoader creates a Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		fs:     loader.DefaultFS(),
		prefix: loader.DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	if !l.noEnv {
		if l.environ != nil {
			l.env = loader.NewEnvLoaderFrom(l.prefix, l.environ)
		} else {
			l.env = loader.NewEnvLoader(l.prefix)
		}
	}
	return l
}

// Load returns the effective configuration. An empty path skips the file
// layer; a non-empty path must exist.
func (l *Loader) Load(path string) (Config, error) {
	merged := make(map[string]any)

	if path != "" {
		if _, err := l.fs.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("%w: %s", ErrFileNotFound, path)
			}
			return Config{}, err
		}
		fl, err := loader.ForPath(l.fs, path)
		if err != nil {
			return Config{}, err
		}
		fileMap, err := fl.Load()
		if err != nil {
			return Config{}, err
		}
		merged = loader.DeepMerge(merged, fileMap)
	}

	if l.env != nil {
		envMap, err := l.env.Load()
		if err != nil {
			return Config{}, err
		}
		merged = loader.DeepMerge(merged, envMap)
	}

	cfg, err := Decode(merged)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads configuration from path and the process environment.
func Load(path string) (Config, error) {
	return NewLoader().Load(path)
}

// Decode overlays a layered settings map onto Default. Unknown keys are
// ignored.
func Decode(m map[string]any) (Config, error) {
	cfg := Default()
	if len(m) == 0 {
		return cfg, nil
	}

	data, err := toml.Marshal(m)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return cfg, nil
}

// EncodeTOML renders the configuration as TOML.
func (c Config) EncodeTOML() ([]byte, error) {
	return loader.EncodeTOML(c)
}

// ConfigPath returns the path named by REWIND_CONFIG, if set.
func ConfigPath() string {
	return os.Getenv(loader.DefaultEnvPrefix + "CONFIG")
}
