package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/rewind/internal/clock"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rewind.toml")
	writeFile(t, path, "[history]\nmaxSize = 10\n")

	changes := make(chan Config, 4)
	w, err := NewWatcher(path, func(c Config) { changes <- c },
		WithLoader(NewLoader(WithoutEnv())),
		WithReloadDelay(20*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	writeFile(t, path, "[history]\nmaxSize = 42\n")

	select {
	case cfg := <-changes:
		if cfg.History.MaxSize != 42 {
			t.Errorf("MaxSize = %d, want 42", cfg.History.MaxSize)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}
}

func TestWatcher_InvalidFileReportsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rewind.toml")
	writeFile(t, path, "[history]\nmaxSize = 10\n")

	errs := make(chan error, 4)
	changed := make(chan Config, 4)
	w, err := NewWatcher(path, func(c Config) { changed <- c },
		WithLoader(NewLoader(WithoutEnv())),
		WithReloadDelay(20*time.Millisecond),
		WithErrorHandler(func(err error) { errs <- err }),
	)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	writeFile(t, path, "[history]\nmaxSize = 0\n")

	select {
	case err := <-errs:
		if err == nil {
			t.Error("expected non-nil error")
		}
	case cfg := <-changed:
		t.Fatalf("invalid config dispatched: %+v", cfg)
	case <-time.After(5 * time.Second):
		t.Fatal("no error reported")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rewind.toml")
	writeFile(t, path, "[history]\nmaxSize = 10\n")

	fc := clock.NewFake(time.Unix(0, 0))
	w, err := NewWatcher(path, nil,
		WithLoader(NewLoader(WithoutEnv())),
		WithWatcherClock(fc),
	)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	writeFile(t, filepath.Join(dir, "other.toml"), "x = 1\n")
	time.Sleep(100 * time.Millisecond)

	if fc.Pending() != 0 {
		t.Errorf("reload scheduled for unrelated file")
	}
}

func TestWatcher_CoalescesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rewind.toml")
	writeFile(t, path, "[history]\nmaxSize = 10\n")

	fc := clock.NewFake(time.Unix(0, 0))
	count := 0
	w, err := NewWatcher(path, func(Config) { count++ },
		WithLoader(NewLoader(WithoutEnv())),
		WithWatcherClock(fc),
	)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	for i := 0; i < 5; i++ {
		w.schedule()
	}
	if fc.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", fc.Pending())
	}
	fc.Advance(DefaultReloadDelay)

	if count != 1 {
		t.Errorf("reloads = %d, want 1", count)
	}
}

func TestWatcher_CloseCancelsPending(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rewind.toml")
	writeFile(t, path, "[history]\nmaxSize = 10\n")

	fc := clock.NewFake(time.Unix(0, 0))
	count := 0
	w, err := NewWatcher(path, func(Config) { count++ }, WithWatcherClock(fc))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	w.schedule()
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	fc.Advance(time.Second)

	if count != 0 {
		t.Errorf("reload ran after Close")
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
