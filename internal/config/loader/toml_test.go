package loader

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"
)

// MemFS is an in-memory file system for testing.
type MemFS struct {
	files map[string][]byte
}

func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string][]byte)}
}

func (m *MemFS) AddFile(path string, content string) {
	m.files[path] = []byte(content)
}

func (m *MemFS) ReadFile(path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

func (m *MemFS) Stat(path string) (fs.FileInfo, error) {
	if _, ok := m.files[path]; ok {
		return &memFileInfo{name: path}, nil
	}
	return nil, fs.ErrNotExist
}

type memFileInfo struct {
	name string
}

func (f *memFileInfo) Name() string       { return f.name }
func (f *memFileInfo) Size() int64        { return 0 }
func (f *memFileInfo) Mode() fs.FileMode  { return 0644 }
func (f *memFileInfo) ModTime() time.Time { return time.Now() }
func (f *memFileInfo) IsDir() bool        { return false }
func (f *memFileInfo) Sys() any           { return nil }

func getByPath(data map[string]any, path string) (any, bool) {
	current := any(data)
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func TestTOMLLoader_Load(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/rewind.toml", `
[history]
maxSize = 25
debounceDelay = "250ms"
compressionEnabled = false

[log]
level = "debug"
`)

	config, err := NewTOMLLoaderWithFS(memfs, "/rewind.toml").Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tests := []struct {
		path string
		want any
	}{
		{"history.maxSize", int64(25)},
		{"history.debounceDelay", "250ms"},
		{"history.compressionEnabled", false},
		{"log.level", "debug"},
	}
	for _, tt := range tests {
		if got, ok := getByPath(config, tt.path); !ok || got != tt.want {
			t.Errorf("%s = %v (%T), want %v", tt.path, got, got, tt.want)
		}
	}
}

func TestTOMLLoader_MissingFile(t *testing.T) {
	config, err := NewTOMLLoaderWithFS(NewMemFS(), "/missing.toml").Load()
	if err != nil {
		t.Errorf("missing file should not be an error: %v", err)
	}
	if config != nil {
		t.Errorf("config = %v, want nil", config)
	}
}

func TestTOMLLoader_ParseError(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/bad.toml", "[history\nmaxSize = 1\n")

	_, err := NewTOMLLoaderWithFS(memfs, "/bad.toml").Load()
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if perr.Path != "/bad.toml" {
		t.Errorf("Path = %q, want /bad.toml", perr.Path)
	}
	if perr.Line == 0 {
		t.Error("Line should be set for TOML decode errors")
	}
}

func TestTOMLLoader_LoadFromReader(t *testing.T) {
	config, err := NewTOMLLoader("").LoadFromReader(strings.NewReader("[tui]\nobjects = 3\n"))
	if err != nil {
		t.Fatalf("LoadFromReader failed: %v", err)
	}
	if got, _ := getByPath(config, "tui.objects"); got != int64(3) {
		t.Errorf("tui.objects = %v, want 3", got)
	}
}

func TestDeepMerge(t *testing.T) {
	dst := map[string]any{
		"history": map[string]any{"maxSize": int64(50), "codec": "zstd"},
		"log":     map[string]any{"level": "info"},
	}
	src := map[string]any{
		"history": map[string]any{"maxSize": int64(10)},
		"metrics": map[string]any{"addr": ":9090"},
	}

	got := DeepMerge(dst, src)

	tests := []struct {
		path string
		want any
	}{
		{"history.maxSize", int64(10)},
		{"history.codec", "zstd"},
		{"log.level", "info"},
		{"metrics.addr", ":9090"},
	}
	for _, tt := range tests {
		if v, ok := getByPath(got, tt.path); !ok || v != tt.want {
			t.Errorf("%s = %v, want %v", tt.path, v, tt.want)
		}
	}

	if DeepMerge(nil, nil) == nil {
		t.Error("DeepMerge(nil, nil) should return an empty map")
	}
}

func TestForPath(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"a.toml", "*loader.TOMLLoader", false},
		{"a.yaml", "*loader.YAMLLoader", false},
		{"a.YML", "*loader.YAMLLoader", false},
		{"a.json", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			l, err := ForPath(nil, tt.path)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ForPath() error = %v", err)
			}
			switch l.(type) {
			case *TOMLLoader:
				if tt.want != "*loader.TOMLLoader" {
					t.Errorf("got TOML loader, want %s", tt.want)
				}
			case *YAMLLoader:
				if tt.want != "*loader.YAMLLoader" {
					t.Errorf("got YAML loader, want %s", tt.want)
				}
			}
		})
	}
}
