package loader

import (
	"errors"
	"testing"
)

func TestYAMLLoader_Load(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/rewind.yaml", `
history:
  maxSize: 30
  minorChangeThreshold: 64
  ignoreMinorChanges: true
  restoreTimeout: 2s
metrics:
  buckets: [0.1, 0.5]
`)

	config, err := NewYAMLLoaderWithFS(memfs, "/rewind.yaml").Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tests := []struct {
		path string
		want any
	}{
		{"history.maxSize", int64(30)},
		{"history.minorChangeThreshold", int64(64)},
		{"history.ignoreMinorChanges", true},
		{"history.restoreTimeout", "2s"},
	}
	for _, tt := range tests {
		if got, ok := getByPath(config, tt.path); !ok || got != tt.want {
			t.Errorf("%s = %v (%T), want %v", tt.path, got, got, tt.want)
		}
	}

	buckets, _ := getByPath(config, "metrics.buckets")
	if list, ok := buckets.([]any); !ok || len(list) != 2 {
		t.Errorf("metrics.buckets = %v, want 2 items", buckets)
	}
}

func TestYAMLLoader_ParseError(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/bad.yaml", "history: [unclosed\n")

	_, err := NewYAMLLoaderWithFS(memfs, "/bad.yaml").Load()
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
}

func TestYAMLLoader_MissingFile(t *testing.T) {
	config, err := NewYAMLLoaderWithFS(NewMemFS(), "/none.yml").Load()
	if err != nil || config != nil {
		t.Errorf("Load() = %v, %v; want nil, nil", config, err)
	}
}
