package loader

import "testing"

func TestEnvLoader_Load(t *testing.T) {
	l := NewEnvLoaderFrom("REWIND_", []string{
		"REWIND_HISTORY_MAX_SIZE=20",
		"REWIND_HISTORY_DEBOUNCE_DELAY=750ms",
		"REWIND_HISTORY_COMPRESSION_ENABLED=off",
		"REWIND_LOG_LEVEL=debug",
		"REWIND_CONFIG=/etc/rewind.toml",
		"OTHER_VAR=1",
	})

	config, err := l.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tests := []struct {
		path string
		want any
	}{
		{"history.maxSize", int64(20)},
		{"history.debounceDelay", "750ms"},
		{"history.compressionEnabled", false},
		{"log.level", "debug"},
	}
	for _, tt := range tests {
		if got, ok := getByPath(config, tt.path); !ok || got != tt.want {
			t.Errorf("%s = %v (%T), want %v", tt.path, got, got, tt.want)
		}
	}

	if _, ok := config["config"]; ok {
		t.Error("REWIND_CONFIG should be ignored")
	}
	if _, ok := config["other"]; ok {
		t.Error("unprefixed variables should be ignored")
	}
}

func TestEnvLoader_AddMapping(t *testing.T) {
	l := NewEnvLoaderFrom("REWIND_", []string{"REWIND_UNDO_DEPTH=9"})
	l.AddMapping("REWIND_UNDO_DEPTH", "history.maxSize")

	config, _ := l.Load()
	if got, _ := getByPath(config, "history.maxSize"); got != int64(9) {
		t.Errorf("history.maxSize = %v, want 9", got)
	}
}

func TestEnvLoader_envToPath(t *testing.T) {
	l := NewEnvLoader("REWIND_")

	tests := []struct {
		env  string
		want string
	}{
		{"REWIND_HISTORY_MAX_SIZE", "history.maxSize"},
		{"REWIND_TUI_OBJECTS", "tui.objects"},
		{"REWIND_HISTORY_MINOR_CHANGE_THRESHOLD", "history.minorChangeThreshold"},
		{"REWIND_SINGLE", "single"},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			if got := l.envToPath(tt.env); got != tt.want {
				t.Errorf("envToPath(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"", ""},
		{"true", true},
		{"Yes", true},
		{"off", false},
		{"1", int64(1)},
		{"0", int64(0)},
		{"-3", int64(-3)},
		{"0.25", 0.25},
		{"500ms", "500ms"},
		{"zstd", "zstd"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseValue(tt.in); got != tt.want {
				t.Errorf("parseValue(%q) = %v (%T), want %v", tt.in, got, got, tt.want)
			}
		})
	}
}
