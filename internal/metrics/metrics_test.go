package metrics

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/dshills/rewind/internal/clock"
	"github.com/dshills/rewind/internal/engine"
	"github.com/dshills/rewind/internal/engine/history"
)

func TestCollector_Callbacks(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg, "test")

	c.OnCapture(history.Metadata{ActionType: history.ActionMove, SizeBytes: 1024})
	c.OnCapture(history.Metadata{ActionType: history.ActionMove, SizeBytes: 2048})
	c.OnSkip(engine.SkipInsignificant)
	c.OnNavigate(engine.OpUndo, 0)
	c.OnEvict(3)
	c.OnCompress(0.25)
	c.OnError(engine.OpRedo, errors.New("boom"))
	c.OnStats(engine.Stats{Size: 4, CurrentIndex: 2, MemoryUsage: 900, StoredBytes: 300, CompressedEntries: 1, State: "replaying"})

	tests := []struct {
		name      string
		collector prometheus.Collector
		want      float64
	}{
		{"captures move", c.captures.WithLabelValues("move"), 2},
		{"skips", c.skips.WithLabelValues("insignificant"), 1},
		{"navigations", c.navigations.WithLabelValues("undo"), 1},
		{"errors", c.errors.WithLabelValues("redo"), 1},
		{"evictions", c.evictions, 3},
		{"size", c.size, 4},
		{"cursor", c.cursor, 2},
		{"memory", c.memory, 900},
		{"stored", c.stored, 300},
		{"compressed", c.compressed, 1},
		{"replaying", c.replaying, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.collector); got != tt.want {
				t.Errorf("value = %v, want %v", got, tt.want)
			}
		})
	}

	if n := testutil.CollectAndCount(c.ratio); n != 1 {
		t.Errorf("compression_ratio series = %d, want 1", n)
	}
}

func TestCollector_Names(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg, "")
	c.OnStats(engine.Stats{})

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	found := false
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), DefaultNamespace+"_") {
			t.Errorf("metric %s lacks the %s prefix", mf.GetName(), DefaultNamespace)
		}
		if mf.GetName() == "rewind_history_size" {
			found = true
		}
	}
	if !found {
		t.Error("rewind_history_size not registered")
	}
}

func TestCollector_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg, "dup")

	defer func() {
		if recover() == nil {
			t.Error("second New() on the same registry did not panic")
		}
	}()
	New(reg, "dup")
}

func TestCollector_WithEngine(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg, "rewind")

	doc := "A"
	host := engine.HostFuncs{
		SerializeFunc: func() (string, error) { return doc, nil },
		RestoreFunc: func(_ context.Context, s string) error {
			doc = s
			return nil
		},
	}
	fc := clock.NewFake(time.Unix(0, 0))
	e, err := engine.New(host,
		engine.WithClock(fc),
		engine.WithMaxHistorySize(2),
		engine.WithMinorChangeFilter(false, 0),
		engine.WithObserver(c),
	)
	if err != nil {
		t.Fatalf("engine.New() error = %v", err)
	}
	defer e.Close()

	for _, s := range []string{"A", "B", "C"} {
		doc = s
		if err := e.CaptureNow(history.ActionModify, ""); err != nil {
			t.Fatalf("CaptureNow() error = %v", err)
		}
	}
	if err := e.Undo(context.Background()); err != nil {
		t.Fatalf("Undo() error = %v", err)
	}

	if got := testutil.ToFloat64(c.captures.WithLabelValues("modify")); got != 3 {
		t.Errorf("captures = %v, want 3", got)
	}
	if got := testutil.ToFloat64(c.evictions); got != 1 {
		t.Errorf("evictions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.size); got != 2 {
		t.Errorf("history_size = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.cursor); got != 0 {
		t.Errorf("history_cursor = %v, want 0", got)
	}
	if got := testutil.ToFloat64(c.navigations.WithLabelValues("undo")); got != 1 {
		t.Errorf("undo navigations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.replaying); got != 0 {
		t.Errorf("replaying = %v, want 0", got)
	}
}
