package canvas

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dshills/rewind/internal/clock"
	"github.com/dshills/rewind/internal/engine"
	"github.com/dshills/rewind/internal/engine/classify"
	"github.com/dshills/rewind/internal/engine/history"
)

func mustAdd(t *testing.T, c *Canvas, o Object) string {
	t.Helper()
	id, err := c.Add(o)
	if err != nil {
		t.Fatalf("Add(%+v) error = %v", o, err)
	}
	return id
}

func TestNew(t *testing.T) {
	c := New(WithBackground("#000000"))

	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
	if c.Background() != "#000000" {
		t.Errorf("Background() = %q, want #000000", c.Background())
	}
	snap, err := c.Serialize()
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if err := Validate(snap); err != nil {
		t.Errorf("Validate(empty scene) error = %v", err)
	}
}

func TestAdd(t *testing.T) {
	c := New()

	id := mustAdd(t, c, Object{Type: "rect", Left: 1, Top: 2, Width: 10, Height: 5, Fill: "#ff0000"})
	if id == "" {
		t.Fatal("Add() returned empty id")
	}
	named := mustAdd(t, c, Object{ID: "title", Type: "textbox", Text: "Hello"})

	got, ok := c.Object(id)
	if !ok {
		t.Fatalf("Object(%s) not found", id)
	}
	want := Object{ID: id, Type: "rect", Left: 1, Top: 2, Width: 10, Height: 5, ScaleX: 1, ScaleY: 1, Fill: "#ff0000"}
	if got != want {
		t.Errorf("Object() = %+v, want %+v", got, want)
	}
	if ids := c.IDs(); len(ids) != 2 || ids[1] != named {
		t.Errorf("IDs() = %v, want [%s title]", ids, id)
	}

	if _, err := c.Add(Object{ID: "title"}); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("Add(duplicate) error = %v, want ErrDuplicateID", err)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d after rejected add, want 2", c.Len())
	}
}

func TestEdits(t *testing.T) {
	c := New()
	id := mustAdd(t, c, Object{ID: "r", Type: "rect", Left: 10, Top: 10, Width: 4, Height: 4, Angle: 350})
	mustAdd(t, c, Object{ID: "t", Type: "text", Text: "a"})

	steps := []struct {
		name  string
		apply func() error
		check func(o Object) bool
	}{
		{"move", func() error { return c.Move(id, 5, -3) }, func(o Object) bool { return o.Left == 15 && o.Top == 7 }},
		{"resize", func() error { return c.Resize(id, 2, 0.5) }, func(o Object) bool { return o.ScaleX == 2 && o.ScaleY == 0.5 }},
		{"rotate wraps", func() error { return c.Rotate(id, 20) }, func(o Object) bool { return o.Angle == 10 }},
		{"rotate negative", func() error { return c.Rotate(id, -30) }, func(o Object) bool { return o.Angle == 340 }},
		{"fill", func() error { return c.SetFill(id, "#00ff00") }, func(o Object) bool { return o.Fill == "#00ff00" }},
		{"stroke", func() error { return c.SetStroke(id, "#000") }, func(o Object) bool { return o.Stroke == "#000" }},
		{"lock", func() error { return c.SetLocked(id, true) }, func(o Object) bool { return o.Locked }},
	}
	for _, st := range steps {
		t.Run(st.name, func(t *testing.T) {
			if err := st.apply(); err != nil {
				t.Fatalf("error = %v", err)
			}
			o, _ := c.Object(id)
			if !st.check(o) {
				t.Errorf("object = %+v", o)
			}
		})
	}

	if err := c.SetText("t", "abc"); err != nil {
		t.Fatalf("SetText() error = %v", err)
	}
	if o, _ := c.Object("t"); o.Text != "abc" {
		t.Errorf("Text = %q, want abc", o.Text)
	}
	if err := c.SetText(id, "x"); err == nil {
		t.Error("SetText() on a rect should fail")
	}
}

func TestEdits_Errors(t *testing.T) {
	c := New()
	mustAdd(t, c, Object{ID: "locked", Type: "rect", Locked: true})

	before, _ := c.Serialize()
	rev := c.Revision()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"move missing", c.Move("nope", 1, 1), ErrNotFound},
		{"remove missing", c.Remove("nope"), ErrNotFound},
		{"move locked", c.Move("locked", 1, 1), ErrLocked},
		{"fill locked", c.SetFill("locked", "#fff"), ErrLocked},
		{"reorder range", c.Reorder("locked", 3), ErrOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Errorf("error = %v, want %v", tt.err, tt.want)
			}
		})
	}
	if err := c.Resize("locked", 0, 1); err == nil {
		t.Error("Resize() with zero factor should fail")
	}

	after, _ := c.Serialize()
	if after != before || c.Revision() != rev {
		t.Error("failed edits changed the scene")
	}
}

func TestRemoveAndReorder(t *testing.T) {
	c := New()
	for _, id := range []string{"a", "b", "c"} {
		mustAdd(t, c, Object{ID: id})
	}

	if err := c.BringToFront("a"); err != nil {
		t.Fatalf("BringToFront() error = %v", err)
	}
	if got := c.IDs(); len(got) != 3 || got[0] != "b" || got[2] != "a" {
		t.Errorf("IDs() = %v, want [b c a]", got)
	}
	if err := c.SendToBack("c"); err != nil {
		t.Fatalf("SendToBack() error = %v", err)
	}
	if got := c.IDs(); got[0] != "c" || got[1] != "b" {
		t.Errorf("IDs() = %v, want [c b a]", got)
	}

	if err := c.SetLocked("b", true); err != nil {
		t.Fatalf("SetLocked() error = %v", err)
	}
	if err := c.Remove("b"); err != nil {
		t.Fatalf("Remove(locked) error = %v", err)
	}
	if got := c.IDs(); len(got) != 2 || got[0] != "c" || got[1] != "a" {
		t.Errorf("IDs() = %v, want [c a]", got)
	}
}

func TestChangeHandler(t *testing.T) {
	var changes []Change
	c := New(WithChangeHandler(func(ch Change) { changes = append(changes, ch) }))

	id := mustAdd(t, c, Object{ID: "r"})
	c.Move(id, 1, 0)
	c.SetFill(id, "#fff")
	c.Move("missing", 1, 0)

	want := []struct {
		action     history.ActionType
		continuous bool
	}{
		{history.ActionAdd, false},
		{history.ActionMove, true},
		{history.ActionStyleChange, false},
	}
	if len(changes) != len(want) {
		t.Fatalf("changes = %d, want %d", len(changes), len(want))
	}
	for i, w := range want {
		if changes[i].Action != w.action || changes[i].Continuous != w.continuous {
			t.Errorf("change %d = %v/%v, want %v/%v", i, changes[i].Action, changes[i].Continuous, w.action, w.continuous)
		}
		if len(changes[i].ObjectIDs) != 1 || changes[i].ObjectIDs[0] != "r" {
			t.Errorf("change %d ObjectIDs = %v, want [r]", i, changes[i].ObjectIDs)
		}
	}
	if changes[1].Description != "Moved object" {
		t.Errorf("Description = %q, want %q", changes[1].Description, "Moved object")
	}
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	c := New()
	mustAdd(t, c, Object{ID: "a", Left: 1})
	snap, _ := c.Serialize()

	c.Move("a", 10, 0)
	mustAdd(t, c, Object{ID: "b"})

	if err := c.Restore(ctx, snap); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if got, _ := c.Serialize(); got != snap {
		t.Errorf("Serialize() after Restore = %s, want %s", got, snap)
	}
	if o, _ := c.Object("a"); o.Left != 1 {
		t.Errorf("Left = %v, want 1", o.Left)
	}
}

func TestRestore_Invalid(t *testing.T) {
	tests := []struct {
		name string
		snap string
	}{
		{"not json", "{oops"},
		{"no objects", `{"version":"rewind/1"}`},
		{"objects not array", `{"objects":{}}`},
		{"item not object", `{"objects":[1]}`},
		{"missing id", `{"objects":[{"type":"rect"}]}`},
		{"duplicate id", `{"objects":[{"id":"a"},{"id":"a"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			mustAdd(t, c, Object{ID: "keep"})
			before, _ := c.Serialize()

			err := c.Restore(context.Background(), tt.snap)
			if !errors.Is(err, engine.ErrInvalidSnapshot) {
				t.Errorf("Restore() error = %v, want ErrInvalidSnapshot", err)
			}
			if after, _ := c.Serialize(); after != before {
				t.Error("rejected snapshot was partially applied")
			}
		})
	}
}

func TestRestore_Cancelled(t *testing.T) {
	c := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.Restore(ctx, `{"objects":[]}`); !errors.Is(err, context.Canceled) {
		t.Errorf("Restore() error = %v, want context.Canceled", err)
	}
}

func TestSnapshotClassifies(t *testing.T) {
	c := New()
	mustAdd(t, c, Object{ID: "a", Type: "rect", Width: 3, Height: 3})
	prev, _ := c.Serialize()
	c.Rotate("a", 45)
	cur, _ := c.Serialize()

	res := classify.New().Classify(classify.Input{Previous: prev, HasPrevious: true, Current: cur})
	if res.Action != history.ActionRotate {
		t.Errorf("Action = %v, want rotate", res.Action)
	}
	if len(res.AffectedIDs) != 1 || res.AffectedIDs[0] != "a" {
		t.Errorf("AffectedIDs = %v, want [a]", res.AffectedIDs)
	}
}

func TestTrack(t *testing.T) {
	ctx := context.Background()
	fc := clock.NewFake(time.Unix(0, 0))
	c := New()
	e, err := engine.New(c,
		engine.WithClock(fc),
		engine.WithMinorChangeFilter(false, 0),
	)
	if err != nil {
		t.Fatalf("engine.New() error = %v", err)
	}
	defer e.Close()
	Track(c, e)

	mustAdd(t, c, Object{ID: "a", Type: "rect"})
	if e.HistorySize() != 1 {
		t.Fatalf("HistorySize() = %d after add, want 1", e.HistorySize())
	}

	// A drag is a burst of moves recorded once
	for i := 0; i < 10; i++ {
		c.Move("a", 1, 0)
		fc.Advance(50 * time.Millisecond)
	}
	fc.Advance(engine.DefaultDebounceDelay)
	if e.HistorySize() != 2 {
		t.Fatalf("HistorySize() = %d after drag, want 2", e.HistorySize())
	}
	if got := e.Metadata()[1].ActionType; got != history.ActionMove {
		t.Errorf("ActionType = %v, want move", got)
	}

	if err := e.Undo(ctx); err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if o, _ := c.Object("a"); o.Left != 0 {
		t.Errorf("Left after undo = %v, want 0", o.Left)
	}
	fc.Advance(time.Second)
	if e.HistorySize() != 2 || e.CurrentIndex() != 0 {
		t.Errorf("restore was recorded: size %d cursor %d", e.HistorySize(), e.CurrentIndex())
	}

	if err := e.Redo(ctx); err != nil {
		t.Fatalf("Redo() error = %v", err)
	}
	if o, _ := c.Object("a"); o.Left != 10 {
		t.Errorf("Left after redo = %v, want 10", o.Left)
	}
}
