package script

import (
	"context"
	"io"
	"log/slog"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/rewind/internal/canvas"
	"github.com/dshills/rewind/internal/engine"
	"github.com/dshills/rewind/internal/engine/history"
)

// Runtime executes scripts against a canvas tracked by an engine.
type Runtime struct {
	state  *State
	bridge *Bridge
	canvas *canvas.Canvas
	engine *engine.Engine
	logger *slog.Logger
}

// NewRuntime creates a runtime exposing c and e to scripts. The caller is
// expected to have wired c to e, typically with canvas.Track.
func NewRuntime(c *canvas.Canvas, e *engine.Engine, logger *slog.Logger, opts ...StateOption) *Runtime {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := NewState(opts...)
	r := &Runtime{
		state:  s,
		bridge: NewBridge(s.L),
		canvas: c,
		engine: e,
		logger: logger.With("component", "script"),
	}
	s.RegisterModule("canvas", r.canvasModule())
	s.RegisterModule("history", r.historyModule())
	return r
}

// RunFile executes the script at path and flushes any pending capture.
func (r *Runtime) RunFile(ctx context.Context, path string) error {
	r.logger.Debug("running script", "path", path)
	err := r.state.DoFile(ctx, path)
	r.engine.Flush()
	return err
}

// RunString executes code and flushes any pending capture.
func (r *Runtime) RunString(ctx context.Context, code string) error {
	err := r.state.DoString(ctx, code)
	r.engine.Flush()
	return err
}

// Close releases the Lua state. The canvas and engine are left open.
func (r *Runtime) Close() error {
	return r.state.Close()
}

// scriptContext returns the context of the running script.
func (r *Runtime) scriptContext(L *lua.LState) context.Context {
	if ctx := L.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// check raises err as a Lua error.
func check(L *lua.LState, err error) {
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
}

func (r *Runtime) canvasModule() map[string]lua.LGFunction {
	return map[string]lua.LGFunction{
		"add": func(L *lua.LState) int {
			t := L.CheckTable(1)
			o := canvas.Object{}
			o.ID, _ = r.bridge.GetTableString(t, "id")
			o.Type, _ = r.bridge.GetTableString(t, "type")
			o.Left, _ = r.bridge.GetTableNumber(t, "left")
			o.Top, _ = r.bridge.GetTableNumber(t, "top")
			o.Width, _ = r.bridge.GetTableNumber(t, "width")
			o.Height, _ = r.bridge.GetTableNumber(t, "height")
			o.ScaleX, _ = r.bridge.GetTableNumber(t, "scaleX")
			o.ScaleY, _ = r.bridge.GetTableNumber(t, "scaleY")
			o.Angle, _ = r.bridge.GetTableNumber(t, "angle")
			o.Fill, _ = r.bridge.GetTableString(t, "fill")
			o.Stroke, _ = r.bridge.GetTableString(t, "stroke")
			o.Text, _ = r.bridge.GetTableString(t, "text")
			o.Locked, _ = r.bridge.GetTableBool(t, "locked")

			id, err := r.canvas.Add(o)
			check(L, err)
			L.Push(lua.LString(id))
			return 1
		},
		"remove": func(L *lua.LState) int {
			check(L, r.canvas.Remove(L.CheckString(1)))
			return 0
		},
		"move": func(L *lua.LState) int {
			check(L, r.canvas.Move(L.CheckString(1), float64(L.CheckNumber(2)), float64(L.CheckNumber(3))))
			return 0
		},
		"resize": func(L *lua.LState) int {
			fx := float64(L.CheckNumber(2))
			fy := float64(L.OptNumber(3, lua.LNumber(fx)))
			check(L, r.canvas.Resize(L.CheckString(1), fx, fy))
			return 0
		},
		"rotate": func(L *lua.LState) int {
			check(L, r.canvas.Rotate(L.CheckString(1), float64(L.CheckNumber(2))))
			return 0
		},
		"fill": func(L *lua.LState) int {
			check(L, r.canvas.SetFill(L.CheckString(1), L.CheckString(2)))
			return 0
		},
		"stroke": func(L *lua.LState) int {
			check(L, r.canvas.SetStroke(L.CheckString(1), L.CheckString(2)))
			return 0
		},
		"text": func(L *lua.LState) int {
			check(L, r.canvas.SetText(L.CheckString(1), L.CheckString(2)))
			return 0
		},
		"lock": func(L *lua.LState) int {
			check(L, r.canvas.SetLocked(L.CheckString(1), true))
			return 0
		},
		"unlock": func(L *lua.LState) int {
			check(L, r.canvas.SetLocked(L.CheckString(1), false))
			return 0
		},
		"reorder": func(L *lua.LState) int {
			check(L, r.canvas.Reorder(L.CheckString(1), L.CheckInt(2)-1))
			return 0
		},
		"get": func(L *lua.LState) int {
			o, ok := r.canvas.Object(L.CheckString(1))
			if !ok {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(r.bridge.ToLuaValue(o))
			return 1
		},
		"objects": func(L *lua.LState) int {
			L.Push(r.bridge.ToLuaValue(r.canvas.Objects()))
			return 1
		},
		"count": func(L *lua.LState) int {
			L.Push(lua.LNumber(r.canvas.Len()))
			return 1
		},
		"snapshot": func(L *lua.LState) int {
			s, err := r.canvas.Serialize()
			check(L, err)
			L.Push(lua.LString(s))
			return 1
		},
	}
}

func (r *Runtime) historyModule() map[string]lua.LGFunction {
	return map[string]lua.LGFunction{
		"undo": func(L *lua.LState) int {
			check(L, r.engine.Undo(r.scriptContext(L)))
			return 0
		},
		"redo": func(L *lua.LState) int {
			check(L, r.engine.Redo(r.scriptContext(L)))
			return 0
		},
		"seek": func(L *lua.LState) int {
			check(L, r.engine.Seek(r.scriptContext(L), L.CheckInt(1)-1))
			return 0
		},
		"capture": func(L *lua.LState) int {
			action, err := history.ParseActionType(L.OptString(1, ""))
			check(L, err)
			check(L, r.engine.CaptureNow(action, L.OptString(2, "")))
			return 0
		},
		"flush": func(L *lua.LState) int {
			r.engine.Flush()
			return 0
		},
		"pending": func(L *lua.LState) int {
			L.Push(lua.LBool(r.engine.CapturePending()))
			return 1
		},
		"size": func(L *lua.LState) int {
			L.Push(lua.LNumber(r.engine.HistorySize()))
			return 1
		},
		"index": func(L *lua.LState) int {
			L.Push(lua.LNumber(r.engine.CurrentIndex() + 1))
			return 1
		},
		"can_undo": func(L *lua.LState) int {
			L.Push(lua.LBool(r.engine.CanUndo()))
			return 1
		},
		"can_redo": func(L *lua.LState) int {
			L.Push(lua.LBool(r.engine.CanRedo()))
			return 1
		},
		"entries": func(L *lua.LState) int {
			L.Push(r.bridge.ToLuaValue(r.engine.Metadata()))
			return 1
		},
		"stats": func(L *lua.LState) int {
			L.Push(r.bridge.ToLuaValue(r.engine.Stats()))
			return 1
		},
		"clear": func(L *lua.LState) int {
			r.engine.Clear()
			return 0
		},
		"cleanup": func(L *lua.LState) int {
			L.Push(lua.LNumber(r.engine.CleanupOldStates(L.CheckInt(1))))
			return 1
		},
		"compress": func(L *lua.LState) int {
			L.Push(lua.LNumber(r.engine.CompressHistory()))
			return 1
		},
	}
}
