// Package script runs Lua scripts against a canvas and its history engine.
//
// Scripts see two global modules. Indices are 1-based, as is usual in Lua.
//
//	canvas.add{type="rect", left=0, top=0, width=10, height=4} -> id
//	canvas.remove(id)
//	canvas.move(id, dx, dy)
//	canvas.resize(id, fx, fy)
//	canvas.rotate(id, degrees)
//	canvas.fill(id, color)       canvas.stroke(id, color)
//	canvas.text(id, s)
//	canvas.lock(id)              canvas.unlock(id)
//	canvas.reorder(id, layer)
//	canvas.get(id) -> table|nil  canvas.objects() -> {table...}
//	canvas.count() -> n          canvas.snapshot() -> string
//
//	history.undo()   history.redo()   history.seek(i)
//	history.capture([action [, description]])
//	history.flush()  history.pending() -> bool
//	history.size()   history.index()  history.can_undo()  history.can_redo()
//	history.entries() -> {table...}   history.stats() -> table
//	history.clear()  history.cleanup(keep) -> n  history.compress() -> n
//
// Canvas edits are recorded the way an interactive editor records them:
// drags are debounced and discrete edits are captured at once. A pending
// capture is flushed when the script finishes.
//
// The Lua environment is sandboxed: the io, os, debug and package libraries
// are not opened and dofile, loadfile, load and loadstring are removed.
package script
