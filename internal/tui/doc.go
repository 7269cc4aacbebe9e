// Package tui is a terminal canvas editor built on tcell.
//
// The editor draws the objects of a canvas.Canvas as colored rectangles and
// lists the engine's history in a side panel, with the cursor entry marked.
// Key presses edit the canvas; the canvas change handler installed by
// canvas.Track records them in the engine, and u/U navigate the timeline.
//
// A Notifier registered as an engine observer wakes the event loop when the
// history changes outside a key press, such as when a debounced capture
// fires.
package tui
