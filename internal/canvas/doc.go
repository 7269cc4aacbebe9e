// Package canvas provides a thread-safe vector scene that serves as the
// document host for the history engine.
//
// The scene is kept as a JSON document:
//
//	{"version":"rewind/1","background":"#ffffff","objects":[
//	    {"id":"...","type":"rect","left":10,"top":4,"width":8,"height":3,"fill":"#ff0000"}
//	]}
//
// Reads go through gjson and edits through sjson, so Serialize returns the
// stored document as is and Restore swaps it in after validation.
//
// Every mutation notifies the change handler with an action hint. Dragging
// style edits (move, resize, rotate, text) are marked Continuous and should
// be captured through the debounced path; discrete edits (add, remove,
// recolor, lock, reorder) should be captured immediately. Track wires a
// canvas to an engine that way:
//
//	c := canvas.New()
//	eng, _ := engine.New(c)
//	canvas.Track(c, eng)
//
//	id, _ := c.Add(canvas.Object{Type: "rect", Width: 10, Height: 4})
//	c.Move(id, 5, 0)
package canvas
