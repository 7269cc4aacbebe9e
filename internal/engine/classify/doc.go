// Package classify infers what kind of change separates two document
// snapshots and whether the change is worth recording.
//
// Snapshots are opaque to the rest of the engine. The classifier is the only
// component that looks inside them, and it does so defensively: anything it
// cannot parse is reported as a significant ActionModify rather than dropped.
//
// # Snapshot shape
//
// The classifier understands fabric-style scenes: a JSON object with an
// "objects" array, or a bare JSON array of objects. Each object may carry
// id, type, left, top, width, height, scaleX, scaleY, angle, fill, stroke,
// text and locked fields. Missing fields compare as zero values.
//
// # Algorithm
//
// Objects are compared index by index, not by identity. The first object
// that differs decides the action, checking position, size, rotation, text,
// color and lock state in that order. Count changes take priority over any
// field difference.
//
// The significance filter is a size heuristic: on the filtered path, a change
// whose serialized length differs by less than the minor-change threshold is
// not recorded. It has false positives and negatives and is kept as-is.
package classify
