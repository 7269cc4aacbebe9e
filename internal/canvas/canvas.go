package canvas

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/rewind/internal/engine"
	"github.com/dshills/rewind/internal/engine/history"
)

// FormatVersion tags serialized scenes.
const FormatVersion = "rewind/1"

// DefaultBackground is the background color of a new scene.
const DefaultBackground = "#ffffff"

// Change describes a mutation for the change handler.
type Change struct {
	Action      history.ActionType
	Description string
	ObjectIDs   []string

	// Continuous marks edits that arrive in bursts, such as a drag.
	Continuous bool
}

// Canvas is a JSON-backed scene. All methods are safe for concurrent use.
type Canvas struct {
	mu       sync.RWMutex
	scene    string
	revision uint64
	onChange func(Change)
}

var _ engine.DocumentHost = (*Canvas)(nil)

// Option configures a Canvas.
type Option func(*Canvas)

// WithChangeHandler sets the function notified after every mutation.
func WithChangeHandler(fn func(Change)) Option {
	return func(c *Canvas) {
		c.onChange = fn
	}
}

// WithBackground sets the scene background color.
func WithBackground(color string) Option {
	return func(c *Canvas) {
		if s, err := sjson.Set(c.scene, "background", color); err == nil {
			c.scene = s
		}
	}
}

// New creates an empty canvas.
func New(opts ...Option) *Canvas {
	c := &Canvas{
		scene: emptyScene(DefaultBackground),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func emptyScene(background string) string {
	s, _ := sjson.Set(`{}`, "version", FormatVersion)
	s, _ = sjson.Set(s, "background", background)
	s, _ = sjson.SetRaw(s, "objects", "[]")
	return s
}

// SetChangeHandler replaces the change handler.
func (c *Canvas) SetChangeHandler(fn func(Change)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Revision returns a counter incremented by every mutation and restore.
func (c *Canvas) Revision() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.revision
}

// Len returns the number of objects.
func (c *Canvas) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return int(gjson.Get(c.scene, "objects.#").Int())
}

// Background returns the scene background color.
func (c *Canvas) Background() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return gjson.Get(c.scene, "background").String()
}

// Objects returns the objects in stacking order, bottom first.
func (c *Canvas) Objects() []Object {
	c.mu.RLock()
	defer c.mu.RUnlock()

	items := gjson.Get(c.scene, "objects").Array()
	out := make([]Object, len(items))
	for i, item := range items {
		out[i] = decodeObject(item)
	}
	return out
}

// Object returns the object with id.
func (c *Canvas) Object(id string) (Object, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i := c.indexLocked(id)
	if i < 0 {
		return Object{}, false
	}
	return decodeObject(gjson.Get(c.scene, objectPath(i))), true
}

// IDs returns object identifiers in stacking order.
func (c *Canvas) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var ids []string
	for _, r := range gjson.Get(c.scene, "objects.#.id").Array() {
		ids = append(ids, r.String())
	}
	return ids
}

// Add appends o on top of the stack and returns its id. An id is generated
// when o.ID is empty.
func (c *Canvas) Add(o Object) (string, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Type == "" {
		o.Type = "rect"
	}
	raw, err := encodeObject(o)
	if err != nil {
		return "", err
	}

	err = c.mutate(Change{Action: history.ActionAdd, Description: "Add " + o.Type, ObjectIDs: []string{o.ID}},
		func(scene string) (string, error) {
			if indexIn(scene, o.ID) >= 0 {
				return "", fmt.Errorf("%w: %s", ErrDuplicateID, o.ID)
			}
			return sjson.SetRaw(scene, "objects.-1", raw)
		})
	if err != nil {
		return "", err
	}
	return o.ID, nil
}

// Remove deletes the object with id. Locked objects can be removed.
func (c *Canvas) Remove(id string) error {
	return c.mutate(Change{Action: history.ActionRemove, Description: "Delete object", ObjectIDs: []string{id}},
		func(scene string) (string, error) {
			i := indexIn(scene, id)
			if i < 0 {
				return "", fmt.Errorf("%w: %s", ErrNotFound, id)
			}
			return sjson.Delete(scene, objectPath(i))
		})
}

// Move translates the object by dx, dy.
func (c *Canvas) Move(id string, dx, dy float64) error {
	return c.edit(id, Change{Action: history.ActionMove, Continuous: true}, func(o gjson.Result, path string, scene string) (string, error) {
		scene, err := sjson.Set(scene, path+".left", o.Get("left").Float()+dx)
		if err != nil {
			return "", err
		}
		return sjson.Set(scene, path+".top", o.Get("top").Float()+dy)
	})
}

// Resize multiplies the object scale by fx, fy. Factors must be positive.
func (c *Canvas) Resize(id string, fx, fy float64) error {
	if fx <= 0 || fy <= 0 {
		return fmt.Errorf("invalid scale factors %v, %v", fx, fy)
	}
	return c.edit(id, Change{Action: history.ActionResize, Continuous: true}, func(o gjson.Result, path string, scene string) (string, error) {
		sx, sy := 1.0, 1.0
		if v := o.Get("scaleX"); v.Exists() {
			sx = v.Float()
		}
		if v := o.Get("scaleY"); v.Exists() {
			sy = v.Float()
		}
		scene, err := sjson.Set(scene, path+".scaleX", sx*fx)
		if err != nil {
			return "", err
		}
		return sjson.Set(scene, path+".scaleY", sy*fy)
	})
}

// Rotate adds deg degrees to the object angle, normalized to [0, 360).
func (c *Canvas) Rotate(id string, deg float64) error {
	return c.edit(id, Change{Action: history.ActionRotate, Continuous: true}, func(o gjson.Result, path string, scene string) (string, error) {
		angle := math.Mod(o.Get("angle").Float()+deg, 360)
		if angle < 0 {
			angle += 360
		}
		return sjson.Set(scene, path+".angle", angle)
	})
}

// SetFill changes the fill color.
func (c *Canvas) SetFill(id, color string) error {
	return c.edit(id, Change{Action: history.ActionStyleChange, Description: "Change fill"}, func(_ gjson.Result, path string, scene string) (string, error) {
		return sjson.Set(scene, path+".fill", color)
	})
}

// SetStroke changes the stroke color.
func (c *Canvas) SetStroke(id, color string) error {
	return c.edit(id, Change{Action: history.ActionStyleChange, Description: "Change stroke"}, func(_ gjson.Result, path string, scene string) (string, error) {
		return sjson.Set(scene, path+".stroke", color)
	})
}

// SetText replaces the content of a text object.
func (c *Canvas) SetText(id, text string) error {
	return c.edit(id, Change{Action: history.ActionTextEdit, Continuous: true}, func(o gjson.Result, path string, scene string) (string, error) {
		if !decodeObject(o).IsText() {
			return "", fmt.Errorf("object %s is not a text object", id)
		}
		return sjson.Set(scene, path+".text", text)
	})
}

// SetLocked locks or unlocks the object. Locked objects reject edits other
// than removal, reordering and unlocking.
func (c *Canvas) SetLocked(id string, locked bool) error {
	ch := Change{Action: history.ActionLock, Description: "Lock object", ObjectIDs: []string{id}}
	if !locked {
		ch = Change{Action: history.ActionUnlock, Description: "Unlock object", ObjectIDs: []string{id}}
	}
	return c.mutate(ch, func(scene string) (string, error) {
		i := indexIn(scene, id)
		if i < 0 {
			return "", fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return sjson.Set(scene, objectPath(i)+".locked", locked)
	})
}

// Reorder moves the object to layer index, 0 being the bottom.
func (c *Canvas) Reorder(id string, index int) error {
	return c.mutate(Change{Action: history.ActionLayerChange, Description: "Reorder object", ObjectIDs: []string{id}},
		func(scene string) (string, error) {
			items := gjson.Get(scene, "objects").Array()
			from := indexIn(scene, id)
			if from < 0 {
				return "", fmt.Errorf("%w: %s", ErrNotFound, id)
			}
			if index < 0 || index >= len(items) {
				return "", fmt.Errorf("%w: %d", ErrOutOfRange, index)
			}

			raws := make([]string, 0, len(items))
			for i, item := range items {
				if i != from {
					raws = append(raws, item.Raw)
				}
			}
			raws = append(raws[:index], append([]string{items[from].Raw}, raws[index:]...)...)
			return sjson.SetRaw(scene, "objects", "["+strings.Join(raws, ",")+"]")
		})
}

// BringToFront moves the object to the top of the stack.
func (c *Canvas) BringToFront(id string) error {
	return c.Reorder(id, c.Len()-1)
}

// SendToBack moves the object to the bottom of the stack.
func (c *Canvas) SendToBack(id string) error {
	return c.Reorder(id, 0)
}

// Serialize implements engine.DocumentHost.
func (c *Canvas) Serialize() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scene, nil
}

// Restore implements engine.DocumentHost. The snapshot is validated in full
// before it replaces the scene; a rejected snapshot leaves the canvas as it
// was. The change handler is notified with a continuous modify change.
func (c *Canvas) Restore(ctx context.Context, snapshot string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := Validate(snapshot); err != nil {
		return err
	}

	c.mu.Lock()
	c.scene = snapshot
	c.revision++
	fn := c.onChange
	c.mu.Unlock()

	if fn != nil {
		fn(Change{Action: history.ActionModify, Description: "Restore", Continuous: true})
	}
	return nil
}

// Validate checks that snapshot is a scene this package can load.
func Validate(snapshot string) error {
	if !gjson.Valid(snapshot) {
		return fmt.Errorf("%w: not valid JSON", engine.ErrInvalidSnapshot)
	}
	objects := gjson.Get(snapshot, "objects")
	if !objects.IsArray() {
		return fmt.Errorf("%w: missing objects array", engine.ErrInvalidSnapshot)
	}

	seen := make(map[string]bool)
	for i, item := range objects.Array() {
		if !item.IsObject() {
			return fmt.Errorf("%w: object %d is not a JSON object", engine.ErrInvalidSnapshot, i)
		}
		id := item.Get("id").String()
		if id == "" {
			return fmt.Errorf("%w: object %d has no id", engine.ErrInvalidSnapshot, i)
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate id %s", engine.ErrInvalidSnapshot, id)
		}
		seen[id] = true
	}
	return nil
}

// edit applies fn to an unlocked object and records ch with its id.
func (c *Canvas) edit(id string, ch Change, fn func(o gjson.Result, path, scene string) (string, error)) error {
	ch.ObjectIDs = []string{id}
	if ch.Description == "" {
		ch.Description = ch.Action.Verb() + " object"
	}
	return c.mutate(ch, func(scene string) (string, error) {
		i := indexIn(scene, id)
		if i < 0 {
			return "", fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		path := objectPath(i)
		o := gjson.Get(scene, path)
		if o.Get("locked").Bool() {
			return "", fmt.Errorf("%w: %s", ErrLocked, id)
		}
		return fn(o, path, scene)
	})
}

// mutate replaces the scene with fn's result and notifies the handler
// after the lock is released. On error the scene is left untouched.
func (c *Canvas) mutate(ch Change, fn func(scene string) (string, error)) error {
	c.mu.Lock()
	next, err := fn(c.scene)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.scene = next
	c.revision++
	handler := c.onChange
	c.mu.Unlock()

	if handler != nil {
		handler(ch)
	}
	return nil
}

func (c *Canvas) indexLocked(id string) int {
	return indexIn(c.scene, id)
}

func indexIn(scene, id string) int {
	for i, r := range gjson.Get(scene, "objects.#.id").Array() {
		if r.String() == id {
			return i
		}
	}
	return -1
}

func objectPath(i int) string {
	return "objects." + strconv.Itoa(i)
}
