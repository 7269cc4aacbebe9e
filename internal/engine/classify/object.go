package classify

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/tidwall/gjson"
)

// Errors returned while parsing snapshots.
var (
	// ErrInvalidJSON indicates the snapshot is not valid JSON.
	ErrInvalidJSON = errors.New("snapshot is not valid JSON")

	// ErrNoObjects indicates the snapshot has no recognizable object list.
	ErrNoObjects = errors.New("snapshot has no object list")
)

// epsilon absorbs float formatting noise when comparing numeric fields.
const epsilon = 1e-9

// Object is the per-object field record extracted from a snapshot.
type Object struct {
	ID     string
	Type   string
	Left   float64
	Top    float64
	Width  float64
	Height float64
	ScaleX float64
	ScaleY float64
	Angle  float64
	Fill   string
	Stroke string
	Text   string
	// HasText is true when the object carries a text field.
	HasText bool
	Locked  bool
}

// ParseObjects extracts object records from a snapshot.
func ParseObjects(snapshot string) ([]Object, error) {
	if !gjson.Valid(snapshot) {
		return nil, ErrInvalidJSON
	}

	root := gjson.Parse(snapshot)
	list := root
	if !root.IsArray() {
		list = root.Get("objects")
		if !list.IsArray() {
			return nil, ErrNoObjects
		}
	}

	items := list.Array()
	objects := make([]Object, 0, len(items))
	for i, item := range items {
		if !item.IsObject() {
			return nil, fmt.Errorf("object %d: %w", i, ErrNoObjects)
		}
		objects = append(objects, parseObject(item, i))
	}
	return objects, nil
}

func parseObject(item gjson.Result, index int) Object {
	obj := Object{
		Type:   item.Get("type").String(),
		Left:   item.Get("left").Float(),
		Top:    item.Get("top").Float(),
		Width:  item.Get("width").Float(),
		Height: item.Get("height").Float(),
		ScaleX: floatOr(item.Get("scaleX"), 1),
		ScaleY: floatOr(item.Get("scaleY"), 1),
		Angle:  item.Get("angle").Float(),
		Fill:   item.Get("fill").Raw,
		Stroke: item.Get("stroke").Raw,
		Locked: item.Get("locked").Bool(),
	}

	if text := item.Get("text"); text.Exists() {
		obj.HasText = true
		obj.Text = text.String()
	}

	switch {
	case item.Get("id").Exists():
		obj.ID = item.Get("id").String()
	case item.Get("name").Exists():
		obj.ID = item.Get("name").String()
	default:
		obj.ID = fmt.Sprintf("%s#%d", obj.Type, index)
	}
	return obj
}

func floatOr(r gjson.Result, def float64) float64 {
	if !r.Exists() {
		return def
	}
	return r.Float()
}

func sameFloat(a, b float64) bool {
	return math.Abs(a-b) <= epsilon
}

// isTextLike reports whether text content should be compared for the pair.
func isTextLike(a, b Object) bool {
	if a.HasText || b.HasText {
		return true
	}
	t := strings.ToLower(a.Type)
	return t == "text" || t == "i-text" || t == "textbox"
}

// diff returns the highest-priority kind of difference between two objects
// at the same index, or ok=false if none of the tracked fields differ.
func diff(prev, cur Object) (kind fieldKind, ok bool) {
	switch {
	case !sameFloat(prev.Left, cur.Left) || !sameFloat(prev.Top, cur.Top):
		return fieldPosition, true
	case !sameFloat(prev.Width, cur.Width) || !sameFloat(prev.Height, cur.Height) ||
		!sameFloat(prev.ScaleX, cur.ScaleX) || !sameFloat(prev.ScaleY, cur.ScaleY):
		return fieldSize, true
	case !sameFloat(prev.Angle, cur.Angle):
		return fieldRotation, true
	case isTextLike(prev, cur) && prev.Text != cur.Text:
		return fieldText, true
	case prev.Fill != cur.Fill || prev.Stroke != cur.Stroke:
		return fieldColor, true
	case prev.Locked != cur.Locked:
		return fieldLock, true
	case prev.ID != cur.ID:
		return fieldIdentity, true
	}
	return 0, false
}

type fieldKind int

const (
	fieldPosition fieldKind = iota + 1
	fieldSize
	fieldRotation
	fieldText
	fieldColor
	fieldLock
	fieldIdentity
)
