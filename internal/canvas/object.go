package canvas

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Object is one shape on the canvas.
type Object struct {
	ID     string  `json:"id" yaml:"id"`
	Type   string  `json:"type" yaml:"type"`
	Left   float64 `json:"left" yaml:"left"`
	Top    float64 `json:"top" yaml:"top"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
	ScaleX float64 `json:"scaleX" yaml:"scaleX"`
	ScaleY float64 `json:"scaleY" yaml:"scaleY"`
	Angle  float64 `json:"angle" yaml:"angle"`
	Fill   string  `json:"fill,omitempty" yaml:"fill,omitempty"`
	Stroke string  `json:"stroke,omitempty" yaml:"stroke,omitempty"`
	Text   string  `json:"text,omitempty" yaml:"text,omitempty"`
	Locked bool    `json:"locked" yaml:"locked"`
}

// IsText reports whether the object carries editable text.
func (o Object) IsText() bool {
	switch o.Type {
	case "text", "i-text", "textbox":
		return true
	}
	return false
}

// encodeObject renders o as a JSON object.
func encodeObject(o Object) (string, error) {
	if o.ScaleX == 0 {
		o.ScaleX = 1
	}
	if o.ScaleY == 0 {
		o.ScaleY = 1
	}

	fields := []struct {
		path  string
		value any
		skip  bool
	}{
		{"id", o.ID, false},
		{"type", o.Type, false},
		{"left", o.Left, false},
		{"top", o.Top, false},
		{"width", o.Width, false},
		{"height", o.Height, false},
		{"scaleX", o.ScaleX, false},
		{"scaleY", o.ScaleY, false},
		{"angle", o.Angle, false},
		{"fill", o.Fill, o.Fill == ""},
		{"stroke", o.Stroke, o.Stroke == ""},
		{"text", o.Text, o.Text == "" && !o.IsText()},
		{"locked", o.Locked, false},
	}

	raw := "{}"
	for _, f := range fields {
		if f.skip {
			continue
		}
		var err error
		raw, err = sjson.Set(raw, f.path, f.value)
		if err != nil {
			return "", fmt.Errorf("encode %s: %w", f.path, err)
		}
	}
	return raw, nil
}

// decodeObject reads an object from a gjson result.
func decodeObject(r gjson.Result) Object {
	o := Object{
		ID:     r.Get("id").String(),
		Type:   r.Get("type").String(),
		Left:   r.Get("left").Float(),
		Top:    r.Get("top").Float(),
		Width:  r.Get("width").Float(),
		Height: r.Get("height").Float(),
		ScaleX: 1,
		ScaleY: 1,
		Angle:  r.Get("angle").Float(),
		Fill:   r.Get("fill").String(),
		Stroke: r.Get("stroke").String(),
		Text:   r.Get("text").String(),
		Locked: r.Get("locked").Bool(),
	}
	if v := r.Get("scaleX"); v.Exists() {
		o.ScaleX = v.Float()
	}
	if v := r.Get("scaleY"); v.Exists() {
		o.ScaleY = v.Float()
	}
	return o
}
