package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/rewind/internal/canvas"
	"github.com/dshills/rewind/internal/config"
	"github.com/dshills/rewind/internal/engine"
)

// Palette is cycled through by the recolor key.
var Palette = []string{"#e74c3c", "#3498db", "#2ecc71", "#f1c40f", "#9b59b6", "#ecf0f1"}

// Shapes is cycled through when adding objects.
var Shapes = []string{"rect", "ellipse", "textbox"}

const (
	resizeStep = 1.25
	rotateStep = 15.0
)

// App is an interactive canvas editor.
type App struct {
	term   *Terminal
	canvas *canvas.Canvas
	engine *engine.Engine
	cfg    config.TUI
	logger *slog.Logger

	selected string
	status   string
	added    int
}

// quit is posted when the Run context ends.
type quit struct{}

// New creates an App. The canvas should already be tracked by the engine.
func New(term *Terminal, c *canvas.Canvas, e *engine.Engine, cfg config.TUI, logger *slog.Logger) *App {
	if cfg.Step <= 0 {
		cfg.Step = config.Default().TUI.Step
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	a := &App{
		term:   term,
		canvas: c,
		engine: e,
		cfg:    cfg,
		logger: logger.With("component", "tui"),
	}
	if ids := c.IDs(); len(ids) > 0 {
		a.selected = ids[len(ids)-1]
	}
	return a
}

// Seed adds n shapes to c laid out on a diagonal.
func Seed(c *canvas.Canvas, n int) error {
	for i := 0; i < n; i++ {
		_, err := c.Add(canvas.Object{
			Type:   Shapes[i%len(Shapes)],
			Left:   float64(2 + i*8),
			Top:    float64(1 + i*3),
			Width:  6,
			Height: 3,
			Fill:   Palette[i%len(Palette)],
			Text:   textFor(Shapes[i%len(Shapes)], i),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func textFor(shape string, i int) string {
	if shape != "textbox" {
		return ""
	}
	return fmt.Sprintf("T%d", i)
}

// Selected returns the id of the selected object.
func (a *App) Selected() string {
	return a.selected
}

// Status returns the status line message.
func (a *App) Status() string {
	return a.status
}

// Run draws the editor and processes events until the user quits or ctx
// ends.
func (a *App) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			a.term.PostEvent(tcell.NewEventInterrupt(quit{}))
		case <-done:
		}
	}()

	a.Draw()
	for {
		ev := a.term.PollEvent()
		if ev == nil {
			return nil
		}

		switch ev := ev.(type) {
		case *tcell.EventKey:
			if a.HandleKey(ctx, ev) {
				return nil
			}
		case *tcell.EventResize:
			a.term.Sync()
		case *tcell.EventInterrupt:
			if _, ok := ev.Data().(quit); ok {
				return ctx.Err()
			}
		}
		a.Draw()
	}
}

// HandleKey applies one key press. It returns true when the user quits.
func (a *App) HandleKey(ctx context.Context, ev *tcell.EventKey) bool {
	step := float64(a.cfg.Step)

	var err error
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyUp:
		err = a.move(0, -step)
	case tcell.KeyDown:
		err = a.move(0, step)
	case tcell.KeyLeft:
		err = a.move(-step, 0)
	case tcell.KeyRight:
		err = a.move(step, 0)
	case tcell.KeyTab:
		a.selectNext()
	case tcell.KeyCtrlR:
		err = a.engine.Redo(ctx)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return true
		case 'a':
			err = a.add()
		case 'd':
			err = a.remove()
		case '+', '=':
			err = a.withSelected(func(id string) error { return a.canvas.Resize(id, resizeStep, resizeStep) })
		case '-':
			err = a.withSelected(func(id string) error { return a.canvas.Resize(id, 1/resizeStep, 1/resizeStep) })
		case 'r':
			err = a.withSelected(func(id string) error { return a.canvas.Rotate(id, rotateStep) })
		case 'c':
			err = a.withSelected(a.recolor)
		case 'l':
			err = a.withSelected(a.toggleLock)
		case 'f':
			err = a.withSelected(a.canvas.BringToFront)
		case 'u':
			err = a.engine.Undo(ctx)
		case 'U':
			err = a.engine.Redo(ctx)
		}
	}

	if err != nil {
		a.status = err.Error()
		a.logger.Debug("key failed", "key", ev.Name(), "error", err)
		a.term.Beep()
	} else {
		a.status = ""
	}
	a.keepSelection()
	return false
}

func (a *App) withSelected(fn func(id string) error) error {
	if a.selected == "" {
		return fmt.Errorf("nothing selected")
	}
	return fn(a.selected)
}

func (a *App) move(dx, dy float64) error {
	return a.withSelected(func(id string) error { return a.canvas.Move(id, dx, dy) })
}

func (a *App) add() error {
	a.added++
	shape := Shapes[a.added%len(Shapes)]
	id, err := a.canvas.Add(canvas.Object{
		Type:   shape,
		Left:   float64(2 + a.added),
		Top:    float64(1 + a.added),
		Width:  6,
		Height: 3,
		Fill:   Palette[a.added%len(Palette)],
		Text:   textFor(shape, a.added),
	})
	if err != nil {
		return err
	}
	a.selected = id
	return nil
}

func (a *App) remove() error {
	return a.withSelected(func(id string) error {
		if err := a.canvas.Remove(id); err != nil {
			return err
		}
		a.selected = ""
		return nil
	})
}

func (a *App) recolor(id string) error {
	o, _ := a.canvas.Object(id)
	next := Palette[0]
	for i, c := range Palette {
		if c == o.Fill {
			next = Palette[(i+1)%len(Palette)]
			break
		}
	}
	return a.canvas.SetFill(id, next)
}

func (a *App) toggleLock(id string) error {
	o, _ := a.canvas.Object(id)
	return a.canvas.SetLocked(id, !o.Locked)
}

func (a *App) selectNext() {
	ids := a.canvas.IDs()
	if len(ids) == 0 {
		a.selected = ""
		return
	}
	for i, id := range ids {
		if id == a.selected {
			a.selected = ids[(i+1)%len(ids)]
			return
		}
	}
	a.selected = ids[0]
}

// keepSelection moves the selection to the top object when the selected
// one no longer exists, for example after an undo.
func (a *App) keepSelection() {
	if a.selected != "" {
		if _, ok := a.canvas.Object(a.selected); ok {
			return
		}
	}
	a.selected = ""
	if ids := a.canvas.IDs(); len(ids) > 0 {
		a.selected = ids[len(ids)-1]
	}
}
