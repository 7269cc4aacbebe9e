package tui

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/rewind/internal/canvas"
)

// PanelWidth is the width of the history panel in cells.
const PanelWidth = 32

const helpText = "arrows move  a add  d delete  u undo  U redo  tab next  q quit"

var (
	styleDefault  = tcell.StyleDefault
	styleTitle    = tcell.StyleDefault.Bold(true)
	styleCursor   = tcell.StyleDefault.Reverse(true)
	styleStatus   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleBorder   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	selectedShade = '#'
	lockedShade   = 'x'
)

// Draw renders the canvas, the history panel and the status lines.
func (a *App) Draw() {
	width, height := a.term.Size()
	a.term.Clear()

	canvasWidth := width
	if width >= PanelWidth*2 {
		canvasWidth = width - PanelWidth
		a.drawHistory(canvasWidth, 0, PanelWidth, height-2)
	}
	for _, o := range a.canvas.Objects() {
		a.drawObject(o, canvasWidth, height-2)
	}
	a.drawStats(height - 2)
	a.drawStatus(height - 1)

	a.term.Show()
}

func (a *App) drawObject(o canvas.Object, maxX, maxY int) {
	x := int(math.Round(o.Left))
	y := int(math.Round(o.Top))
	w := int(math.Round(o.Width * o.ScaleX))
	h := int(math.Round(o.Height * o.ScaleY))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if x+w > maxX {
		w = maxX - x
	}
	if y+h > maxY {
		h = maxY - y
	}
	if w <= 0 || h <= 0 {
		return
	}

	style := styleDefault.Background(tcell.GetColor(o.Fill))
	shade := ' '
	switch {
	case o.ID == a.selected:
		shade = selectedShade
	case o.Locked:
		shade = lockedShade
	}
	a.term.Fill(x, y, w, h, shade, style)
	if o.Text != "" {
		a.term.DrawText(x, y, o.Text, style, w)
	}
}

func (a *App) drawHistory(x, y, w, h int) {
	a.term.Fill(x, y, 1, h, '│', styleBorder)
	a.term.DrawText(x+2, y, "History", styleTitle, w-2)

	meta := a.engine.Metadata()
	cursor := a.engine.CurrentIndex()
	rows := h - 1
	if rows <= 0 {
		return
	}

	// Scroll so the cursor stays visible.
	first := 0
	if cursor >= rows {
		first = cursor - rows + 1
	}
	for i := first; i < len(meta) && i-first < rows; i++ {
		style := styleDefault
		marker := "  "
		if i == cursor {
			style = styleCursor
			marker = "> "
		}
		line := fmt.Sprintf("%s%2d %s", marker, i, meta[i].Description)
		a.term.DrawText(x+2, y+1+i-first, line, style, w-2)
	}
}

func (a *App) drawStats(y int) {
	s := a.engine.Stats()
	line := fmt.Sprintf("entries %d/%d  cursor %d  memory %dB  stored %dB  %s",
		s.Size, s.MaxSize, s.CurrentIndex, s.MemoryUsage, s.StoredBytes, s.State)
	a.term.DrawText(0, y, line, styleDefault, 0)
}

func (a *App) drawStatus(y int) {
	if a.status != "" {
		a.term.DrawText(0, y, a.status, styleStatus, 0)
		return
	}
	a.term.DrawText(0, y, helpText, styleBorder, 0)
}
