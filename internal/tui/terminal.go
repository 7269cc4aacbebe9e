package tui

import (
	"sync"

	"github.com/gdamore/tcell/v2"
)

// Terminal serializes access to a tcell screen.
type Terminal struct {
	screen tcell.Screen
	mu     sync.Mutex
}

// NewTerminal creates a terminal on the controlling tty.
func NewTerminal() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return &Terminal{screen: screen}, nil
}

// NewTerminalWithScreen wraps an existing screen, such as a simulation
// screen in tests.
func NewTerminalWithScreen(screen tcell.Screen) *Terminal {
	return &Terminal{screen: screen}
}

// Screen returns the underlying screen.
func (t *Terminal) Screen() tcell.Screen {
	return t.screen
}

// Init initializes the screen.
func (t *Terminal) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.screen.Init(); err != nil {
		return err
	}
	t.screen.HideCursor()
	return nil
}

// Shutdown restores the terminal.
func (t *Terminal) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Fini()
}

// Size returns the screen size in cells.
func (t *Terminal) Size() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.screen.Size()
}

// SetCell draws r at x, y. Out-of-range positions are ignored.
func (t *Terminal) SetCell(x, y int, r rune, style tcell.Style) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.setCellLocked(x, y, r, style)
}

func (t *Terminal) setCellLocked(x, y int, r rune, style tcell.Style) {
	width, height := t.screen.Size()
	if x < 0 || y < 0 || x >= width || y >= height {
		return
	}
	t.screen.SetContent(x, y, r, nil, style)
}

// DrawText writes s starting at x, y, clipped to maxWidth cells when
// maxWidth is positive. It returns the number of cells written.
func (t *Terminal) DrawText(x, y int, s string, style tcell.Style, maxWidth int) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, r := range s {
		if maxWidth > 0 && n >= maxWidth {
			break
		}
		t.setCellLocked(x+n, y, r, style)
		n++
	}
	return n
}

// Fill sets every cell of the rectangle to r.
func (t *Terminal) Fill(x, y, w, h int, r rune, style tcell.Style) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for row := y; row < y+h; row++ {
		for col := x; col < x+w; col++ {
			t.setCellLocked(col, row, r, style)
		}
	}
}

// Clear blanks the screen.
func (t *Terminal) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Clear()
}

// Show flushes pending changes to the terminal.
func (t *Terminal) Show() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Show()
}

// Sync redraws the whole screen, used after a resize.
func (t *Terminal) Sync() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Sync()
}

// PollEvent blocks until the next event. It returns nil once the screen has
// been shut down.
func (t *Terminal) PollEvent() tcell.Event {
	return t.screen.PollEvent()
}

// PostEvent queues ev for PollEvent.
func (t *Terminal) PostEvent(ev tcell.Event) {
	_ = t.screen.PostEvent(ev) // best-effort; event queue may be full
}

// Beep rings the terminal bell.
func (t *Terminal) Beep() {
	t.mu.Lock()
	defer t.mu.Unlock()

	_ = t.screen.Beep() // best-effort; terminal may not support beep
}
