// Package render draws game snapshots to the terminal with tcell.
package render

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/ayusman/gesturesnake/internal/game"
)

// Palette, after the classic handset colours.
var (
	nokiaGreen = tcell.NewRGBColor(155, 188, 15)
	lightGreen = tcell.NewRGBColor(204, 255, 51)
	orange     = tcell.NewRGBColor(255, 165, 0)
	gridGrey   = tcell.NewRGBColor(40, 40, 40)

	styleBorder = tcell.StyleDefault.Foreground(gridGrey)
	styleBody   = tcell.StyleDefault.Background(nokiaGreen)
	styleHead   = tcell.StyleDefault.Background(lightGreen)
	styleFruit  = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleText   = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleBoost  = tcell.StyleDefault.Foreground(lightGreen).Bold(true)
	styleHint   = tcell.StyleDefault.Foreground(nokiaGreen)
)

// cellWidth is the number of terminal columns per grid cell; terminal
// character cells are roughly twice as tall as they are wide.
const cellWidth = 2

// Board origin on screen: row 0 holds the status line, then the border.
const (
	originX = 1
	originY = 2
)

// Terminal renders snapshots onto a tcell screen and turns ESC, q and
// Ctrl-C into a quit signal.
type Terminal struct {
	screen tcell.Screen
	mu     sync.Mutex
	quit   chan struct{}
	once   sync.Once
	events chan struct{}
}

// New initializes the real terminal.
func New() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	return NewWithScreen(screen), nil
}

// NewWithScreen renders onto an initialized screen and starts polling its
// events.
func NewWithScreen(screen tcell.Screen) *Terminal {
	screen.HideCursor()
	t := &Terminal{
		screen: screen,
		quit:   make(chan struct{}),
		events: make(chan struct{}),
	}
	go t.pollEvents()
	return t
}

func (t *Terminal) pollEvents() {
	defer close(t.events)
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			// Screen finalized.
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if IsQuitKey(ev) {
				t.once.Do(func() { close(t.quit) })
			}
		case *tcell.EventResize:
			t.mu.Lock()
			t.screen.Sync()
			t.mu.Unlock()
		}
	}
}

// IsQuitKey reports whether ev ends the game.
func IsQuitKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q' || ev.Rune() == 'Q'
	}
	return false
}

// Quit is closed once the user presses a quit key.
func (t *Terminal) Quit() <-chan struct{} {
	return t.quit
}

// Close restores the terminal.
func (t *Terminal) Close() error {
	t.mu.Lock()
	t.screen.Fini()
	t.mu.Unlock()
	<-t.events
	return nil
}

// Draw renders one snapshot.
func (t *Terminal) Draw(s game.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Clear()
	drawSnapshot(t.screen, s)
	t.screen.Show()
}

// Size returns the terminal area a board of the snapshot's size needs.
func Size(s game.Snapshot) (width, height int) {
	return s.GridWidth*cellWidth + 2, s.GridHeight + originY + 1
}

func drawSnapshot(screen tcell.Screen, s game.Snapshot) {
	drawBorder(screen, s)

	if !s.GameOver {
		for i, c := range s.Snake {
			style := styleBody
			if i == 0 {
				style = styleHead
			}
			putCell(screen, c, ' ', ' ', style)
		}
		putCell(screen, s.Fruit, '(', ')', styleFruit)
		drawParticles(screen, s)
	}

	drawText(screen, 0, 0, fmt.Sprintf("Score: %d", s.Score), styleText)
	if s.Boost {
		w, _ := Size(s)
		text := "SPEED BOOST!"
		drawText(screen, w-len(text), 0, text, styleBoost)
	}

	if s.GameOver {
		drawGameOver(screen, s)
	}
}

func drawBorder(screen tcell.Screen, s game.Snapshot) {
	w, h := Size(s)
	top, bottom := originY-1, h-1
	for x := 1; x < w-1; x++ {
		screen.SetContent(x, top, tcell.RuneHLine, nil, styleBorder)
		screen.SetContent(x, bottom, tcell.RuneHLine, nil, styleBorder)
	}
	for y := top + 1; y < bottom; y++ {
		screen.SetContent(0, y, tcell.RuneVLine, nil, styleBorder)
		screen.SetContent(w-1, y, tcell.RuneVLine, nil, styleBorder)
	}
	screen.SetContent(0, top, tcell.RuneULCorner, nil, styleBorder)
	screen.SetContent(w-1, top, tcell.RuneURCorner, nil, styleBorder)
	screen.SetContent(0, bottom, tcell.RuneLLCorner, nil, styleBorder)
	screen.SetContent(w-1, bottom, tcell.RuneLRCorner, nil, styleBorder)
}

func putCell(screen tcell.Screen, c game.Cell, left, right rune, style tcell.Style) {
	x, y := originX+c.X*cellWidth, originY+c.Y
	screen.SetContent(x, y, left, nil, style)
	screen.SetContent(x+1, y, right, nil, style)
}

// drawParticles maps each particle's pixel position to a terminal column
// and fades it from bright to dim over its life.
func drawParticles(screen tcell.Screen, s game.Snapshot) {
	if s.CellSize <= 0 {
		return
	}
	cs := float64(s.CellSize)
	for _, p := range s.Particles {
		if p.X < 0 || p.Y < 0 {
			continue
		}
		col := int(p.X / cs * cellWidth)
		row := int(p.Y / cs)
		if col >= s.GridWidth*cellWidth || row >= s.GridHeight {
			continue
		}

		x, y := originX+col, originY+row
		// Snake and fruit stay on top.
		if r, _, st, _ := screen.GetContent(x, y); (r != ' ' && r != 0) || st != tcell.StyleDefault {
			continue
		}

		glyph, style := '*', tcell.StyleDefault.Foreground(orange)
		if p.Fade() < 0.5 {
			glyph, style = '.', style.Dim(true)
		}
		screen.SetContent(x, y, glyph, nil, style)
	}
}

func drawGameOver(screen tcell.Screen, s game.Snapshot) {
	w, h := Size(s)
	mid := originY + (h-originY)/2 - 1

	lines := []struct {
		text  string
		style tcell.Style
	}{
		{"GAME OVER", styleText.Bold(true)},
		{fmt.Sprintf("Final Score: %d", s.Score), styleText},
		{"", styleText},
		{"Show 'UP' gesture to restart", styleHint},
	}
	for i, l := range lines {
		drawText(screen, (w-len(l.text))/2, mid-1+i, l.text, l.style)
	}
}

func drawText(screen tcell.Screen, x, y int, text string, style tcell.Style) {
	for i, r := range []rune(text) {
		screen.SetContent(x+i, y, r, nil, style)
	}
}
