package terminal

import (
	"context"
	"fmt"
	"image/color"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/gridshooter/gridshooter/internal/world"
)

// cellWidth is how many terminal columns one grid cell spans; terminal
// cells are roughly twice as tall as they are wide.
const cellWidth = 2

// Controller is the input side of a match.
type Controller interface {
	MoveCraft(d world.Direction) bool
	FireCraft() []*world.Projectile
}

var (
	fieldStyle  = tcell.StyleDefault.Background(tcell.NewRGBColor(238, 238, 238))
	bannerStyle = tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite)
)

// Frontend draws frames on a tcell screen and forwards input. It
// implements the match's Presenter.
type Frontend struct {
	screen tcell.Screen
	ctrl   Controller
	geo    world.Geometry

	mu    sync.Mutex // guards frame, over, won
	frame *world.Frame
	over  bool
	won   bool

	buttons tcell.ButtonMask // last mouse state, event loop only
}

// New wraps an uninitialised screen.
func New(screen tcell.Screen, ctrl Controller, geo world.Geometry) *Frontend {
	return &Frontend{screen: screen, ctrl: ctrl, geo: geo}
}

// NewScreen opens the controlling terminal.
func NewScreen() (tcell.Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("open terminal: %w", err)
	}
	return s, nil
}

func (f *Frontend) Present(fr *world.Frame) {
	f.mu.Lock()
	f.frame = fr
	f.mu.Unlock()
	f.wake()
}

func (f *Frontend) GameOver(won bool) {
	f.mu.Lock()
	f.over = true
	f.won = won
	f.mu.Unlock()
	f.wake()
}

// wake nudges the event loop into a redraw. A full queue already has a
// redraw pending.
func (f *Frontend) wake() {
	_ = f.screen.PostEvent(tcell.NewEventInterrupt(nil))
}

// Run owns the screen until the player quits or ctx is cancelled.
func (f *Frontend) Run(ctx context.Context) error {
	if err := f.screen.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer f.screen.Fini()
	f.screen.EnableMouse()
	f.screen.HideCursor()

	stop := context.AfterFunc(ctx, f.wake)
	defer stop()

	f.Draw()
	for ctx.Err() == nil {
		ev := f.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if f.Handle(ev) {
			return nil
		}
		f.Draw()
	}
	return nil
}

// Handle applies one input event. Reports whether the player asked to quit.
func (f *Frontend) Handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		f.screen.Sync()
	case *tcell.EventKey:
		return f.handleKey(ev)
	case *tcell.EventMouse:
		pressed := ev.Buttons()&tcell.Button1 != 0
		wasPressed := f.buttons&tcell.Button1 != 0
		f.buttons = ev.Buttons()
		if pressed && !wasPressed && !f.isOver() {
			f.ctrl.FireCraft()
		}
	}
	return false
}

func (f *Frontend) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyUp:
		f.move(world.North)
	case tcell.KeyLeft:
		f.move(world.West)
	case tcell.KeyDown:
		f.move(world.South)
	case tcell.KeyRight:
		f.move(world.East)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q', 'Q':
			return true
		case 'w', 'W':
			f.move(world.North)
		case 'a', 'A':
			f.move(world.West)
		case 's', 'S':
			f.move(world.South)
		case 'd', 'D':
			f.move(world.East)
		case ' ':
			if !f.isOver() {
				f.ctrl.FireCraft()
			}
		}
	}
	return false
}

func (f *Frontend) move(d world.Direction) {
	if !f.isOver() {
		f.ctrl.MoveCraft(d)
	}
}

func (f *Frontend) isOver() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.over
}

// Draw paints the latest frame.
func (f *Frontend) Draw() {
	f.mu.Lock()
	fr, over, won := f.frame, f.over, f.won
	f.mu.Unlock()

	s := f.screen
	s.Clear()
	cols, rows := f.geo.Columns(), f.geo.Rows()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols*cellWidth; x++ {
			s.SetContent(x, y, ' ', nil, fieldStyle)
		}
	}

	if fr != nil {
		for _, sp := range fr.Projectiles {
			f.paint(sp, '•', fieldStyle.Foreground(rgb(sp.Color)))
		}
		for _, group := range [][]world.Sprite{fr.Enemies, fr.Friends} {
			for _, sp := range group {
				f.paint(sp, ' ', SpriteStyle(sp.Color))
			}
		}
		if fr.Craft != nil {
			f.paint(*fr.Craft, ' ', SpriteStyle(fr.Craft.Color))
		}
	}
	if over {
		msg := "Game Over"
		if won {
			msg = "You Won"
		}
		f.banner(msg, cols*cellWidth, rows)
	}
	s.Show()
}

// Cell maps a field position to the terminal column and row of its grid
// cell.
func (f *Frontend) Cell(x, y int) (col, row int, ok bool) {
	if x < 0 || y < 0 || x >= f.geo.Width || y >= f.geo.Height {
		return 0, 0, false
	}
	return (x / f.geo.Step) * cellWidth, y / f.geo.Step, true
}

func (f *Frontend) paint(sp world.Sprite, r rune, style tcell.Style) {
	col, row, ok := f.Cell(sp.X, sp.Y)
	if !ok {
		return
	}
	for i := 0; i < cellWidth; i++ {
		f.screen.SetContent(col+i, row, r, nil, style)
	}
}

func (f *Frontend) banner(msg string, width, height int) {
	line := "  " + msg + "  "
	x := (width - len(line)) / 2
	y := height / 2
	for i, r := range line {
		f.screen.SetContent(x+i, y, r, nil, bannerStyle)
	}
}

// SpriteStyle is the style of a solid character cell.
func SpriteStyle(c color.RGBA) tcell.Style {
	return tcell.StyleDefault.Background(rgb(c))
}

func rgb(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
