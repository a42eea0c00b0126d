package window

import (
	"fmt"
	"image/color"
	"sync"

	"github.com/gridshooter/gridshooter/internal/world"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"
)

// Controller is the input side of a match.
type Controller interface {
	MoveCraft(d world.Direction) bool
	FireCraft() []*world.Projectile
}

var (
	background = color.RGBA{R: 238, G: 238, B: 238, A: 255}
	bannerBg   = color.RGBA{R: 20, G: 20, B: 20, A: 220}
	bannerFg   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// keyBindings maps keys to craft moves. Arrows mirror WASD.
var keyBindings = []struct {
	key ebiten.Key
	dir world.Direction
}{
	{ebiten.KeyW, world.North},
	{ebiten.KeyA, world.West},
	{ebiten.KeyS, world.South},
	{ebiten.KeyD, world.East},
	{ebiten.KeyArrowUp, world.North},
	{ebiten.KeyArrowLeft, world.West},
	{ebiten.KeyArrowDown, world.South},
	{ebiten.KeyArrowRight, world.East},
}

// Frontend draws frames in an ebiten window and forwards input. It
// implements ebiten.Game and the match's Presenter.
type Frontend struct {
	ctrl  Controller
	geo   world.Geometry
	title string
	scale int
	face  *text.GoXFace

	mu    sync.Mutex // guards frame, over, won
	frame *world.Frame
	over  bool
	won   bool
}

func New(ctrl Controller, geo world.Geometry, title string, scale int) *Frontend {
	if scale < 1 {
		scale = 1
	}
	return &Frontend{
		ctrl:  ctrl,
		geo:   geo,
		title: title,
		scale: scale,
		face:  text.NewGoXFace(basicfont.Face7x13),
	}
}

// Run opens the window and blocks until it is closed.
func (f *Frontend) Run() error {
	ebiten.SetWindowTitle(f.title)
	ebiten.SetWindowSize(f.geo.Width*f.scale, f.geo.Height*f.scale)
	if err := ebiten.RunGame(f); err != nil {
		return fmt.Errorf("run window: %w", err)
	}
	return nil
}

func (f *Frontend) Present(fr *world.Frame) {
	f.mu.Lock()
	f.frame = fr
	f.mu.Unlock()
}

func (f *Frontend) GameOver(won bool) {
	f.mu.Lock()
	f.over = true
	f.won = won
	f.mu.Unlock()
}

func (f *Frontend) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	f.mu.Lock()
	over := f.over
	f.mu.Unlock()
	if over {
		return nil
	}

	for _, b := range keyBindings {
		if inpututil.IsKeyJustPressed(b.key) {
			f.ctrl.MoveCraft(b.dir)
		}
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) || inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		f.ctrl.FireCraft()
	}
	return nil
}

func (f *Frontend) Draw(screen *ebiten.Image) {
	screen.Fill(background)

	f.mu.Lock()
	fr, over, won := f.frame, f.over, f.won
	f.mu.Unlock()

	if fr != nil {
		for _, sp := range fr.Sprites() {
			vector.FillRect(screen, float32(sp.X), float32(sp.Y), float32(sp.Size), float32(sp.Size), sp.Color, false)
		}
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("enemies %d  friends %d", len(fr.Enemies), len(fr.Friends)), 4, 2)
	}
	if over {
		f.drawBanner(screen, won)
	}
}

func (f *Frontend) drawBanner(screen *ebiten.Image, won bool) {
	msg := "Game Over"
	if won {
		msg = "You Won"
	}
	const w, h = 200, 150
	x := float32(f.geo.Width-w) / 2
	y := float32(f.geo.Height-h) / 2
	vector.FillRect(screen, x, y, w, h, bannerBg, false)

	tw, th := text.Measure(msg, f.face, 0)
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x)+(w-tw)/2, float64(y)+(h-th)/2)
	op.ColorScale.ScaleWithColor(bannerFg)
	text.Draw(screen, msg, f.face, op)
}

func (f *Frontend) Layout(_, _ int) (int, int) {
	return f.geo.Width, f.geo.Height
}
