// Package window shows the simulated OLED in a desktop window and turns the
// keyboard into the two bench buttons.
//
// Keys: N, Space or Right = NEXT; S or Enter = SELECT; T toggles a seized
// rotor; Escape closes the window.
package window

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// DefaultScale is the pixel magnification of the 128x32 panel.
const DefaultScale = 4

// Source provides the current frame. *display.Panel implements it.
type Source interface {
	Image() *image.Gray
}

// Input receives button levels. *sim.Buttons implements it.
type Input interface {
	Set(next, sel bool)
}

// Options configures the window.
type Options struct {
	Title       string
	Scale       int
	ToggleStall func() // called when T is pressed; may be nil
}

// OLED blue-white on black.
var (
	litRGB  = [3]byte{0xB4, 0xE6, 0xFF}
	darkRGB = [3]byte{0x00, 0x00, 0x00}
)

// Run opens the window and blocks until it is closed.
func Run(src Source, in Input, opts Options) error {
	if opts.Scale < 1 {
		opts.Scale = DefaultScale
	}
	if opts.Title == "" {
		opts.Title = "Pandafix Fan Tester"
	}

	b := src.Image().Bounds()
	g := &game{src: src, in: in, opts: opts, w: b.Dx(), h: b.Dy()}
	ebiten.SetWindowTitle(opts.Title)
	ebiten.SetWindowSize(g.w*opts.Scale, g.h*opts.Scale)
	ebiten.SetTPS(60)
	return ebiten.RunGame(g)
}

type game struct {
	src  Source
	in   Input
	opts Options
	w, h int

	pix   []byte
	frame *ebiten.Image
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	next := ebiten.IsKeyPressed(ebiten.KeyN) ||
		ebiten.IsKeyPressed(ebiten.KeySpace) ||
		ebiten.IsKeyPressed(ebiten.KeyArrowRight)
	sel := ebiten.IsKeyPressed(ebiten.KeyS) ||
		ebiten.IsKeyPressed(ebiten.KeyEnter)
	g.in.Set(next, sel)

	if g.opts.ToggleStall != nil && inpututil.IsKeyJustPressed(ebiten.KeyT) {
		g.opts.ToggleStall()
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	img := g.src.Image()
	if g.frame == nil {
		g.frame = ebiten.NewImage(g.w, g.h)
		g.pix = make([]byte, g.w*g.h*4)
	}
	toRGBA(img, g.pix)
	g.frame.WritePixels(g.pix)
	screen.DrawImage(g.frame, nil)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.w, g.h
}

// toRGBA expands a lit/unlit gray frame into RGBA pixels.
func toRGBA(src *image.Gray, dst []byte) {
	for i, v := range src.Pix {
		j := i * 4
		if j+3 >= len(dst) {
			return
		}
		c := darkRGB
		if v >= 0x80 {
			c = litRGB
		}
		dst[j], dst[j+1], dst[j+2], dst[j+3] = c[0], c[1], c[2], 0xFF
	}
}
