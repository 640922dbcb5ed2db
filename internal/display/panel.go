// Package display draws the fan tester UI on a 128x32 monochrome OLED.
//
// Panel is a page-ordered framebuffer implementing drivers.Displayer, so
// tinyfont can draw on it directly. Display pushes the frame to a Flusher
// (an SSD1306 on hardware, nothing in the simulator) and keeps a copy for
// readers on other goroutines.
package display

import (
	"image"
	"image/color"
	"sync"
)

// Flusher receives a complete page-ordered frame.
type Flusher interface {
	Flush(buf []byte) error
}

var (
	colorOn  = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	colorOff = color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xff}
)

// Panel is a 1-bit framebuffer. Byte x+(y/8)*width holds column x of page
// y/8, bit y%8, matching SSD1306 horizontal addressing.
type Panel struct {
	width, height int16
	buf           []byte
	out           Flusher

	mu     sync.Mutex
	front  []byte
	frames int
}

// NewPanel creates a cleared panel. out may be nil. height is rounded up to
// a whole page.
func NewPanel(width, height int16, out Flusher) *Panel {
	pages := (int(height) + 7) / 8
	return &Panel{
		width:  width,
		height: height,
		buf:    make([]byte, int(width)*pages),
		front:  make([]byte, int(width)*pages),
		out:    out,
	}
}

// Size implements drivers.Displayer.
func (p *Panel) Size() (x, y int16) {
	return p.width, p.height
}

// SetPixel implements drivers.Displayer. Any color brighter than half
// intensity lights the pixel.
func (p *Panel) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return
	}
	i := int(x) + int(y/8)*int(p.width)
	bit := byte(1) << uint(y%8)
	if lit(c) {
		p.buf[i] |= bit
	} else {
		p.buf[i] &^= bit
	}
}

func lit(c color.RGBA) bool {
	return int(c.R)+int(c.G)+int(c.B) >= 3*0x80
}

// Pixel reports whether the back buffer pixel is lit.
func (p *Panel) Pixel(x, y int16) bool {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return false
	}
	return p.buf[int(x)+int(y/8)*int(p.width)]&(1<<uint(y%8)) != 0
}

// Clear blanks the back buffer.
func (p *Panel) Clear() {
	for i := range p.buf {
		p.buf[i] = 0
	}
}

// FillRectangle sets a rectangle to c, clipped to the panel.
func (p *Panel) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	for py := y; py < y+height; py++ {
		for px := x; px < x+width; px++ {
			p.SetPixel(px, py, c)
		}
	}
	return nil
}

// Display implements drivers.Displayer. It publishes the frame and
// flushes it to the output, if any.
func (p *Panel) Display() error {
	p.mu.Lock()
	copy(p.front, p.buf)
	p.frames++
	p.mu.Unlock()

	if p.out == nil {
		return nil
	}
	return p.out.Flush(p.buf)
}

// Frames returns how many frames have been displayed.
func (p *Panel) Frames() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames
}

// Image returns the last displayed frame as a grayscale image. Safe for
// concurrent use with drawing.
func (p *Panel) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, int(p.width), int(p.height)))

	p.mu.Lock()
	defer p.mu.Unlock()
	for y := 0; y < int(p.height); y++ {
		for x := 0; x < int(p.width); x++ {
			if p.front[x+(y/8)*int(p.width)]&(1<<uint(y%8)) != 0 {
				img.Pix[y*img.Stride+x] = 0xff
			}
		}
	}
	return img
}
