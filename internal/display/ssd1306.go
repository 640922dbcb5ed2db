package display

import (
	"fmt"

	"tinygo.org/x/drivers"
)

// DefaultAddress is the usual I2C address of SSD1306 modules.
const DefaultAddress = 0x3C

// Control bytes prefixed to every I2C write.
const (
	ctrlCommand = 0x00
	ctrlData    = 0x40
)

// dataChunk bounds a single I2C data write.
const dataChunk = 16

// SSD1306 drives the controller over I2C in horizontal addressing mode.
type SSD1306 struct {
	bus           drivers.I2C
	addr          uint16
	width, height int16
}

// NewSSD1306 returns a device on bus at addr. Call Init before Flush.
func NewSSD1306(bus drivers.I2C, addr uint16, width, height int16) *SSD1306 {
	return &SSD1306{bus: bus, addr: addr, width: width, height: height}
}

// Init sends the power-up sequence and turns the panel on.
func (d *SSD1306) Init() error {
	comPins := byte(0x12)
	if d.height == 32 {
		comPins = 0x02
	}
	mux := byte(d.height - 1)
	seq := []byte{
		0xAE,          // display off
		0xD5, 0x80,    // clock divide
		0xA8, mux,     // multiplex
		0xD3, 0x00,    // display offset
		0x40,          // start line 0
		0x8D, 0x14,    // charge pump on
		0x20, 0x00,    // horizontal addressing
		0xA1,          // segment remap
		0xC8,          // COM scan descending
		0xDA, comPins, // COM pins
		0x81, 0x8F,    // contrast
		0xD9, 0xF1,    // precharge
		0xDB, 0x40,    // VCOMH deselect
		0xA4,          // resume from RAM
		0xA6,          // normal, not inverted
		0x2E,          // scroll off
		0xAF,          // display on
	}
	if err := d.command(seq...); err != nil {
		return fmt.Errorf("ssd1306 init: %w", err)
	}
	return nil
}

// Flush writes a full page-ordered frame.
func (d *SSD1306) Flush(buf []byte) error {
	pages := byte((d.height + 7) / 8)
	if err := d.command(0x21, 0, byte(d.width-1), 0x22, 0, pages-1); err != nil {
		return fmt.Errorf("ssd1306 address: %w", err)
	}

	pkt := make([]byte, 1+dataChunk)
	pkt[0] = ctrlData
	for off := 0; off < len(buf); off += dataChunk {
		n := copy(pkt[1:], buf[off:])
		if err := d.bus.Tx(d.addr, pkt[:1+n], nil); err != nil {
			return fmt.Errorf("ssd1306 data at %d: %w", off, err)
		}
	}
	return nil
}

// Off blanks the panel.
func (d *SSD1306) Off() error {
	return d.command(0xAE)
}

func (d *SSD1306) command(cmds ...byte) error {
	return d.bus.Tx(d.addr, append([]byte{ctrlCommand}, cmds...), nil)
}
