package display

import (
	"fmt"
	"image/color"
	"time"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"

	"github.com/pandafix/fan-tester/internal/locale"
	"github.com/pandafix/fan-tester/internal/logic"
	"github.com/pandafix/fan-tester/internal/settings"
	"github.com/pandafix/fan-tester/internal/status"
)

// Layout, in pixels. Row values are the top of a text line.
const (
	arrowMargin = 12
	rowTitle    = 0
	rowSecond   = 12
	rowThird    = 22
	rowItem     = 16
	ascent      = 8 // baseline offset below the row top
	aboutLineH  = 10
	iconX       = 110
	iconY       = 16
	modeMaxLen  = 11
)

// Animation timing.
const (
	scrollStartDelay = 500 * time.Millisecond
	scrollWait       = 1000 * time.Millisecond
	scrollSpeedH     = 40 // px/s
	scrollSpeedV     = 15 // px/s
	scrollGap        = 20 // px between marquee repeats
	iconFrameTime    = 200 * time.Millisecond
)

// AboutLines scroll upward on the About screen.
var AboutLines = []string{
	"Pandafix",
	"Fan Tester",
	"",
	"PWM 25 kHz",
	"Tach 2 pulse/rev",
	"Auto / Manual",
	"Target RPM",
	"",
	"Made with Go",
}

var fanIcon = [4][8]byte{
	{0x18, 0x3C, 0x7E, 0xFF, 0xFF, 0x7E, 0x3C, 0x18},
	{0x24, 0x42, 0xBD, 0xFF, 0xFF, 0xBD, 0x42, 0x24},
	{0x18, 0x3C, 0x7E, 0xFF, 0xFF, 0x7E, 0x3C, 0x18},
	{0x42, 0x24, 0xBD, 0xFF, 0xFF, 0xBD, 0x24, 0x42},
}

// clearer is implemented by displays with a fast clear, like Panel.
type clearer interface {
	Clear()
}

// Renderer draws status snapshots. It keeps only animation state and is not
// safe for concurrent use.
type Renderer struct {
	d    drivers.Displayer
	font tinyfont.Fonter
	w, h int16

	iconFrame int
	iconLast  time.Time

	// marquee restarts whenever the highlighted entry changes
	markKey   string
	markStart time.Time
}

// NewRenderer draws on d.
func NewRenderer(d drivers.Displayer) *Renderer {
	w, h := d.Size()
	return &Renderer{
		d:    d,
		font: &proggy.TinySZ8pt7b,
		w:    w,
		h:    h,
	}
}

// Render draws one frame for s and pushes it to the display.
func (r *Renderer) Render(s status.Snapshot) error {
	r.clear()

	tr := locale.Translator(s.View.Language)
	v := s.View
	now := s.Now

	switch v.State {
	case logic.StateSplash:
		r.centered(tr.T(locale.AppName), 5)
		r.centered(tr.T(locale.AppSub), 20)

	case logic.StateMenu:
		r.menu(tr.T(locale.MenuTitle), menuLabel(tr, v.Item()), v.State, v.MenuIndex, now)

	case logic.StateSettingsMenu:
		r.menu(tr.T(locale.SettingsTitle), menuLabel(tr, v.SettingsItem()), v.State, v.SettingsIndex, now)

	case logic.StateSelectLanguage:
		r.text(tr.T(locale.SetLanguage), 0, rowTitle)
		lang := settings.Languages[clampIndex(v.OptionIndex, len(settings.Languages))]
		r.marquee(locale.Name(lang), rowItem, r.markerStart(v.State, v.OptionIndex, now), now)
		r.arrows(rowItem)

	case logic.StateSelectStep:
		r.text(tr.T(locale.SetStep), 0, rowTitle)
		step := settings.StepOptions[clampIndex(v.OptionIndex, len(settings.StepOptions))]
		r.centered(fmt.Sprintf("%d%%", step), rowItem)
		r.arrowGlyphs(rowItem)

	case logic.StateSelectDebounce:
		r.text(tr.T(locale.SetDebounce), 0, rowTitle)
		ms := settings.DebounceOptions[clampIndex(v.OptionIndex, len(settings.DebounceOptions))]
		r.centered(fmt.Sprintf("%d ms", ms), rowItem)
		r.arrowGlyphs(rowItem)

	case logic.StateMessageSaved:
		r.centered(tr.T(locale.Saved), rowSecond)

	case logic.StateAbout:
		r.about(now.Sub(v.StateSince))

	case logic.StateRunAuto, logic.StateRunManual, logic.StateRunTarget:
		r.test(tr, s)
	}

	return r.d.Display()
}

func menuLabel(tr locale.Translator, item logic.MenuItem) string {
	switch item {
	case logic.ItemAuto:
		return tr.T(locale.ModeAuto)
	case logic.ItemManual:
		return tr.T(locale.ModeManual)
	case logic.ItemTarget:
		return tr.T(locale.ModeTarget)
	case logic.ItemSettings:
		return tr.T(locale.ModeSettings)
	case logic.ItemAbout:
		return tr.T(locale.ModeAbout)
	case logic.ItemLanguage:
		return tr.T(locale.SetLanguage)
	case logic.ItemStep:
		return tr.T(locale.SetStep)
	case logic.ItemDebounce:
		return tr.T(locale.SetDebounce)
	case logic.ItemBack:
		return tr.T(locale.Back)
	}
	return string(item)
}

func (r *Renderer) menu(title, item string, state logic.State, index int, now time.Time) {
	r.text(title, 10, rowTitle)
	r.marquee(item, rowItem, r.markerStart(state, index, now), now)
	r.arrows(rowItem)
}

// markerStart returns when the marquee for (state, index) started,
// restarting it on change.
func (r *Renderer) markerStart(state logic.State, index int, now time.Time) time.Time {
	key := fmt.Sprintf("%s/%d", state, index)
	if key != r.markKey {
		r.markKey = key
		r.markStart = now
	}
	return r.markStart
}

func (r *Renderer) test(tr locale.Translator, s status.Snapshot) {
	v := s.View

	var mode string
	switch v.State {
	case logic.StateRunAuto:
		mode = tr.T(locale.ModeAuto)
	case logic.StateRunManual:
		mode = tr.T(locale.ModeManual)
	default:
		mode = tr.T(locale.ModeTarget)
	}
	if len(mode) > modeMaxLen {
		mode = mode[:modeMaxLen]
	}
	r.text(mode, 0, rowTitle)

	if s.HasTemperature {
		t := fmt.Sprintf("%dC", int(s.Temperature))
		r.text(t, r.w-r.width(t), rowTitle)
	}

	if s.Reading.Stall {
		r.text(tr.T(locale.StallAlert), 0, rowSecond)
	} else {
		if v.State == logic.StateRunTarget {
			r.text(fmt.Sprintf("%s:%d", tr.T(locale.Target), v.TargetRPM()), 0, rowSecond)
		} else {
			r.text(fmt.Sprintf("%s:%d%%", tr.T(locale.PWM), s.Duty.Percent), 0, rowSecond)
		}
		r.text(fmt.Sprintf("%s:%d", tr.T(locale.RPM), s.Reading.Smoothed), 0, rowThird)
	}

	animate := !s.Reading.Stall && s.Duty.Percent > 0
	r.icon(iconX, iconY, animate, s.Now)
}

func (r *Renderer) about(elapsed time.Duration) {
	for i, y := range aboutRows(len(AboutLines), int(r.h), elapsed) {
		if y <= -aboutLineH || y >= int(r.h) {
			continue
		}
		line := AboutLines[i]
		r.text(line, (r.w-r.width(line))/2, int16(y))
	}
}

// aboutRows returns the top row of each credits line after scrolling
// for elapsed. The text enters from the bottom and repeats once the last
// line has left the top.
func aboutRows(lines, screenH int, elapsed time.Duration) []int {
	shift := int(elapsed.Milliseconds() * scrollSpeedV / 1000)
	cycle := lines*aboutLineH + screenH
	start := screenH - shift%cycle

	rows := make([]int, lines)
	for i := range rows {
		rows[i] = start + i*aboutLineH
	}
	return rows
}

// marqueeX returns the left edge of a text of width textW scrolling inside
// a window of width window starting at margin, and false while the text is
// hidden between cycles.
func marqueeX(textW, window, margin int, elapsed time.Duration) (int, bool) {
	if textW <= window {
		return margin + (window-textW)/2, true
	}
	if elapsed < scrollStartDelay {
		return margin, true
	}

	travel := textW + window
	cycle := time.Duration(travel) * time.Second / scrollSpeedH
	scroll := (elapsed - scrollStartDelay) % (cycle + scrollWait)
	if scroll >= cycle {
		return 0, false
	}

	offset := int(int64(scroll) * int64(travel) / int64(cycle))
	x := margin - offset
	if x < -textW {
		x += textW + window + scrollGap
	}
	return x, true
}

func (r *Renderer) marquee(s string, row int16, start, now time.Time) {
	window := int(r.w) - 2*arrowMargin
	x, ok := marqueeX(int(r.width(s)), window, arrowMargin, now.Sub(start))
	if ok {
		r.text(s, int16(x), row)
	}
}

// arrows masks the marquee margins and draws the navigation arrows.
func (r *Renderer) arrows(row int16) {
	r.fill(0, row, arrowMargin, aboutLineH, colorOff)
	r.fill(r.w-arrowMargin, row, arrowMargin, aboutLineH, colorOff)
	r.arrowGlyphs(row)
}

func (r *Renderer) arrowGlyphs(row int16) {
	r.text("<", 0, row)
	r.text(">", r.w-r.width(">"), row)
}

func (r *Renderer) icon(x, y int16, animate bool, now time.Time) {
	if animate && now.Sub(r.iconLast) > iconFrameTime {
		r.iconFrame = (r.iconFrame + 1) % len(fanIcon)
		r.iconLast = now
	}
	bitmap := fanIcon[r.iconFrame]
	for row := int16(0); row < 8; row++ {
		for col := int16(0); col < 8; col++ {
			if bitmap[row]>>(7-col)&1 == 1 {
				r.d.SetPixel(x+col, y+row, colorOn)
			}
		}
	}
}

func (r *Renderer) text(s string, x, row int16) {
	tinyfont.WriteLine(r.d, r.font, x, row+ascent, s, colorOn)
}

func (r *Renderer) centered(s string, row int16) {
	x := (r.w - r.width(s)) / 2
	if x < 0 {
		x = 0
	}
	r.text(s, x, row)
}

func (r *Renderer) width(s string) int16 {
	_, outbox := tinyfont.LineWidth(r.font, s)
	return int16(outbox)
}

func (r *Renderer) fill(x, y, w, h int16, c color.RGBA) {
	if f, ok := r.d.(interface {
		FillRectangle(x, y, width, height int16, c color.RGBA) error
	}); ok {
		f.FillRectangle(x, y, w, h, c)
		return
	}
	for py := y; py < y+h; py++ {
		for px := x; px < x+w; px++ {
			r.d.SetPixel(px, py, c)
		}
	}
}

func (r *Renderer) clear() {
	if c, ok := r.d.(clearer); ok {
		c.Clear()
		return
	}
	r.fill(0, 0, r.w, r.h, colorOff)
}

func clampIndex(i, n int) int {
	if i < 0 || i >= n {
		return 0
	}
	return i
}
