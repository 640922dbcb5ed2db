package logic

import "github.com/pandafix/fan-tester/internal/settings"

// Cursor is a wrapping index over n entries.
type Cursor struct {
	n     int
	index int
}

// NewCursor returns a cursor over n entries at index. An index outside
// [0, n) starts at 0.
func NewCursor(n, index int) Cursor {
	if index < 0 || index >= n {
		index = 0
	}
	return Cursor{n: n, index: index}
}

// Next advances the cursor, wrapping to 0 after the last entry, and returns
// the new index.
func (c *Cursor) Next() int {
	if c.n <= 0 {
		return 0
	}
	c.index = (c.index + 1) % c.n
	return c.index
}

// Index returns the current position.
func (c Cursor) Index() int {
	return c.index
}

// Len returns the number of entries.
func (c Cursor) Len() int {
	return c.n
}

// DutyLadder returns the manual-mode duty rungs for step: 0, step, 2*step
// and so on below 100, then 100. A step outside 1..100 uses the default.
func DutyLadder(step int) []int {
	if step < 1 || step > 100 {
		step = settings.DefaultPWMStep
	}
	var ladder []int
	for p := 0; p < 100; p += step {
		ladder = append(ladder, p)
	}
	return append(ladder, 100)
}
