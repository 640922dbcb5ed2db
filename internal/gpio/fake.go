package gpio

import "errors"

var errEmptyScript = errors.New("fake reader: empty script")

// Sample is one poll of both buttons; true means held down.
type Sample struct {
	Next   bool
	Select bool
}

// Press returns n polls with the given buttons held.
func Press(next, sel bool, n int) []Sample {
	out := make([]Sample, n)
	for i := range out {
		out[i] = Sample{Next: next, Select: sel}
	}
	return out
}

// Tap returns one button held for hold polls, then released for gap polls.
func Tap(next bool, hold, gap int) []Sample {
	return append(Press(next, !next, hold), Press(false, false, gap)...)
}

// FakeReader replays a script of samples, one per Read. Once the script is
// exhausted the last sample repeats, so a script ending on a held button
// behaves like a stuck key.
type FakeReader struct {
	Samples   []Sample
	ReadError error // returned instead of a sample while set
	Reads     int
	Closed    bool

	pos int
}

// NewFakeReader creates a reader replaying samples.
func NewFakeReader(samples []Sample) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
func (f *FakeReader) Read() (bool, bool, error) {
	f.Reads++
	switch {
	case f.ReadError != nil:
		return false, false, f.ReadError
	case len(f.Samples) == 0:
		return false, false, errEmptyScript
	}

	s := f.Samples[f.pos]
	if f.pos+1 < len(f.Samples) {
		f.pos++
	}
	return s.Next, s.Select, nil
}

// Exhausted reports whether the script has reached its final sample.
func (f *FakeReader) Exhausted() bool {
	return f.pos >= len(f.Samples)-1
}

// Close records the call.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Rewind restarts the script and clears the counters.
func (f *FakeReader) Rewind() {
	f.pos = 0
	f.Reads = 0
	f.Closed = false
}
