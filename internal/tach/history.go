package tach

// history is a fixed-capacity ring of raw RPM samples.
// It starts zero-filled so the mean ramps up over the first samples.
// Not safe for concurrent use.
type history struct {
	buf  []int
	head int // next write position
}

func newHistory(capacity int) *history {
	if capacity < 1 {
		capacity = 1
	}
	return &history{buf: make([]int, capacity)}
}

// push overwrites the oldest slot.
func (h *history) push(v int) {
	h.buf[h.head] = v
	h.head = (h.head + 1) % len(h.buf)
}

// mean returns the truncated integer mean over every slot, zeros included.
func (h *history) mean() int {
	sum := 0
	for _, v := range h.buf {
		sum += v
	}
	return sum / len(h.buf)
}
