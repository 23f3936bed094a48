package audio

// ringBuffer is a fixed-size circular buffer of the most recent samples.
// It is not safe for concurrent use; BandAnalyzer guards it.
type ringBuffer struct {
	buf []float64
	w   int // write position
	len int // current fill level
}

func newRingBuffer(size int) *ringBuffer {
	return &ringBuffer{buf: make([]float64, size)}
}

// write appends samples, overwriting the oldest data when full.
func (rb *ringBuffer) write(p []float64) {
	size := len(rb.buf)
	if len(p) >= size {
		copy(rb.buf, p[len(p)-size:])
		rb.w = 0
		rb.len = size
		return
	}

	n := copy(rb.buf[rb.w:], p)
	if n < len(p) {
		copy(rb.buf, p[n:])
	}
	rb.w = (rb.w + len(p)) % size
	rb.len = min(rb.len+len(p), size)
}

// latest copies the len(dst) most recent samples into dst, oldest first.
// Missing history is zero-filled at the front.
func (rb *ringBuffer) latest(dst []float64) {
	size := len(rb.buf)
	n := min(len(dst), rb.len)
	pad := len(dst) - n
	clear(dst[:pad])

	start := (rb.w - n + size) % size
	for i := range n {
		dst[pad+i] = rb.buf[(start+i)%size]
	}
}

// reset empties the buffer.
func (rb *ringBuffer) reset() {
	rb.w = 0
	rb.len = 0
}
