package capture

// Framer regroups arbitrarily sized device callbacks into fixed analysis
// windows of Size samples, advancing by Hop.
type Framer struct {
	size int
	hop  int
	buf  []float64
}

func NewFramer(size, hop int) *Framer {
	if size <= 0 {
		size = 2048
	}
	if hop <= 0 || hop > size {
		hop = size
	}
	return &Framer{size: size, hop: hop, buf: make([]float64, 0, size*2)}
}

// Push appends samples and returns every window that became complete. The
// returned windows are fresh copies.
func (f *Framer) Push(samples []float32) [][]float64 {
	for _, s := range samples {
		f.buf = append(f.buf, float64(s))
	}

	var out [][]float64
	for len(f.buf) >= f.size {
		w := make([]float64, f.size)
		copy(w, f.buf[:f.size])
		out = append(out, w)
		f.buf = append(f.buf[:0], f.buf[f.hop:]...)
	}
	return out
}

// Buffered is how many samples are waiting for the next window.
func (f *Framer) Buffered() int {
	return len(f.buf)
}
