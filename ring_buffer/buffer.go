package ring_buffer

type bufImpl struct {
	buffer []int16
	head   int
	filled int
}

// New returns a ring buffer holding the last size samples.
func New(size int) Interface {
	if size < 1 {
		size = 1
	}

	return &bufImpl{
		buffer: make([]int16, size),
	}
}

func (r *bufImpl) Add(samples []int16) {
	for _, s := range samples {
		r.buffer[r.head] = s
		r.head = (r.head + 1) % len(r.buffer)
	}

	r.filled += len(samples)
	if r.filled > len(r.buffer) {
		r.filled = len(r.buffer)
	}
}

// Read returns the buffered samples oldest first. Slots never written are
// skipped, so a partly filled buffer yields only what was added.
func (r *bufImpl) Read() []int16 {
	samples := make([]int16, r.filled)
	start := (r.head - r.filled + len(r.buffer)) % len(r.buffer)

	for i := 0; i < r.filled; i++ {
		samples[i] = r.buffer[(start+i)%len(r.buffer)]
	}

	return samples
}

func (r *bufImpl) Filled() int {
	return r.filled
}

func (r *bufImpl) Clear() {
	for i := 0; i < len(r.buffer); i++ {
		r.buffer[i] = 0
	}

	r.head = 0
	r.filled = 0
}
