package common

// CircularBuffer keeps the most recent samples of a stream. Writes never
// block: once full, each new sample overwrites the oldest one.
type CircularBuffer struct {
	buffer   []float64
	size     int
	writePos int
	count    int
}

// NewCircularBuffer creates a new circular buffer
func NewCircularBuffer(size int) *CircularBuffer {
	return &CircularBuffer{
		buffer: make([]float64, size),
		size:   size,
	}
}

// Write appends data, dropping the oldest samples when full.
func (cb *CircularBuffer) Write(data []float64) int {
	if cb.size == 0 {
		return 0
	}
	// only the tail can survive a write longer than the buffer
	if len(data) > cb.size {
		data = data[len(data)-cb.size:]
	}

	for _, sample := range data {
		cb.buffer[cb.writePos] = sample
		cb.writePos = (cb.writePos + 1) % cb.size
		if cb.count < cb.size {
			cb.count++
		}
	}
	return len(data)
}

// CopyLatest fills dst with the newest len(dst) samples in arrival order.
// When fewer samples have been written, dst is zero-padded at the front.
// It returns the number of real samples copied.
func (cb *CircularBuffer) CopyLatest(dst []float64) int {
	n := min(len(dst), cb.count)
	pad := len(dst) - n
	for i := 0; i < pad; i++ {
		dst[i] = 0
	}

	start := (cb.writePos - n + cb.size) % max(cb.size, 1)
	for i := 0; i < n; i++ {
		dst[pad+i] = cb.buffer[(start+i)%cb.size]
	}
	return n
}

// IsFull returns true if buffer is full
func (cb *CircularBuffer) IsFull() bool {
	return cb.count == cb.size
}
