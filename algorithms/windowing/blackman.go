package windowing

import (
	"fmt"
	"math"
)

// DefaultBlackmanAlpha gives the classic 0.42/0.5/0.08 coefficients.
const DefaultBlackmanAlpha = 0.16

// Blackman represents a Blackman window function
type Blackman struct {
	size         int
	alpha        float64
	symmetric    bool
	coefficients []float64
}

// NewBlackman creates a Blackman window with the classic coefficients.
// A periodic window (symmetric=false) is the one used for spectral analysis.
func NewBlackman(size int, symmetric bool) *Blackman {
	return NewBlackmanAlpha(size, DefaultBlackmanAlpha, symmetric)
}

// NewBlackmanAlpha creates a Blackman window with a0 = (1-alpha)/2,
// a1 = 1/2 and a2 = alpha/2.
func NewBlackmanAlpha(size int, alpha float64, symmetric bool) *Blackman {
	b := &Blackman{
		size:      size,
		alpha:     alpha,
		symmetric: symmetric,
	}
	b.generate()
	return b
}

func (b *Blackman) generate() {
	b.coefficients = make([]float64, b.size)

	denominator := float64(b.size)
	if b.symmetric && b.size > 1 {
		denominator = float64(b.size - 1)
	}

	a0, a1, a2 := (1-b.alpha)/2, 0.5, b.alpha/2

	for i := 0; i < b.size; i++ {
		arg := 2 * math.Pi * float64(i) / denominator
		b.coefficients[i] = a0 - a1*math.Cos(arg) + a2*math.Cos(2*arg)
	}
}

// ApplyInPlace applies the window to a signal in-place
func (b *Blackman) ApplyInPlace(signal []float64) error {
	if len(signal) != b.size {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), b.size)
	}

	for i := 0; i < b.size; i++ {
		signal[i] *= b.coefficients[i]
	}

	return nil
}
