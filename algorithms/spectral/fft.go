package spectral

import (
	"fmt"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT wraps mjibson/go-dsp for real-valued analysis frames.
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute returns the complex spectrum of x.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	// mjibson/go-dsp handles all sizes, including non-power-of-2
	return fft.FFTReal(x)
}

// Magnitudes writes |X[k]| for k in [0, len(dst)) into dst. dst may hold at
// most len(x)/2 bins, the non-redundant half of a real spectrum.
func (f *FFT) Magnitudes(dst, x []float64) error {
	if len(dst) > len(x)/2 {
		return fmt.Errorf("spectral: %d magnitude bins requested from a %d-sample frame", len(dst), len(x))
	}

	spectrum := f.Compute(x)
	for k := range dst {
		dst[k] = cmplx.Abs(spectrum[k])
	}

	return nil
}
