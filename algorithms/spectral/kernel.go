package spectral

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// KernelScale is the peak value of a log-normal kernel before truncation.
const KernelScale = 256.0

// Kernel is an immutable per-bin weighting indexed like a spectrum frame.
// Weights are the truncated profile clipped to the byte range of magnitude
// samples.
type Kernel struct {
	meanHz     float64
	stdHz      float64
	sampleRate float64
	profile    []float64
	weights    []uint8
}

// BinFrequency returns the frequency a kernel assigns to bin i of length
// bins: ((i+1)/length) * sampleRate.
func BinFrequency(i, length int, sampleRate float64) float64 {
	return float64(i+1) / float64(length) * sampleRate
}

// LogNormalWeights evaluates a Gaussian in log-frequency space for every bin:
//
//	w_i = exp(-(ln x_i - ln mean)^2 / (2 sigma^2)) * 256,  sigma = std/mean
//
// Every returned weight lies in [0, 256].
func LogNormalWeights(meanHz, stdHz, sampleRate float64, length int) ([]float64, error) {
	if err := validateKernelParams(meanHz, stdHz, sampleRate, length); err != nil {
		return nil, err
	}

	sigma := stdHz / meanHz
	mu := math.Log(meanHz)
	denom := 2 * sigma * sigma

	profile := make([]float64, length)
	for i := range profile {
		d := math.Log(BinFrequency(i, length, sampleRate)) - mu
		profile[i] = math.Exp(-(d*d)/denom) * KernelScale
	}

	return profile, nil
}

// BuildLogNormalKernel builds one band-pass kernel centered on meanHz.
// It fails with ErrConfiguration while the sample rate is still unknown
// (zero or negative) and with ErrInvalidKernel on bad design parameters.
func BuildLogNormalKernel(meanHz, stdHz, sampleRate float64, length int) (*Kernel, error) {
	profile, err := LogNormalWeights(meanHz, stdHz, sampleRate, length)
	if err != nil {
		return nil, err
	}

	weights := make([]uint8, length)
	for i, w := range profile {
		weights[i] = truncateWeight(w)
	}

	return &Kernel{
		meanHz:     meanHz,
		stdHz:      stdHz,
		sampleRate: sampleRate,
		profile:    profile,
		weights:    weights,
	}, nil
}

func validateKernelParams(meanHz, stdHz, sampleRate float64, length int) error {
	if !(sampleRate > 0) {
		return fmt.Errorf("%w: sample rate not known (got %v)", ErrConfiguration, sampleRate)
	}
	if !(meanHz > 0) || !(stdHz > 0) {
		return fmt.Errorf("%w: mean=%v std=%v", ErrInvalidKernel, meanHz, stdHz)
	}
	if length <= 0 {
		return fmt.Errorf("%w: length=%d", ErrInvalidKernel, length)
	}
	return nil
}

// truncateWeight floors w and clips it to 255. A bin that lands exactly on
// the mean evaluates to 256 and would otherwise overflow a byte.
func truncateWeight(w float64) uint8 {
	w = math.Floor(w)
	switch {
	case w <= 0:
		return 0
	case w >= math.MaxUint8:
		return math.MaxUint8
	default:
		return uint8(w)
	}
}

// Len returns the number of bins.
func (k *Kernel) Len() int {
	return len(k.weights)
}

// At returns the truncated weight of bin i.
func (k *Kernel) At(i int) uint8 {
	return k.weights[i]
}

// Weights returns a copy of the truncated weights.
func (k *Kernel) Weights() []uint8 {
	out := make([]uint8, len(k.weights))
	copy(out, k.weights)
	return out
}

// Profile returns a copy of the pre-truncation weights.
func (k *Kernel) Profile() []float64 {
	out := make([]float64, len(k.profile))
	copy(out, k.profile)
	return out
}

// MeanHz is the design center frequency.
func (k *Kernel) MeanHz() float64 { return k.meanHz }

// StdHz is the design spread in Hz.
func (k *Kernel) StdHz() float64 { return k.stdHz }

// SampleRate is the rate the bin axis was laid out against.
func (k *Kernel) SampleRate() float64 { return k.sampleRate }

// BinFrequency returns the frequency represented by bin i of this kernel.
func (k *Kernel) BinFrequency(i int) float64 {
	return BinFrequency(i, len(k.weights), k.sampleRate)
}

// PeakBin returns the bin with the largest pre-truncation weight.
func (k *Kernel) PeakBin() int {
	return floats.MaxIdx(k.profile)
}

// Centroid returns the weight-averaged bin frequency in Hz, or 0 when the
// kernel has no weight anywhere in range.
func (k *Kernel) Centroid() float64 {
	if floats.Sum(k.profile) == 0 {
		return 0
	}

	freqs := make([]float64, len(k.profile))
	for i := range freqs {
		freqs[i] = k.BinFrequency(i)
	}

	return stat.Mean(freqs, k.profile)
}
