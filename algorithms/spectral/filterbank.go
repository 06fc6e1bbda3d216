package spectral

import "fmt"

// BandDesign is the center frequency and spread of one log-normal band.
type BandDesign struct {
	Name   string  `json:"name" yaml:"name"`
	MeanHz float64 `json:"mean_hz" yaml:"mean_hz"`
	StdHz  float64 `json:"std_hz" yaml:"std_hz"`
}

// Fixed perceptual band designs.
var (
	BassDesign   = BandDesign{Name: "bass", MeanHz: 200, StdHz: 300}
	MidDesign    = BandDesign{Name: "mid", MeanHz: 1000, StdHz: 500}
	TrebleDesign = BandDesign{Name: "treble", MeanHz: 10000, StdHz: 1000}
)

// DefaultBandDesigns returns the designs in bass, mid, treble order.
func DefaultBandDesigns() [3]BandDesign {
	return [3]BandDesign{BassDesign, MidDesign, TrebleDesign}
}

// FilterBank holds the bass, mid and treble kernels. All three share one
// length. A bank is never modified after BuildFilterBank returns, so it can
// be read from any goroutine without synchronization.
type FilterBank struct {
	bass       *Kernel
	mid        *Kernel
	treble     *Kernel
	sampleRate float64
	length     int
}

// BuildFilterBank builds the three fixed band kernels for a device running
// at sampleRate with length frequency bins.
func BuildFilterBank(sampleRate float64, length int) (*FilterBank, error) {
	designs := DefaultBandDesigns()
	kernels := make([]*Kernel, len(designs))

	for i, d := range designs {
		k, err := BuildLogNormalKernel(d.MeanHz, d.StdHz, sampleRate, length)
		if err != nil {
			return nil, fmt.Errorf("build %s kernel: %w", d.Name, err)
		}
		kernels[i] = k
	}

	return &FilterBank{
		bass:       kernels[0],
		mid:        kernels[1],
		treble:     kernels[2],
		sampleRate: sampleRate,
		length:     length,
	}, nil
}

// Bass returns the low band kernel.
func (fb *FilterBank) Bass() *Kernel { return fb.bass }

// Mid returns the middle band kernel.
func (fb *FilterBank) Mid() *Kernel { return fb.mid }

// Treble returns the high band kernel.
func (fb *FilterBank) Treble() *Kernel { return fb.treble }

// SampleRate is the device rate the kernels were built for.
func (fb *FilterBank) SampleRate() float64 { return fb.sampleRate }

// Len is the kernel length shared by all three bands.
func (fb *FilterBank) Len() int {
	return fb.length
}

// Kernels returns the kernels in bass, mid, treble order.
func (fb *FilterBank) Kernels() [3]*Kernel {
	return [3]*Kernel{fb.bass, fb.mid, fb.treble}
}

// Designs returns the band designs the bank was built from.
func (fb *FilterBank) Designs() [3]BandDesign {
	return DefaultBandDesigns()
}
