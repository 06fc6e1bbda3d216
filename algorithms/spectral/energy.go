package spectral

// EnergyResult is the feature vector extracted from one spectrum frame.
//
// Bass, Mid and Treble are the raw band energies divided by MaxEnergy, and
// Volume is the largest of the three. None of them is clamped: a loud,
// narrow-band signal can push a value well above 1.
type EnergyResult struct {
	Bass   float64 `json:"bass"`
	Mid    float64 `json:"mid"`
	Treble float64 `json:"treble"`
	Volume float64 `json:"volume"`

	// Raw per-band energies: dot(frame, kernel) / len(frame).
	BassEnergy   float64 `json:"bass_energy"`
	MidEnergy    float64 `json:"mid_energy"`
	TrebleEnergy float64 `json:"treble_energy"`
}

// Color returns the normalized triple in bass, mid, treble order.
func (r EnergyResult) Color() [3]float64 {
	return [3]float64{r.Bass, r.Mid, r.Treble}
}

// MaxEnergy is the normalization ceiling for a frame of n bins: 256*n/32.
func MaxEnergy(n int) float64 {
	return KernelScale * float64(n) / 32
}

// Extract reduces one frame against the bank's kernels in a single pass.
// It does not allocate unless it fails, and it neither reads nor writes any
// state besides its arguments.
func Extract(frame []uint8, bank *FilterBank) (EnergyResult, error) {
	if bank == nil {
		return EnergyResult{}, ErrConfiguration
	}

	n := bank.length
	if len(frame) != n {
		return EnergyResult{}, &DimensionMismatchError{FrameLen: len(frame), KernelLen: n}
	}
	if n == 0 {
		return EnergyResult{}, nil
	}

	// Re-slicing to n lets the compiler drop bounds checks in the loop.
	bass := bank.bass.weights[:n]
	mid := bank.mid.weights[:n]
	treble := bank.treble.weights[:n]
	frame = frame[:n]

	var sumBass, sumMid, sumTreble uint64
	for i, v := range frame {
		s := uint64(v)
		sumBass += s * uint64(bass[i])
		sumMid += s * uint64(mid[i])
		sumTreble += s * uint64(treble[i])
	}

	length := float64(n)
	res := EnergyResult{
		BassEnergy:   float64(sumBass) / length,
		MidEnergy:    float64(sumMid) / length,
		TrebleEnergy: float64(sumTreble) / length,
	}

	maxEnergy := MaxEnergy(n)
	res.Bass = res.BassEnergy / maxEnergy
	res.Mid = res.MidEnergy / maxEnergy
	res.Treble = res.TrebleEnergy / maxEnergy
	res.Volume = max(res.BassEnergy, res.MidEnergy, res.TrebleEnergy) / maxEnergy

	return res, nil
}
