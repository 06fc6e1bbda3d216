package stream

import (
	"math"
	"runtime"
	"sync/atomic"

	"github.com/RyanBlaney/sonido-glow/algorithms/spectral"
)

// latestResult publishes one EnergyResult from a single writer to any number
// of readers without locks or allocation. seq is odd while a store is in
// progress and zero until the first store.
type latestResult struct {
	seq   atomic.Uint64
	words [7]atomic.Uint64
}

// store must only be called from one goroutine at a time.
func (l *latestResult) store(r spectral.EnergyResult) {
	l.seq.Add(1)
	l.words[0].Store(math.Float64bits(r.Bass))
	l.words[1].Store(math.Float64bits(r.Mid))
	l.words[2].Store(math.Float64bits(r.Treble))
	l.words[3].Store(math.Float64bits(r.Volume))
	l.words[4].Store(math.Float64bits(r.BassEnergy))
	l.words[5].Store(math.Float64bits(r.MidEnergy))
	l.words[6].Store(math.Float64bits(r.TrebleEnergy))
	l.seq.Add(1)
}

func (l *latestResult) load() (spectral.EnergyResult, bool) {
	for {
		before := l.seq.Load()
		if before == 0 {
			return spectral.EnergyResult{}, false
		}
		if before&1 == 1 {
			runtime.Gosched()
			continue
		}

		r := spectral.EnergyResult{
			Bass:         math.Float64frombits(l.words[0].Load()),
			Mid:          math.Float64frombits(l.words[1].Load()),
			Treble:       math.Float64frombits(l.words[2].Load()),
			Volume:       math.Float64frombits(l.words[3].Load()),
			BassEnergy:   math.Float64frombits(l.words[4].Load()),
			MidEnergy:    math.Float64frombits(l.words[5].Load()),
			TrebleEnergy: math.Float64frombits(l.words[6].Load()),
		}

		if l.seq.Load() == before {
			return r, true
		}
	}
}
