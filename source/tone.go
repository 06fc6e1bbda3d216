package source

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"
)

// Partial is one sine component of a Tone.
type Partial struct {
	FrequencyHz float64 `json:"frequency_hz" yaml:"frequency_hz"`
	Amplitude   float64 `json:"amplitude" yaml:"amplitude"`
}

// Tone synthesizes a sum of sine partials. It is deterministic: the n-th
// sample only depends on n and the partials.
type Tone struct {
	sampleRate float64
	partials   []Partial
	realtime   bool

	position int64
	start    time.Time
	closed   atomic.Bool
	sleep    func(time.Duration)
}

// ToneOption configures a Tone.
type ToneOption func(*Tone)

// WithRealtime makes Read block so samples are produced no faster than the
// sample rate, the way a capture device would deliver them.
func WithRealtime() ToneOption {
	return func(t *Tone) {
		t.realtime = true
	}
}

// NewTone creates a tone generator. An empty partial list produces silence.
func NewTone(sampleRate float64, partials []Partial, opts ...ToneOption) (*Tone, error) {
	if !(sampleRate > 0) {
		return nil, fmt.Errorf("source: invalid sample rate %v", sampleRate)
	}

	t := &Tone{
		sampleRate: sampleRate,
		partials:   append([]Partial(nil), partials...),
		sleep:      time.Sleep,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func (t *Tone) SampleRate() float64 {
	return t.sampleRate
}

// Read fills dst with the next len(dst) samples.
func (t *Tone) Read(dst []float64) (int, error) {
	if t.closed.Load() {
		return 0, ErrClosed
	}

	if t.realtime {
		if t.start.IsZero() {
			t.start = time.Now()
		}
		// pace against the stream start so rounding does not drift
		due := t.start.Add(time.Duration(float64(t.position+int64(len(dst))) / t.sampleRate * float64(time.Second)))
		if wait := time.Until(due); wait > 0 {
			t.sleep(wait)
		}
	}

	for i := range dst {
		n := float64(t.position + int64(i))
		var v float64
		for _, p := range t.partials {
			v += p.Amplitude * math.Sin(2*math.Pi*p.FrequencyHz*n/t.sampleRate)
		}
		dst[i] = v
	}
	t.position += int64(len(dst))

	return len(dst), nil
}

func (t *Tone) Close() error {
	t.closed.Store(true)
	return nil
}
