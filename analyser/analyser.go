// Package analyser turns a PCM source into byte magnitude spectra, one per
// audio block, and notifies a tick callback after each one. It follows the
// Web Audio AnalyserNode conventions: a periodic Blackman window, temporal
// smoothing of the magnitudes, and a linear dB-to-byte mapping.
package analyser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"

	"github.com/RyanBlaney/sonido-glow/algorithms/common"
	"github.com/RyanBlaney/sonido-glow/algorithms/spectral"
	"github.com/RyanBlaney/sonido-glow/algorithms/windowing"
	"github.com/RyanBlaney/sonido-glow/logging"
	"github.com/RyanBlaney/sonido-glow/source"
	"gonum.org/v1/gonum/floats"
)

// Config holds analyser parameters
type Config struct {
	FFTSize               int     `json:"fft_size" yaml:"fft_size"`
	BlockSize             int     `json:"block_size" yaml:"block_size"`
	SmoothingTimeConstant float64 `json:"smoothing_time_constant" yaml:"smoothing_time_constant"`
	MinDecibels           float64 `json:"min_decibels" yaml:"min_decibels"`
	MaxDecibels           float64 `json:"max_decibels" yaml:"max_decibels"`
}

// DefaultConfig returns the AnalyserNode defaults with a 1024-point FFT.
func DefaultConfig() Config {
	return Config{
		FFTSize:               1024,
		BlockSize:             512,
		SmoothingTimeConstant: 0.8,
		MinDecibels:           -100,
		MaxDecibels:           -30,
	}
}

// Validate checks the configuration for a given FFT size.
func (c Config) Validate() error {
	if c.FFTSize < 32 || c.FFTSize > 32768 || c.FFTSize&(c.FFTSize-1) != 0 {
		return fmt.Errorf("analyser: fft size %d must be a power of two in [32, 32768]", c.FFTSize)
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("analyser: block size must be positive, got %d", c.BlockSize)
	}
	if c.SmoothingTimeConstant < 0 || c.SmoothingTimeConstant >= 1 {
		return fmt.Errorf("analyser: smoothing time constant %v outside [0, 1)", c.SmoothingTimeConstant)
	}
	if c.MinDecibels >= c.MaxDecibels {
		return fmt.Errorf("analyser: min decibels %v must be below max decibels %v", c.MinDecibels, c.MaxDecibels)
	}
	return nil
}

// ErrAlreadyOpen is returned by Open while a session is opening or running.
// ErrClosed is returned by Open when Close interrupted it.
var (
	ErrAlreadyOpen = errors.New("analyser: already open")
	ErrClosed      = errors.New("analyser: closed")
)

type phase int

const (
	idle phase = iota
	opening
	running
)

// Analyser is an audio host. After Open it runs a single goroutine that
// reads one block from the source, recomputes the spectrum frame and then
// calls the tick callback on that same goroutine, so the frame returned by
// SpectrumFrame is stable for the duration of the callback.
//
// Close ends the current session; a later Open starts a new one through the
// same opener.
type Analyser struct {
	cfg    Config
	opener source.Opener
	logger logging.Logger

	mu         sync.Mutex
	phase      phase
	cancelOpen context.CancelFunc
	abandoned  bool // Close ran while the opener was pending
	src        source.Source
	stop       chan struct{}
	done       chan struct{}

	onTick atomic.Pointer[func()]

	ring     *common.CircularBuffer
	window   *windowing.Blackman
	fft      *spectral.FFT
	block    []float64
	timeBuf  []float64
	mags     []float64
	smoothed []float64
	frame    []uint8
	primed   bool // the window holds fftSize real samples
}

// New creates an analyser that acquires its input through opener.
func New(cfg Config, opener source.Opener) *Analyser {
	done := make(chan struct{})
	close(done)

	return &Analyser{
		cfg:    cfg,
		opener: opener,
		logger: logging.WithFields(logging.Fields{
			"component": "analyser",
		}),
		done: done,
	}
}

// Open acquires the source, allocates all analysis buffers for fftSize and
// starts the processing goroutine. It returns the source's sample rate.
//
// The opener runs without holding the analyser lock and with a context that
// Close cancels, so a Close during a slow device negotiation returns at once
// and makes Open fail with ErrClosed.
func (a *Analyser) Open(ctx context.Context, fftSize int) (float64, error) {
	a.mu.Lock()
	if a.phase != idle {
		a.mu.Unlock()
		return 0, ErrAlreadyOpen
	}

	cfg := a.cfg
	cfg.FFTSize = fftSize
	if err := cfg.Validate(); err != nil {
		a.mu.Unlock()
		return 0, err
	}

	openCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.phase = opening
	a.abandoned = false
	a.cancelOpen = cancel
	previous := a.done
	a.mu.Unlock()

	src, err := a.acquire(openCtx, previous)

	a.mu.Lock()
	defer a.mu.Unlock()

	a.cancelOpen = nil
	if a.abandoned {
		a.phase = idle
		if src != nil {
			_ = src.Close()
		}
		return 0, ErrClosed
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		a.phase = idle
		if src != nil {
			_ = src.Close()
		}
		return 0, err
	}

	a.cfg = cfg
	a.allocate()
	a.src = src
	a.stop = make(chan struct{})
	a.done = make(chan struct{})
	a.phase = running

	a.logger.WithContext(ctx).Info("Audio input opened", logging.Fields{
		"sample_rate": src.SampleRate(),
		"fft_size":    cfg.FFTSize,
		"block_size":  cfg.BlockSize,
	})

	go a.run(src, a.stop, a.done)

	return src.SampleRate(), nil
}

// acquire waits for the previous session's goroutine to release the
// analysis buffers, then runs the opener.
func (a *Analyser) acquire(ctx context.Context, previous <-chan struct{}) (source.Source, error) {
	select {
	case <-previous:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return a.opener(ctx)
}

func (a *Analyser) allocate() {
	n := a.cfg.FFTSize
	a.ring = common.NewCircularBuffer(n)
	a.window = windowing.NewBlackman(n, false)
	a.fft = spectral.NewFFT()
	a.block = make([]float64, a.cfg.BlockSize)
	a.timeBuf = make([]float64, n)
	a.mags = make([]float64, n/2)
	a.smoothed = make([]float64, n/2)
	a.frame = make([]uint8, n/2)
	a.primed = false
}

// FrequencyBinCount is half the FFT size.
func (a *Analyser) FrequencyBinCount() int {
	return a.cfg.FFTSize / 2
}

// SpectrumFrame returns the current byte spectrum. The slice is owned by the
// analyser; read it only from the tick callback or after Done is closed.
func (a *Analyser) SpectrumFrame() []uint8 {
	return a.frame
}

// OnTick registers fn to run after every processed block. It replaces any
// earlier callback.
func (a *Analyser) OnTick(fn func()) {
	if fn == nil {
		a.onTick.Store(nil)
		return
	}
	a.onTick.Store(&fn)
}

// Done is closed when the current session's processing goroutine has
// exited. Before the first Open it is already closed.
func (a *Analyser) Done() <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.done
}

// Close stops processing and closes the source, or interrupts a pending
// Open. It is safe to call more than once and from the tick callback.
func (a *Analyser) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.phase {
	case idle:
		return nil
	case opening:
		a.abandoned = true
		a.cancelOpen()
		a.logger.Info("Audio input open interrupted")
		return nil
	}

	close(a.stop)
	// closing the source unblocks a pending Read
	err := a.src.Close()
	a.src = nil
	a.phase = idle
	a.logger.Info("Audio input closed")
	return err
}

func (a *Analyser) run(src source.Source, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case <-stop:
			return
		default:
		}

		n, err := src.Read(a.block)
		if n > 0 {
			a.process(a.block[:n])
			if fn := a.onTick.Load(); fn != nil {
				select {
				case <-stop:
					return
				default:
					(*fn)()
				}
			}
		}

		if err != nil {
			select {
			case <-stop:
			default:
				if errors.Is(err, io.EOF) {
					a.logger.Info("Audio input ended")
				} else {
					a.logger.Error(err, "Audio input read failed")
				}
			}
			return
		}
	}
}

// process feeds one block into the analysis window and refreshes frame.
func (a *Analyser) process(block []float64) {
	a.ring.Write(block)
	a.ring.CopyLatest(a.timeBuf)
	if !a.primed && a.ring.IsFull() {
		a.primed = true
		a.logger.Debug("Analysis window filled", logging.Fields{"fft_size": a.cfg.FFTSize})
	}

	// sizes always match: both come from cfg.FFTSize
	_ = a.window.ApplyInPlace(a.timeBuf)
	_ = a.fft.Magnitudes(a.mags, a.timeBuf)
	floats.Scale(1/float64(a.cfg.FFTSize), a.mags)

	tau := a.cfg.SmoothingTimeConstant
	rangeScale := 255 / (a.cfg.MaxDecibels - a.cfg.MinDecibels)
	for k, m := range a.mags {
		s := tau*a.smoothed[k] + (1-tau)*m
		if math.IsNaN(s) || math.IsInf(s, 0) {
			s = 0
		}
		a.smoothed[k] = s
		a.frame[k] = toByte(rangeScale * (20*math.Log10(s) - a.cfg.MinDecibels))
	}
}

func toByte(v float64) uint8 {
	v = math.Floor(v)
	switch {
	case !(v > 0):
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}
