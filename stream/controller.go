// Package stream gates band energy extraction on audio device readiness and
// publishes the most recent result to a visualization consumer.
package stream

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/RyanBlaney/sonido-glow/algorithms/spectral"
	"github.com/RyanBlaney/sonido-glow/logging"
)

// DefaultFFTSize is the analysis window length. Frames carry half as many bins.
const DefaultFFTSize = 1024

// State is the controller lifecycle state.
type State int32

const (
	Uninitialized State = iota
	Initializing
	Ready
	Closed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Stats counts what happened to ticks since the controller was created.
type Stats struct {
	Processed uint64 `json:"processed"`
	Dropped   uint64 `json:"dropped"` // arrived while not ready
	Skipped   uint64 `json:"skipped"` // extraction failed
}

// Controller owns the filter bank and the readiness state machine:
//
//	Uninitialized -> Initializing -> Ready -> Closed
//
// Tick runs on the host's audio goroutine; Latest, IsReady, State and Stats
// may be called from any goroutine.
type Controller struct {
	host     Host
	fftSize  int
	reporter Reporter
	logger   logging.Logger

	state atomic.Int32

	// stored once during Open, before the Ready transition
	bank atomic.Pointer[spectral.FilterBank]

	latest latestResult

	processed atomic.Uint64
	dropped   atomic.Uint64
	skipped   atomic.Uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithFFTSize overrides DefaultFFTSize.
func WithFFTSize(n int) Option {
	return func(c *Controller) {
		c.fftSize = n
	}
}

// WithReporter sets the sink for skipped-tick errors.
func WithReporter(r Reporter) Option {
	return func(c *Controller) {
		c.reporter = r
	}
}

// WithLogger replaces the component logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// NewController creates an uninitialized controller for host.
func NewController(host Host, opts ...Option) *Controller {
	c := &Controller{
		host:    host,
		fftSize: DefaultFFTSize,
		logger: logging.WithFields(logging.Fields{
			"component": "stream_controller",
		}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.reporter == nil {
		c.reporter = NewLogReporter(c.logger, 100)
	}
	return c
}

// transition is the only place the state changes.
func (c *Controller) transition(from, to State) bool {
	if !c.state.CompareAndSwap(int32(from), int32(to)) {
		return false
	}
	c.logger.Debug("State transition", logging.Fields{
		"from": from.String(),
		"to":   to.String(),
	})
	return true
}

// Open runs the two-phase initialization: it opens the host, builds the
// filter bank for the reported sample rate, checks the frame length and
// then starts accepting ticks. Failures are returned once as an
// *InitializationError and leave the controller Uninitialized.
func (c *Controller) Open(ctx context.Context) error {
	if !c.transition(Uninitialized, Initializing) {
		if c.State() == Closed {
			return ErrClosed
		}
		return ErrAlreadyOpen
	}

	logger := c.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "Open",
		"fft_size": c.fftSize,
	})

	fail := func(op string, err error, hostOpen bool) error {
		if hostOpen {
			_ = c.host.Close()
		}
		c.transition(Initializing, Uninitialized)
		initErr := &InitializationError{Op: op, Err: err}
		logger.Error(initErr, "Stream initialization failed")
		return initErr
	}

	sampleRate, err := c.host.Open(ctx, c.fftSize)
	if err != nil {
		return fail("open audio input", err, false)
	}

	bank, err := spectral.BuildFilterBank(sampleRate, c.fftSize/2)
	if err != nil {
		return fail("build filter bank", err, true)
	}

	if n := len(c.host.SpectrumFrame()); n != bank.Len() {
		return fail("check frame length", &spectral.DimensionMismatchError{FrameLen: n, KernelLen: bank.Len()}, true)
	}

	c.bank.Store(bank)
	c.host.OnTick(c.Tick)

	if !c.transition(Initializing, Ready) {
		// Shutdown won the race; it may have closed the host before it opened
		_ = c.host.Close()
		return ErrClosed
	}

	logger.Info("Stream ready", logging.Fields{
		"sample_rate":     sampleRate,
		"bins":            bank.Len(),
		"bass_centroid":   bank.Bass().Centroid(),
		"mid_centroid":    bank.Mid().Centroid(),
		"treble_centroid": bank.Treble().Centroid(),
	})

	return nil
}

// Tick handles one host notification. While not Ready it only counts the
// tick. Otherwise it extracts the current frame and publishes the result;
// extraction errors skip the tick and go to the Reporter. Tick never blocks
// and does not allocate on the success path.
func (c *Controller) Tick() {
	if State(c.state.Load()) != Ready {
		c.dropped.Add(1)
		return
	}

	res, err := spectral.Extract(c.host.SpectrumFrame(), c.bank.Load())
	if err != nil {
		c.skipped.Add(1)
		c.reporter.ReportSkippedTick(err)
		return
	}

	c.latest.store(res)
	c.processed.Add(1)
}

// Latest returns the most recently published result, or false before the
// first successful tick.
func (c *Controller) Latest() (spectral.EnergyResult, bool) {
	return c.latest.load()
}

// IsReady reports whether ticks are currently being extracted.
func (c *Controller) IsReady() bool {
	return c.State() == Ready
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Stats returns a snapshot of the tick counters.
func (c *Controller) Stats() Stats {
	return Stats{
		Processed: c.processed.Load(),
		Dropped:   c.dropped.Load(),
		Skipped:   c.skipped.Load(),
	}
}

// FilterBank returns the bank built by Open, or nil before it exists.
func (c *Controller) FilterBank() *spectral.FilterBank {
	return c.bank.Load()
}

// SampleRate returns the device sample rate, or 0 before it is known.
func (c *Controller) SampleRate() float64 {
	if bank := c.bank.Load(); bank != nil {
		return bank.SampleRate()
	}
	return 0
}

// Shutdown moves the controller to Closed from any state and releases the
// host. A tick already running finishes; later ticks are dropped. Calling
// Shutdown again is a no-op.
func (c *Controller) Shutdown() error {
	for {
		s := c.State()
		if s == Closed {
			return nil
		}
		if !c.transition(s, Closed) {
			continue
		}
		if s == Uninitialized {
			return nil
		}

		if err := c.host.Close(); err != nil {
			c.logger.Error(err, "Failed to close audio input")
			return fmt.Errorf("close audio input: %w", err)
		}
		c.logger.Info("Stream closed", logging.Fields{
			"processed": c.processed.Load(),
			"dropped":   c.dropped.Load(),
			"skipped":   c.skipped.Load(),
		})
		return nil
	}
}

// IsInitializationError reports whether err came from a failed Open.
func IsInitializationError(err error) bool {
	var initErr *InitializationError
	return errors.As(err, &initErr)
}
