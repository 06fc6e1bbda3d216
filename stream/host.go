package stream

import "context"

// Host is the audio subsystem the controller drives. The analyser package
// provides one backed by PCM sources.
type Host interface {
	// Open negotiates the input device and configures an fftSize-point
	// analysis. It returns the device sample rate once known.
	Open(ctx context.Context, fftSize int) (sampleRate float64, err error)

	// SpectrumFrame returns the current magnitude frame of fftSize/2 bins.
	// The slice stays owned by the host and is read-only to callers.
	SpectrumFrame() []uint8

	// OnTick registers a callback invoked once per audio block, each time a
	// new frame is available. Calls are serialized.
	OnTick(fn func())

	// Close releases the device. It must be safe to call more than once.
	Close() error
}
