// Package source provides mono PCM sample streams for the analyser host.
package source

import (
	"context"
	"errors"
)

// ErrClosed is returned by Read after Close.
var ErrClosed = errors.New("source: closed")

// Source is a mono PCM stream with a fixed sample rate. Read blocks until
// len(dst) samples are available or the stream ends; it returns io.EOF at
// the end of the stream.
type Source interface {
	SampleRate() float64
	Read(dst []float64) (int, error)
	Close() error
}

// Opener acquires a Source. It is where device selection and permission
// negotiation happen, so it may block until ctx is done.
type Opener func(ctx context.Context) (Source, error)
