package source

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
)

// PCMReader decodes mono 32-bit float little-endian PCM from a byte stream,
// the format parec and ffmpeg emit with -f f32le.
type PCMReader struct {
	r          io.Reader
	closer     io.Closer
	sampleRate float64
	buf        []byte
	closeOnce  sync.Once
	closeErr   error
}

// NewPCMReader wraps r. If r is also an io.Closer it is closed by Close.
func NewPCMReader(r io.Reader, sampleRate float64) (*PCMReader, error) {
	if !(sampleRate > 0) {
		return nil, fmt.Errorf("source: invalid sample rate %v", sampleRate)
	}

	p := &PCMReader{r: r, sampleRate: sampleRate}
	if c, ok := r.(io.Closer); ok {
		p.closer = c
	}
	return p, nil
}

func (p *PCMReader) SampleRate() float64 {
	return p.sampleRate
}

// Read decodes up to len(dst) samples. A stream that ends mid-block returns
// the complete samples it got together with io.EOF.
func (p *PCMReader) Read(dst []float64) (int, error) {
	need := len(dst) * 4
	if cap(p.buf) < need {
		p.buf = make([]byte, need)
	}
	buf := p.buf[:need]

	n, err := io.ReadFull(p.r, buf)
	samples := n / 4
	for i := 0; i < samples; i++ {
		bits := binary.LittleEndian.Uint32(buf[i*4:])
		dst[i] = float64(math.Float32frombits(bits))
	}

	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}
	return samples, err
}

// Close closes the underlying stream once.
func (p *PCMReader) Close() error {
	p.closeOnce.Do(func() {
		if p.closer != nil {
			p.closeErr = p.closer.Close()
		}
	})
	return p.closeErr
}
