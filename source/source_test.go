package source

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeF32LE(samples ...float32) []byte {
	var buf bytes.Buffer
	for _, s := range samples {
		_ = binary.Write(&buf, binary.LittleEndian, s)
	}
	return buf.Bytes()
}

func TestPCMReaderDecodesFloat32LE(t *testing.T) {
	r, err := NewPCMReader(bytes.NewReader(encodeF32LE(0.5, -1, 0.25)), 48000)
	require.NoError(t, err)
	assert.Equal(t, 48000.0, r.SampleRate())

	dst := make([]float64, 2)
	n, err := r.Read(dst)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []float64{0.5, -1}, dst)

	n, err = r.Read(dst)
	assert.Equal(t, 1, n)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 0.25, dst[0])

	n, err = r.Read(dst)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, io.EOF)
}

func TestPCMReaderDropsTrailingPartialSample(t *testing.T) {
	data := append(encodeF32LE(0.75), 0x01, 0x02)
	r, err := NewPCMReader(bytes.NewReader(data), 8000)
	require.NoError(t, err)

	dst := make([]float64, 4)
	n, err := r.Read(dst)
	assert.Equal(t, 1, n)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 0.75, dst[0])
}

type closeCounter struct {
	io.Reader
	closes int
}

func (c *closeCounter) Close() error {
	c.closes++
	return nil
}

func TestPCMReaderClosesUnderlyingOnce(t *testing.T) {
	cc := &closeCounter{Reader: bytes.NewReader(nil)}
	r, err := NewPCMReader(cc, 8000)
	require.NoError(t, err)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	assert.Equal(t, 1, cc.closes)
}

func TestPCMReaderRejectsBadRate(t *testing.T) {
	_, err := NewPCMReader(bytes.NewReader(nil), 0)
	assert.Error(t, err)
}

func TestToneIsContinuousAcrossReads(t *testing.T) {
	tone, err := NewTone(8000, []Partial{{FrequencyHz: 1000, Amplitude: 0.5}})
	require.NoError(t, err)

	first := make([]float64, 3)
	second := make([]float64, 3)
	_, err = tone.Read(first)
	require.NoError(t, err)
	_, err = tone.Read(second)
	require.NoError(t, err)

	all := append(first, second...)
	for n, v := range all {
		want := 0.5 * math.Sin(2*math.Pi*1000*float64(n)/8000)
		assert.InDelta(t, want, v, 1e-12, "sample %d", n)
	}
}

func TestToneSilenceAndClose(t *testing.T) {
	tone, err := NewTone(8000, nil)
	require.NoError(t, err)

	dst := []float64{1, 1}
	n, err := tone.Read(dst)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []float64{0, 0}, dst)

	require.NoError(t, tone.Close())
	_, err = tone.Read(dst)
	assert.True(t, errors.Is(err, ErrClosed))
}

func TestToneRealtimePacing(t *testing.T) {
	tone, err := NewTone(1000, nil, WithRealtime())
	require.NoError(t, err)

	var slept time.Duration
	tone.sleep = func(d time.Duration) { slept += d }

	_, err = tone.Read(make([]float64, 100))
	require.NoError(t, err)
	assert.Greater(t, slept, 50*time.Millisecond)
	assert.LessOrEqual(t, slept, 100*time.Millisecond)
}

func TestNewToneRejectsBadRate(t *testing.T) {
	_, err := NewTone(-1, nil)
	assert.Error(t, err)
}

func TestParecArgs(t *testing.T) {
	args := parecArgs(44100, "alsa_output.monitor")
	assert.Contains(t, args, "--format=float32le")
	assert.Contains(t, args, "--rate=44100")
	assert.Contains(t, args, "--channels=1")
	assert.Contains(t, args, "--device=alsa_output.monitor")
}

func TestMonitorName(t *testing.T) {
	name, err := monitorName("alsa_output.pci\n")
	require.NoError(t, err)
	assert.Equal(t, "alsa_output.pci.monitor", name)

	_, err = monitorName("  \n")
	assert.Error(t, err)
}
