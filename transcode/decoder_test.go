package transcode

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFFmpegArgsDefaults(t *testing.T) {
	args := buildFFmpegArgs("song.flac", DefaultDecoderConfig())

	assert.Equal(t, []string{
		"-v", "error", "-nostdin", "-re",
		"-i", "song.flac",
		"-vn", "-map", "0:a:0", "-f", "f32le", "-ac", "1", "-ar", "48000",
		"-af", "aresample=resampler=soxr:precision=20",
		"pipe:1",
	}, args)
}

func TestBuildFFmpegArgsOptions(t *testing.T) {
	cfg := &DecoderConfig{
		TargetSampleRate: 44100,
		MaxDuration:      1500 * time.Millisecond,
		ResampleQuality:  "high",
		FFmpegPath:       "ffmpeg",
		Loop:             true,
	}

	args := buildFFmpegArgs("http://radio.example/stream", cfg)

	assert.NotContains(t, args, "-re")
	assert.Subset(t, args, []string{"-stream_loop", "-1", "-t", "1.500", "44100", "aresample=resampler=soxr:precision=28"})
	assert.Equal(t, "pipe:1", args[len(args)-1])
}

func TestOpenStreamValidates(t *testing.T) {
	_, err := OpenStream(context.Background(), "", nil)
	assert.Error(t, err)

	cfg := DefaultDecoderConfig()
	cfg.TargetSampleRate = 0
	_, err = OpenStream(context.Background(), "a.wav", cfg)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = OpenStream(ctx, "a.wav", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenStreamMissingBinary(t *testing.T) {
	cfg := DefaultDecoderConfig()
	cfg.FFmpegPath = "/nonexistent/ffmpeg"

	_, err := OpenStream(context.Background(), "a.wav", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start ffmpeg")
}
