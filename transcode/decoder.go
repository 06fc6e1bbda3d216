// Package transcode streams audio files and URLs through ffmpeg as mono PCM.
package transcode

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/RyanBlaney/sonido-glow/logging"
	"github.com/RyanBlaney/sonido-glow/source"
)

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	TargetSampleRate int           `json:"target_sample_rate" yaml:"target_sample_rate"`
	MaxDuration      time.Duration `json:"max_duration" yaml:"max_duration"`         // 0 = whole input
	ResampleQuality  string        `json:"resample_quality" yaml:"resample_quality"` // "fast", "medium", "high"
	FFmpegPath       string        `json:"ffmpeg_path" yaml:"ffmpeg_path"`
	Realtime         bool          `json:"realtime" yaml:"realtime"` // read input at its native rate (-re)
	Loop             bool          `json:"loop" yaml:"loop"`         // restart files at EOF
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		TargetSampleRate: 48000,
		ResampleQuality:  "medium",
		FFmpegPath:       "ffmpeg", // Assume in PATH
		Realtime:         true,
	}
}

// Stream is a running ffmpeg decode exposed as a source.Source.
type Stream struct {
	*source.PCMReader
	cmd       *exec.Cmd
	logger    logging.Logger
	closeOnce sync.Once
	closeErr  error
}

// Opener returns a source.Opener that decodes input with cfg.
func Opener(input string, cfg *DecoderConfig) source.Opener {
	return func(ctx context.Context) (source.Source, error) {
		return OpenStream(ctx, input, cfg)
	}
}

// OpenStream starts ffmpeg on input (a path or URL) and returns its output
// as mono float32 samples at cfg.TargetSampleRate.
func OpenStream(ctx context.Context, input string, cfg *DecoderConfig) (*Stream, error) {
	if cfg == nil {
		cfg = DefaultDecoderConfig()
	}
	if input == "" {
		return nil, fmt.Errorf("transcode: no input given")
	}
	if cfg.TargetSampleRate <= 0 {
		return nil, fmt.Errorf("transcode: invalid sample rate %d", cfg.TargetSampleRate)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger := logging.WithFields(logging.Fields{
		"component": "ffmpeg_stream",
		"input":     input,
	})

	args := buildFFmpegArgs(input, cfg)
	logger.Debug("Starting ffmpeg", logging.Fields{"args": args})

	cmd := exec.Command(cfg.FFmpegPath, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	reader, err := source.NewPCMReader(stdout, float64(cfg.TargetSampleRate))
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, err
	}

	return &Stream{PCMReader: reader, cmd: cmd, logger: logger}, nil
}

func buildFFmpegArgs(input string, cfg *DecoderConfig) []string {
	args := []string{"-v", "error", "-nostdin"}

	if cfg.Realtime {
		args = append(args, "-re")
	}
	if cfg.Loop {
		args = append(args, "-stream_loop", "-1")
	}

	args = append(args, "-i", input)

	if cfg.MaxDuration > 0 {
		args = append(args, "-t", fmt.Sprintf("%.3f", cfg.MaxDuration.Seconds()))
	}

	args = append(args,
		"-vn",           // No video
		"-map", "0:a:0", // First audio stream
		"-f", "f32le",
		"-ac", "1",
		"-ar", strconv.Itoa(cfg.TargetSampleRate),
	)

	switch cfg.ResampleQuality {
	case "fast":
		args = append(args, "-af", "aresample=resampler=soxr:precision=16")
	case "high":
		args = append(args, "-af", "aresample=resampler=soxr:precision=28")
	case "medium":
		args = append(args, "-af", "aresample=resampler=soxr:precision=20")
	}

	return append(args, "pipe:1")
}

// Close stops ffmpeg and releases the pipe.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		if s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		s.closeErr = s.PCMReader.Close()
		if err := s.cmd.Wait(); err != nil {
			s.logger.Debug("ffmpeg exited", logging.Fields{"error": err.Error()})
		}
	})
	return s.closeErr
}
