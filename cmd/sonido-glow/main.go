package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/RyanBlaney/sonido-glow/algorithms/spectral"
	"github.com/RyanBlaney/sonido-glow/analyser"
	"github.com/RyanBlaney/sonido-glow/config"
	"github.com/RyanBlaney/sonido-glow/logging"
	"github.com/RyanBlaney/sonido-glow/source"
	"github.com/RyanBlaney/sonido-glow/stream"
	"github.com/RyanBlaney/sonido-glow/transcode"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML or JSON config file")
	sourceKind := flag.String("source", "", "audio source: tone, parec or file (overrides config)")
	device := flag.String("device", "", "parec device (overrides config)")
	input := flag.String("input", "", "file or URL for the file source (overrides config)")
	fps := flag.Int("fps", 0, "meter refresh rate (overrides config)")
	level := flag.String("log-level", "", "debug, info, warn or error (overrides config)")
	duration := flag.Duration("duration", 0, "stop after this long (0 runs until interrupted)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	applyFlags(cfg, *sourceKind, *device, *fps, *level)
	if *input != "" {
		cfg.Audio.Path = *input
		if *sourceKind == "" {
			cfg.Audio.Source = config.SourceFile
		}
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	setupLogging(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	if err := run(ctx, cfg, os.Stdout); err != nil {
		logging.Error(err, "sonido-glow stopped")
		os.Exit(1)
	}
}

func applyFlags(cfg *config.Config, sourceKind, device string, fps int, level string) {
	if sourceKind != "" {
		cfg.Audio.Source = sourceKind
	}
	if device != "" {
		cfg.Audio.Device = device
	}
	if fps > 0 {
		cfg.Display.FPS = fps
	}
	if level != "" {
		cfg.Logging.Level = level
	}
}

func setupLogging(cfg config.LoggingConfig) {
	// Validate already rejected unknown levels
	lvl, _ := logging.ParseLevel(cfg.Level)
	logging.SetLevel(lvl)
	if !cfg.Color {
		logging.DisableColors()
	}
}

func opener(cfg *config.Config) source.Opener {
	switch cfg.Audio.Source {
	case config.SourceParec:
		return source.ParecOpener(cfg.Audio.SampleRate, cfg.Audio.Device)
	case config.SourceFile:
		dec := transcode.DefaultDecoderConfig()
		dec.TargetSampleRate = cfg.Audio.SampleRate
		dec.Realtime = cfg.Audio.Realtime
		dec.Loop = cfg.Audio.Loop
		return transcode.Opener(cfg.Audio.Path, dec)
	}

	return func(ctx context.Context) (source.Source, error) {
		var opts []source.ToneOption
		if cfg.Audio.Realtime {
			opts = append(opts, source.WithRealtime())
		}
		return source.NewTone(float64(cfg.Audio.SampleRate), cfg.Audio.Tones, opts...)
	}
}

// run opens the stream and redraws the meter until ctx is done.
func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	logger := logging.WithFields(logging.Fields{
		"component": "sonido_glow",
	})

	ctx = logging.ContextWithFields(ctx, logging.Fields{
		"source": cfg.Audio.Source,
	})

	host := analyser.New(cfg.Audio.Analyser, opener(cfg))
	ctrl := stream.NewController(host, stream.WithFFTSize(cfg.Audio.Analyser.FFTSize))

	if err := ctrl.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if err := ctrl.Shutdown(); err != nil {
			logger.Error(err, "Shutdown failed")
		}
	}()

	ticker := time.NewTicker(time.Second / time.Duration(cfg.Display.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			logger.Info("Stopping", logging.Fields{
				"processed": ctrl.Stats().Processed,
			})
			return nil
		case <-host.Done():
			fmt.Fprintln(out)
			logger.Info("Audio input finished")
			return nil
		case <-ticker.C:
			res, ok := ctrl.Latest()
			fmt.Fprint(out, "\r"+meterLine(res, ok))
		}
	}
}

const meterWidth = 12

// meterLine renders one status line. The extracted values are unclamped;
// only the display saturates them.
func meterLine(res spectral.EnergyResult, ok bool) string {
	if !ok {
		return "no signal" + strings.Repeat(" ", 60)
	}

	return fmt.Sprintf("B %s  M %s  T %s  vol %5.2f  %s",
		bar(res.Bass), bar(res.Mid), bar(res.Treble), res.Volume, hexColor(res.Color()))
}

func bar(v float64) string {
	n := int(saturate(v) * meterWidth)
	return strings.Repeat("#", n) + strings.Repeat(".", meterWidth-n)
}

func hexColor(c [3]float64) string {
	return fmt.Sprintf("#%02x%02x%02x",
		uint8(saturate(c[0])*255), uint8(saturate(c[1])*255), uint8(saturate(c[2])*255))
}

func saturate(v float64) float64 {
	return min(max(v, 0), 1)
}
