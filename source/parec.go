package source

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// Parec captures from PulseAudio/PipeWire through the parec command line
// tool, defaulting to the monitor of the default sink so whatever is playing
// drives the analysis.
type Parec struct {
	*PCMReader
	cmd       *exec.Cmd
	closeOnce sync.Once
	closeErr  error
}

// ParecOpener returns an Opener for OpenParec.
func ParecOpener(sampleRate int, device string) Opener {
	return func(ctx context.Context) (Source, error) {
		return OpenParec(ctx, sampleRate, device)
	}
}

// OpenParec starts parec for device. An empty device selects the default
// sink monitor.
func OpenParec(ctx context.Context, sampleRate int, device string) (*Parec, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("source: invalid sample rate %d", sampleRate)
	}

	if device == "" {
		monitor, err := defaultMonitor(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to find monitor source: %w", err)
		}
		device = monitor
	}

	cmd := exec.Command("parec", parecArgs(sampleRate, device)...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start parec (is pulseaudio/pipewire-pulse installed?): %w", err)
	}

	reader, err := NewPCMReader(stdout, float64(sampleRate))
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, err
	}

	return &Parec{PCMReader: reader, cmd: cmd}, nil
}

func parecArgs(sampleRate int, device string) []string {
	return []string{
		"--format=float32le",
		fmt.Sprintf("--rate=%d", sampleRate),
		"--channels=1",
		fmt.Sprintf("--device=%s", device),
		"--latency-msec=25",
	}
}

func defaultMonitor(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "pactl", "get-default-sink").Output()
	if err != nil {
		return "", fmt.Errorf("cannot get default sink: %w", err)
	}
	return monitorName(string(out))
}

func monitorName(sink string) (string, error) {
	sink = strings.TrimSpace(sink)
	if sink == "" {
		return "", fmt.Errorf("no default sink found")
	}
	return sink + ".monitor", nil
}

// Close stops parec and releases the pipe.
func (p *Parec) Close() error {
	p.closeOnce.Do(func() {
		if p.cmd.Process != nil {
			_ = p.cmd.Process.Kill()
		}
		p.closeErr = p.PCMReader.Close()
		// Wait reports the kill as an error; only pipe errors matter here
		_ = p.cmd.Wait()
	})
	return p.closeErr
}
