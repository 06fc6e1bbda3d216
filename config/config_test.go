package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1024, cfg.Audio.Analyser.FFTSize)
	assert.Equal(t, SourceTone, cfg.Audio.Source)
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := writeFile(t, "glow.yaml", `
audio:
  source: parec
  device: alsa_output.monitor
  sample_rate: 44100
  analyser:
    fft_size: 2048
    block_size: 256
    smoothing_time_constant: 0.5
    min_decibels: -90
    max_decibels: -20
display:
  fps: 60
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, SourceParec, cfg.Audio.Source)
	assert.Equal(t, "alsa_output.monitor", cfg.Audio.Device)
	assert.Equal(t, 44100, cfg.Audio.SampleRate)
	assert.Equal(t, 2048, cfg.Audio.Analyser.FFTSize)
	assert.Equal(t, 256, cfg.Audio.Analyser.BlockSize)
	assert.Equal(t, 0.5, cfg.Audio.Analyser.SmoothingTimeConstant)
	assert.Equal(t, -90.0, cfg.Audio.Analyser.MinDecibels)
	assert.Equal(t, 60, cfg.Display.FPS)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// untouched keys keep their defaults
	assert.True(t, cfg.Logging.Color)
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "glow.json", `{"display": {"fps": 12}, "audio": {"tones": [{"frequency_hz": 440, "amplitude": 1}]}}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Display.FPS)
	require.Len(t, cfg.Audio.Tones, 1)
	assert.Equal(t, 440.0, cfg.Audio.Tones[0].FrequencyHz)
}

func TestLoadFileSource(t *testing.T) {
	path := writeFile(t, "glow.yaml", "audio:\n  source: file\n  path: /music/track.flac\n  loop: true\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, SourceFile, cfg.Audio.Source)
	assert.Equal(t, "/music/track.flac", cfg.Audio.Path)
	assert.True(t, cfg.Audio.Loop)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"bad source":   "audio:\n  source: jack\n",
		"bad fft":      "audio:\n  analyser:\n    fft_size: 1000\n",
		"bad rate":     "audio:\n  sample_rate: 0\n",
		"bad fps":      "display:\n  fps: 0\n",
		"bad level":    "logging:\n  level: loud\n",
		"broken yaml":  "audio: [",
		"bad decibels": "audio:\n  analyser:\n    min_decibels: 0\n",
		"file no path": "audio:\n  source: file\n",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, "glow.yaml", body))
			assert.Error(t, err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "glow.yaml")

	cfg := Default()
	cfg.Display.FPS = 24
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
