// Package config loads sonido-glow settings from YAML or JSON files.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-glow/analyser"
	"github.com/RyanBlaney/sonido-glow/logging"
	"github.com/RyanBlaney/sonido-glow/source"
)

// Source kinds
const (
	SourceTone  = "tone"
	SourceParec = "parec"
	SourceFile  = "file"
)

type AudioConfig struct {
	Source     string           `json:"source" yaml:"source"`
	Device     string           `json:"device,omitempty" yaml:"device,omitempty"` // parec device; empty = default sink monitor
	SampleRate int              `json:"sample_rate" yaml:"sample_rate"`
	Tones      []source.Partial `json:"tones,omitempty" yaml:"tones,omitempty"`
	Realtime   bool             `json:"realtime" yaml:"realtime"` // pace tone and file sources like a device
	Path       string           `json:"path,omitempty" yaml:"path,omitempty"` // file or URL decoded by ffmpeg
	Loop       bool             `json:"loop,omitempty" yaml:"loop,omitempty"`

	Analyser analyser.Config `json:"analyser" yaml:"analyser"`
}

type DisplayConfig struct {
	FPS int `json:"fps" yaml:"fps"`
}

type LoggingConfig struct {
	Level string `json:"level" yaml:"level"`
	Color bool   `json:"color" yaml:"color"`
}

// Config is the complete application configuration.
type Config struct {
	Audio   AudioConfig   `json:"audio" yaml:"audio"`
	Display DisplayConfig `json:"display" yaml:"display"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// Default returns the built-in configuration: a paced tone chord through a
// 1024-point analyser.
func Default() *Config {
	return &Config{
		Audio: AudioConfig{
			Source:     SourceTone,
			SampleRate: 48000,
			Tones: []source.Partial{
				{FrequencyHz: 110, Amplitude: 0.4},
				{FrequencyHz: 880, Amplitude: 0.2},
				{FrequencyHz: 4968.75, Amplitude: 0.1},
			},
			Realtime: true,
			Analyser: analyser.DefaultConfig(),
		},
		Display: DisplayConfig{
			FPS: 30,
		},
		Logging: LoggingConfig{
			Level: "info",
			Color: true,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
// Files ending in .json are decoded as JSON, everything else as YAML.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	switch c.Audio.Source {
	case SourceTone, SourceParec:
	case SourceFile:
		if c.Audio.Path == "" {
			return fmt.Errorf("audio source %q needs a path", SourceFile)
		}
	default:
		return fmt.Errorf("unknown audio source %q", c.Audio.Source)
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.Audio.SampleRate)
	}
	if err := c.Audio.Analyser.Validate(); err != nil {
		return err
	}
	if c.Display.FPS <= 0 {
		return fmt.Errorf("display fps must be positive, got %d", c.Display.FPS)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
