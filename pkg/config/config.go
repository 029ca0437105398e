// Package config loads the YAML deployment configuration for the zoom
// stage tools. The driver itself only takes in-memory values; this package
// is how cmd/ binaries turn a per-deployment calibration file into those
// values.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"zoomctl/pkg/zoom"
)

// SerialConfig describes the controller link.
type SerialConfig struct {
	Device     string `yaml:"device"`      // e.g., /dev/ttyACM0
	BaudRate   int    `yaml:"baud_rate"`   // bits/sec
	TimeoutSec int    `yaml:"timeout_sec"` // acknowledgment read timeout
}

// PositionConfig is one calibrated preset coordinate pair.
type PositionConfig struct {
	Zoom  int `yaml:"zoom"`
	Focus int `yaml:"focus"`
}

// Config aggregates the tool configuration.
type Config struct {
	Serial        SerialConfig `yaml:"serial"`
	Speed         int          `yaml:"speed"`           // initial feed rate
	StrictAcks    bool         `yaml:"strict_acks"`     // require literal "ok" on moves
	SettleDelayMs int          `yaml:"settle_delay_ms"` // homing settle time

	// Positions overrides the factory preset table, keyed by side name
	// ("left"/"right") then level name ("in"/"inter"/"out"). Sides or
	// levels left out keep their factory values.
	Positions map[string]map[string]PositionConfig `yaml:"positions"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Device:     "/dev/ttyACM0",
			BaudRate:   115200,
			TimeoutSec: 10,
		},
		Speed:         zoom.DefaultSpeed,
		SettleDelayMs: 1000,
	}
}

// Load reads a YAML file and returns the configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	if cfg.Serial.Device == "" {
		return nil, fmt.Errorf("serial.device is required")
	}
	if cfg.Serial.BaudRate <= 0 {
		cfg.Serial.BaudRate = 115200
	}
	if cfg.Serial.TimeoutSec <= 0 {
		cfg.Serial.TimeoutSec = 10
	}
	if cfg.Speed == 0 {
		cfg.Speed = zoom.DefaultSpeed
	}
	if cfg.Speed < zoom.SpeedMin || cfg.Speed > zoom.SpeedMax {
		return nil, fmt.Errorf("speed must be between %d and %d, got %d", zoom.SpeedMin, zoom.SpeedMax, cfg.Speed)
	}
	if cfg.SettleDelayMs <= 0 {
		cfg.SettleDelayMs = 1000
	}

	for sideName, levels := range cfg.Positions {
		if _, err := zoom.ParseSide(sideName); err != nil {
			return nil, fmt.Errorf("positions: %w", err)
		}
		for levelName := range levels {
			if _, err := zoom.ParseLevel(levelName); err != nil {
				return nil, fmt.Errorf("positions.%s: %w", sideName, err)
			}
		}
	}

	return cfg, nil
}

// DriverConfig translates the file values into driver construction
// parameters, applying position overrides on top of the factory table.
// Out-of-travel overrides are caught by the driver's calibration check.
func (c *Config) DriverConfig() zoom.Config {
	cal := zoom.DefaultCalibration()
	for sideName, levels := range c.Positions {
		side, _ := zoom.ParseSide(sideName)
		for levelName, pos := range levels {
			level, _ := zoom.ParseLevel(levelName)
			cal.Positions[side][level] = zoom.Position{Zoom: pos.Zoom, Focus: pos.Focus}
		}
	}

	return zoom.Config{
		Device:      c.Serial.Device,
		BaudRate:    c.Serial.BaudRate,
		ReadTimeout: time.Duration(c.Serial.TimeoutSec) * time.Second,
		Speed:       c.Speed,
		StrictAcks:  c.StrictAcks,
		SettleDelay: time.Duration(c.SettleDelayMs) * time.Millisecond,
		Calibration: &cal,
	}
}
