package robot

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gwillem/roomba/pkg/oi"
)

// DefaultConfigFile is used when --config is not given.
const DefaultConfigFile = "roomba.json"

// Config holds the robot and ingestion configuration
type Config struct {
	Port         string      `json:"port"`
	BaudRate     int         `json:"baud_rate,omitempty"`
	Mode         string      `json:"mode,omitempty"`
	DefaultSpeed int         `json:"default_speed,omitempty"`
	Calibration  Calibration `json:"calibration"`

	Server      ServerConfig `json:"server"`
	MQTT        MQTTConfig   `json:"mqtt"`
	MetricsAddr string       `json:"metrics_addr,omitempty"`
}

// ServerConfig is the move-sequence server the client dials
type ServerConfig struct {
	Address string `json:"address,omitempty"`
}

// MQTTConfig selects MQTT as the sequence source
type MQTTConfig struct {
	Broker   string `json:"broker,omitempty"`
	Topic    string `json:"topic,omitempty"`
	ClientID string `json:"client_id,omitempty"`
}

// DefaultConfig returns a configuration with factory values
func DefaultConfig() *Config {
	return &Config{
		BaudRate:     DefaultBaudRate,
		Mode:         oi.ModeFull.String(),
		DefaultSpeed: DefaultSpeed,
		Calibration:  DefaultCalibration(),
	}
}

func (c *Config) calibration() Calibration {
	if c.Calibration.IsZero() {
		return DefaultCalibration()
	}
	return c.Calibration
}

// Validate checks the robot section of the configuration
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("no serial port configured")
	}
	if _, err := oi.ParseMode(c.Mode); err != nil {
		return err
	}
	if c.DefaultSpeed < 0 || c.DefaultSpeed > oi.MaxVelocity {
		return fmt.Errorf("default speed %d out of range [0, %d]", c.DefaultSpeed, oi.MaxVelocity)
	}
	return c.calibration().Validate()
}

// LoadConfigFrom loads configuration from a specific file
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
