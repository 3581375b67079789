package base

import (
	"encoding/json"
	"os"
)

const DefaultConfigFile = "basectl.json"

// Speeds commanded per pressed key.
const (
	DefaultLinearSpeed  = 0.1 // m/s
	DefaultAngularSpeed = 0.5 // rad/s
)

// Config holds the connection and driving configuration
type Config struct {
	URL          string  `json:"url"`
	LinearSpeed  float32 `json:"linear_speed,omitempty"`
	AngularSpeed float32 `json:"angular_speed,omitempty"`
}

// DefaultConfig returns a config with the default speeds and no URL
func DefaultConfig() *Config {
	return &Config{
		LinearSpeed:  DefaultLinearSpeed,
		AngularSpeed: DefaultAngularSpeed,
	}
}

// LoadConfig loads configuration from the default config file
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultConfigFile)
}

// LoadConfigFrom loads configuration from a specific file.
// Missing speeds fall back to the defaults.
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.LinearSpeed == 0 {
		cfg.LinearSpeed = DefaultLinearSpeed
	}
	if cfg.AngularSpeed == 0 {
		cfg.AngularSpeed = DefaultAngularSpeed
	}
	return &cfg, nil
}

// Save saves configuration to the default config file
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigFile)
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ConfigExists returns true if the default config file exists
func ConfigExists() bool {
	_, err := os.Stat(DefaultConfigFile)
	return err == nil
}
