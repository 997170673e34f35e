// Package config loads the YAML defaults shared by the snapgpx CLI and the
// HTTP server.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the full configuration file.
type Config struct {
	Snap   SnapConfig   `yaml:"snap"`
	Output OutputConfig `yaml:"output"`
	Server ServerConfig `yaml:"server"`
}

// SnapConfig holds the snapping defaults.
type SnapConfig struct {
	MaxDistance    float64 `yaml:"max_distance" validate:"gte=0"`
	Mode           string  `yaml:"mode" validate:"oneof=add move"`
	IndexThreshold int     `yaml:"index_threshold" validate:"gte=0"`
}

// OutputConfig controls how results are written.
type OutputConfig struct {
	Overwrite bool   `yaml:"overwrite"`
	Version   string `yaml:"gpx_version" validate:"omitempty,oneof=1.0 1.1"`
	Creator   string `yaml:"creator"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port          int    `yaml:"port" validate:"gt=0,lte=65535"`
	MaxBodyBytes  int64  `yaml:"max_body_bytes" validate:"gt=0"`
	MaxConcurrent int    `yaml:"max_concurrent" validate:"gte=0"`
	CORSOrigin    string `yaml:"cors_origin"`
	TimeoutMS     int    `yaml:"timeout_ms" validate:"gt=0"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Snap: SnapConfig{
			MaxDistance:    100,
			Mode:           "add",
			IndexThreshold: 512,
		},
		Output: OutputConfig{
			Creator: "snapgpx",
		},
		Server: ServerConfig{
			Port:         8080,
			MaxBodyBytes: 32 << 20,
			TimeoutMS:    30_000,
		},
	}
}

// Load reads path over the defaults and validates the result. Keys missing
// from the file keep their default value.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every section against its validate tags.
func (c Config) Validate() error {
	return validator.New().Struct(c)
}
