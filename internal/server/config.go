package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/finance-montecarlo/internal/config"
	"github.com/iwvelando/finance-montecarlo/pkg/constants"
	"gopkg.in/yaml.v3"
)

// Config defines runtime parameters for the HTTP API.
type Config struct {
	Address       string               `yaml:"address"`
	MaxUploadSize string               `yaml:"maxUploadSize"`
	RunTimeout    string               `yaml:"runTimeout"`
	MaxIterations int                  `yaml:"maxIterations"`
	Logging       config.LoggingConfig `yaml:"logging"`

	uploadSizeBytes int64
	runTimeout      time.Duration
}

// sizeUnits maps upload size suffixes to byte multipliers, longest first so
// "KB" is matched before "B".
var sizeUnits = []struct {
	suffix     string
	multiplier int64
}{
	{"KB", 1 << 10},
	{"MB", 1 << 20},
	{"GB", 1 << 30},
	{"K", 1 << 10},
	{"M", 1 << 20},
	{"G", 1 << 30},
	{"B", 1},
}

// LoadConfig loads the server configuration from YAML. A missing file yields
// the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{Address: constants.DefaultServerAddress}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read server config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse server config: %w", err)
			}
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UploadSizeBytes returns the configured upload size in bytes.
func (c *Config) UploadSizeBytes() int64 {
	return c.uploadSizeBytes
}

// RunTimeoutDuration returns the bound on a single API run, or 0 for none.
func (c *Config) RunTimeoutDuration() time.Duration {
	return c.runTimeout
}

func (c *Config) normalize() error {
	if c.Address == "" {
		c.Address = constants.DefaultServerAddress
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("maxIterations must not be negative, got %d", c.MaxIterations)
	}

	if timeout := strings.TrimSpace(c.RunTimeout); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid runTimeout %q: %w", c.RunTimeout, err)
		}
		if d < 0 {
			return fmt.Errorf("runTimeout must not be negative, got %s", c.RunTimeout)
		}
		c.runTimeout = d
	}

	size, err := ParseSize(c.MaxUploadSize)
	if err != nil {
		return err
	}
	if size <= 0 {
		size = constants.DefaultMaxUploadSizeBytes
	}
	c.uploadSizeBytes = size
	return nil
}

// ParseSize converts a byte count with an optional unit ("256K", "10MB") into
// bytes. An empty value yields the default upload size.
func ParseSize(value string) (int64, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	if trimmed == "" {
		return constants.DefaultMaxUploadSizeBytes, nil
	}

	multiplier := int64(1)
	for _, unit := range sizeUnits {
		if strings.HasSuffix(trimmed, unit.suffix) {
			trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, unit.suffix))
			multiplier = unit.multiplier
			break
		}
	}

	n, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", value, err)
	}
	if n > 0 && n > (1<<63-1)/multiplier {
		return 0, fmt.Errorf("size overflow for value %s", value)
	}
	return n * multiplier, nil
}
