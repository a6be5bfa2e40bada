// Package config loads settings for the accelerator tools from defaults, an
// optional YAML/JSON file and SHAMIR_ACCEL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Davincible/shamir-accel/pkg/crypto/gf"
)

// EnvPrefix prefixes every environment override, e.g.
// SHAMIR_ACCEL_DRIVER_MAX_POLLS.
const EnvPrefix = "SHAMIR_ACCEL"

// Config represents the main configuration structure
type Config struct {
	Device  DeviceConfig  `mapstructure:"device"`
	Driver  DriverConfig  `mapstructure:"driver"`
	Log     LogConfig     `mapstructure:"log"`
	UI      UIConfig      `mapstructure:"ui"`
	Storage StorageConfig `mapstructure:"storage"`
}

// DeviceConfig configures the accelerator model
type DeviceConfig struct {
	Lanes int    `mapstructure:"lanes"` // Brute-force candidates per tick
	Field string `mapstructure:"field"` // Default field for commands
}

// DriverConfig configures how the host waits on the device
type DriverConfig struct {
	MaxPolls   int     `mapstructure:"max_polls"`
	PollRate   float64 `mapstructure:"poll_rate"` // Polls per second, 0 = unlimited
	PollBurst  int     `mapstructure:"poll_burst"`
	Interrupts bool    `mapstructure:"interrupts"`
}

// LogConfig selects the slog handler
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// UIConfig contains user interface settings
type UIConfig struct {
	Color bool `mapstructure:"color"`
}

// StorageConfig contains settings for encrypted share files
type StorageConfig struct {
	Iterations int `mapstructure:"iterations"` // PBKDF2 iterations for new files
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			Lanes: 1,
			Field: "gf8",
		},
		Driver: DriverConfig{
			MaxPolls:  100000,
			PollRate:  0,
			PollBurst: 1,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "json",
		},
		UI: UIConfig{
			Color: true,
		},
		Storage: StorageConfig{
			Iterations: 100000,
		},
	}
}

// Load reads the configuration. An explicit path must exist; otherwise the
// default location is used when present.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvPrefix + "_CONFIG")
		explicit = path != ""
	}
	if !explicit {
		p, err := defaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
		if explicit || !missing {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Device.Lanes < 1 {
		return fmt.Errorf("device.lanes must be at least 1, got %d", c.Device.Lanes)
	}
	if _, err := gf.ParseField(c.Device.Field); err != nil {
		return fmt.Errorf("device.field: %w", err)
	}
	if c.Driver.MaxPolls < 1 {
		return fmt.Errorf("driver.max_polls must be at least 1, got %d", c.Driver.MaxPolls)
	}
	if c.Driver.PollRate < 0 {
		return fmt.Errorf("driver.poll_rate cannot be negative, got %g", c.Driver.PollRate)
	}
	if c.Driver.PollBurst < 1 {
		return fmt.Errorf("driver.poll_burst must be at least 1, got %d", c.Driver.PollBurst)
	}
	if c.Storage.Iterations < 1 {
		return fmt.Errorf("storage.iterations must be at least 1, got %d", c.Storage.Iterations)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("device.lanes", d.Device.Lanes)
	v.SetDefault("device.field", d.Device.Field)
	v.SetDefault("driver.max_polls", d.Driver.MaxPolls)
	v.SetDefault("driver.poll_rate", d.Driver.PollRate)
	v.SetDefault("driver.poll_burst", d.Driver.PollBurst)
	v.SetDefault("driver.interrupts", d.Driver.Interrupts)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("ui.color", d.UI.Color)
	v.SetDefault("storage.iterations", d.Storage.Iterations)
}

// defaultPath returns $XDG_CONFIG_HOME/shamir-accel/config.yaml, falling
// back to ~/.config.
func defaultPath() (string, error) {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "shamir-accel", "config.yaml"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "shamir-accel", "config.yaml"), nil
}
