// Package config loads the nfiofs configuration: CLI flags (highest
// precedence), an optional YAML file, then defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the validated configuration for an nfiofs mount.
type Config struct {
	// NfioRoot is the backing directory the dispatcher serves from.
	NfioRoot string `mapstructure:"nfio_root" validate:"required" yaml:"nfio_root"`

	// NfioMount is the mountpoint the FUSE loop is bound to.
	NfioMount string `mapstructure:"nfio_mount" validate:"required" yaml:"nfio_mount"`

	// Hypervisor names the registered driver backend: docker or libvirt.
	Hypervisor string `mapstructure:"hypervisor" validate:"required,oneof=docker libvirt" yaml:"hypervisor"`

	// MiddleboxModuleRoot, if set, is scanned for additional type-handler
	// plug-ins beyond the built-in middlebox package.
	MiddleboxModuleRoot string `mapstructure:"middlebox_module_root" yaml:"middlebox_module_root,omitempty"`

	// LogLevel is one of debug|info|warning|error|critical.
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warning error critical" yaml:"log_level"`

	Metrics    MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry" yaml:"telemetry"`
	ImageFetch ImageFetchConfig `mapstructure:"image_fetch" yaml:"image_fetch"`
}

// MetricsConfig controls the Prometheus metrics/health HTTP server.
type MetricsConfig struct {
	// Addr is the listen address (e.g. ":9090"); empty disables the server.
	Addr string `mapstructure:"addr" yaml:"addr,omitempty"`
}

// TelemetryConfig controls OpenTelemetry tracing and pyroscope profiling.
type TelemetryConfig struct {
	Enabled    bool            `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string          `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	Insecure   bool            `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64         `mapstructure:"sample_rate" yaml:"sample_rate"`
	Profiling  ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls grafana/pyroscope-go continuous profiling.
type ProfilingConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
	Endpoint     string   `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types,omitempty"`
}

// ImageFetchConfig controls resolving s3:// vm.image values to a local
// file via pkg/imagefetch before deploy.
type ImageFetchConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Region   string `mapstructure:"region" yaml:"region,omitempty"`
	CacheDir string `mapstructure:"cache_dir" yaml:"cache_dir,omitempty"`
}

var validate = validator.New()

// Load reads configuration from configPath (or the default XDG location if
// empty) and decodes it over the defaults. It does not validate the result:
// the caller fills in NfioRoot/NfioMount/Hypervisor from flags and then
// calls Validate. A missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	cfg := Default()

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}
	if found {
		if err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.StringToTimeDurationHookFunc())); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	}

	return cfg, nil
}

// Validate runs struct-tag validation over cfg.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Default returns a Config with every ambient default applied. NfioRoot,
// NfioMount are left empty: the caller (CLI flags) must supply them.
func Default() *Config {
	return &Config{
		Hypervisor:          "docker",
		MiddleboxModuleRoot: "middleboxes",
		LogLevel:            "info",
		Telemetry: TelemetryConfig{
			Endpoint:   "localhost:4317",
			SampleRate: 1.0,
			Profiling: ProfilingConfig{
				Endpoint:     "http://localhost:4040",
				ProfileTypes: []string{"cpu"},
			},
		},
	}
}

// Save writes cfg to path as YAML, creating parent directories as needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("NFIOFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(DefaultConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read config file: %w", err)
	}
	return true, nil
}

// DefaultConfigDir returns $XDG_CONFIG_HOME/nfiofs, falling back to
// ~/.config/nfiofs.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "nfiofs")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "nfiofs")
}

// DefaultConfigPath returns the default config.yaml location.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}
