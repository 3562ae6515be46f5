// Package config holds the run options of the windsim CLI: a yaml profile
// with defaults, overlaid by WINDSIM_* environment variables and command
// line flags through viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDataDir      = "data"
	DefaultLogLevel     = "info"
	DefaultRole         = "single"
	DefaultPollInterval = time.Second
	EnvPrefix           = "windsim"
)

type Config struct {
	Params      string          `yaml:"params"`
	Preset      string          `yaml:"preset"`
	Logging     bool            `yaml:"logging"`
	DataDir     string          `yaml:"data_dir"`
	Role        string          `yaml:"role"`
	ParentPID   int             `yaml:"parent_pid"`
	LogLevel    string          `yaml:"log_level"`
	MetricsAddr string          `yaml:"metrics_addr"`
	Supervise   SuperviseConfig `yaml:"supervise"`
}

type SuperviseConfig struct {
	Interval time.Duration `yaml:"interval"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir:  DefaultDataDir,
		Role:     DefaultRole,
		LogLevel: DefaultLogLevel,
		Supervise: SuperviseConfig{
			Interval: DefaultPollInterval,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadDotEnv reads KEY=value pairs from path into the environment. A
// missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// NewViper returns a viper instance reading WINDSIM_* variables, with
// dashes in keys mapped to underscores.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Resolve builds the effective configuration: defaults, then the profile
// named by the "profile" key, then every key explicitly set in v.
func Resolve(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	if path := v.GetString("profile"); path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, fmt.Errorf("profile: %w", err)
		}
		cfg = loaded
	}
	if v.IsSet("params") {
		cfg.Params = v.GetString("params")
	}
	if v.IsSet("preset") {
		cfg.Preset = v.GetString("preset")
	}
	if v.IsSet("logging") {
		cfg.Logging = v.GetInt("logging") != 0
	}
	if v.IsSet("data") {
		cfg.DataDir = v.GetString("data")
	}
	if v.IsSet("role") {
		cfg.Role = v.GetString("role")
	}
	if v.IsSet("parentpid") {
		cfg.ParentPID = v.GetInt("parentpid")
	}
	if v.IsSet("log-level") {
		cfg.LogLevel = v.GetString("log-level")
	}
	if v.IsSet("metrics-addr") {
		cfg.MetricsAddr = v.GetString("metrics-addr")
	}
	if v.IsSet("poll-interval") {
		cfg.Supervise.Interval = v.GetDuration("poll-interval")
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.Params == "" && c.Preset == "" {
		return errors.New("config: a parameter file or preset is required")
	}
	if c.Params != "" && c.Preset != "" {
		return errors.New("config: params and preset are mutually exclusive")
	}
	if c.Preset != "" {
		if _, ok := Presets[c.Preset]; !ok {
			return fmt.Errorf("config: unknown preset %q (valid: %s)", c.Preset, strings.Join(PresetNames(), ", "))
		}
	}
	if c.Supervise.Interval <= 0 {
		return fmt.Errorf("config: supervise interval must be positive, got %v", c.Supervise.Interval)
	}
	return nil
}
