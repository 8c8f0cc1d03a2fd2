// Package config provides configuration for the go-rover binaries.
//
// Values come from an optional YAML file, then environment variables,
// then whatever the caller overrides from command line flags.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for the rover dashboard.
const (
	DefaultAPIURL          = "https://roverdata2-production.up.railway.app"
	DefaultPort            = "8501"
	DefaultRefreshInterval = 2 * time.Second
	DefaultHTTPTimeout     = 30 * time.Second
	DefaultLowBattery      = 10.0
	DefaultLogLevel        = "info"
)

// Config holds all dashboard configuration.
type Config struct {
	APIURL          string        `yaml:"api_url"`
	Port            string        `yaml:"port"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	HTTPTimeout     time.Duration `yaml:"http_timeout"`
	AutoMode        bool          `yaml:"auto_mode"`
	LowBattery      float64       `yaml:"low_battery"`
	LogLevel        string        `yaml:"log_level"`
	Seed            int64         `yaml:"seed"` // 0 picks a time-based seed
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		APIURL:          DefaultAPIURL,
		Port:            DefaultPort,
		RefreshInterval: DefaultRefreshInterval,
		HTTPTimeout:     DefaultHTTPTimeout,
		AutoMode:        true,
		LowBattery:      DefaultLowBattery,
		LogLevel:        DefaultLogLevel,
	}
}

// Load reads the YAML file at path (skipped when path is empty),
// applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.APIURL = getEnv("ROVER_API_URL", c.APIURL)
	c.Port = getEnv("PORT", c.Port)
	c.Port = getEnv("DASHBOARD_PORT", c.Port)
	c.RefreshInterval = getEnvDuration("REFRESH_INTERVAL", c.RefreshInterval)
	c.HTTPTimeout = getEnvDuration("HTTP_TIMEOUT", c.HTTPTimeout)
	c.AutoMode = getEnvBool("AUTO_MODE", c.AutoMode)
	c.LowBattery = getEnvFloat("LOW_BATTERY", c.LowBattery)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Seed = getEnvInt64("ROVER_SEED", c.Seed)
}

// Validate checks that all required configuration fields are usable.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("ROVER_API_URL cannot be empty")
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("ROVER_API_URL %q is not an absolute URL", c.APIURL)
	}
	if c.Port == "" {
		return errors.New("PORT cannot be empty")
	}
	if c.RefreshInterval <= 0 {
		return errors.New("REFRESH_INTERVAL must be > 0")
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("HTTP_TIMEOUT must be > 0")
	}
	if c.LowBattery < 0 || c.LowBattery > 100 {
		return fmt.Errorf("LOW_BATTERY must be within [0,100], got %v", c.LowBattery)
	}
	return nil
}

// Overrides carries command line values. Zero fields leave the
// configuration untouched.
type Overrides struct {
	APIURL string
	Port   string
	Manual bool
	Debug  bool
}

// Apply sets the overrides and validates the result again.
func (c *Config) Apply(o Overrides) error {
	if o.APIURL != "" {
		c.APIURL = o.APIURL
	}
	if o.Port != "" {
		c.Port = o.Port
	}
	if o.Manual {
		c.AutoMode = false
	}
	if o.Debug {
		c.LogLevel = "debug"
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

// APIBase returns the rover API URL without a trailing slash.
func (c *Config) APIBase() string {
	return strings.TrimRight(c.APIURL, "/")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvInt64(key string, fallback int64) int64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
