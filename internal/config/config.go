package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultLinkValidityDays = 7
	defaultMaxNameAttempts  = 1000
)

// Config represents the application configuration
type Config struct {
	Port             int     `mapstructure:"port"`
	BaseURL          string  `mapstructure:"base_url"`
	ShareRoot        string  `mapstructure:"share_root"`
	SQLitePath       string  `mapstructure:"sqlite_path"`
	MaxSize          float64 `mapstructure:"max_size_mib"`
	LinkValidityDays int     `mapstructure:"link_validity_days"`
	MaxNameAttempts  int     `mapstructure:"max_name_attempts"`
	JWTSecret        string  `mapstructure:"jwt_secret"`
	SweepEnabled     bool    `mapstructure:"sweep_enabled"`
	SweepIntervalMin int     `mapstructure:"sweep_interval_min"`
	ProbeAddress     string  `mapstructure:"probe_address"`
	ExternalIPURL    string  `mapstructure:"external_ip_url"`
	DeviceCacheSize  int     `mapstructure:"device_cache_size"`
	DeviceCacheTTLs  int     `mapstructure:"device_cache_ttl_sec"`
}

// LoadConfig reads the configuration from config.yaml and HOMEHUB_*
// environment variables, falling back to defaults for anything unset.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	v.SetEnvPrefix("homehub")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	v.SetDefault("port", 8080)
	v.SetDefault("base_url", "http://localhost:8080/")
	v.SetDefault("share_root", filepath.Join(home, "HomeHubShared"))
	v.SetDefault("sqlite_path", "./homehub.db")
	v.SetDefault("max_size_mib", 512.0)
	v.SetDefault("link_validity_days", defaultLinkValidityDays)
	v.SetDefault("max_name_attempts", defaultMaxNameAttempts)
	v.SetDefault("jwt_secret", "")
	v.SetDefault("sweep_enabled", true)
	v.SetDefault("sweep_interval_min", 60)
	v.SetDefault("probe_address", "8.8.8.8:53")
	v.SetDefault("external_ip_url", "https://api.ipify.org")
	v.SetDefault("device_cache_size", 256)
	v.SetDefault("device_cache_ttl_sec", 30)
}

// Validate checks the values that would otherwise fail far from here.
func (c *Config) Validate() error {
	if c.ShareRoot == "" {
		return fmt.Errorf("share_root must not be empty")
	}
	if c.LinkValidityDays <= 0 {
		return fmt.Errorf("link_validity_days must be greater than 0")
	}
	if c.MaxNameAttempts <= 0 {
		return fmt.Errorf("max_name_attempts must be greater than 0")
	}
	if c.SweepIntervalMin <= 0 {
		return fmt.Errorf("sweep_interval_min must be greater than 0")
	}
	return nil
}

func (c *Config) MaxSizeToBytes() int64 {
	return int64(c.MaxSize * 1024 * 1024)
}

// Print writes the effective configuration to w, with the JWT secret
// redacted.
func (c *Config) Print(w io.Writer) error {
	secret := "(unset)"
	if c.JWTSecret != "" {
		secret = "(redacted)"
	}

	_, err := fmt.Fprintf(w, `port:                 %d
base_url:             %s
share_root:           %s
sqlite_path:          %s
max_size_mib:         %g
link_validity_days:   %d
max_name_attempts:    %d
jwt_secret:           %s
sweep_enabled:        %t
sweep_interval_min:   %d
probe_address:        %s
external_ip_url:      %s
device_cache_size:    %d
device_cache_ttl_sec: %d
`,
		c.Port, c.BaseURL, c.ShareRoot, c.SQLitePath, c.MaxSize,
		c.LinkValidityDays, c.MaxNameAttempts, secret, c.SweepEnabled,
		c.SweepIntervalMin, c.ProbeAddress, c.ExternalIPURL,
		c.DeviceCacheSize, c.DeviceCacheTTLs)
	return err
}
