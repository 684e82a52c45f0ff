package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines client configuration.
type Config struct {
	API          APIConfig          `yaml:"api"`
	Storage      StorageConfig      `yaml:"storage"`
	DB           DBConfig           `yaml:"db"`
	Reachability ReachabilityConfig `yaml:"reachability"`
	Log          LogConfig          `yaml:"log"`
}

type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	// Timeout of zero leaves requests bounded only by their context.
	Timeout time.Duration `yaml:"timeout"`
}

type StorageConfig struct {
	DataDir        string `yaml:"data_dir"`
	LegacyCacheDir string `yaml:"legacy_cache_dir"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type ReachabilityConfig struct {
	ProbeAddress   string        `yaml:"probe_address"`
	Interval       time.Duration `yaml:"interval"`
	InitialTimeout time.Duration `yaml:"initial_timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// CacheDir is where cache entries live.
func (c Config) CacheDir() string {
	return filepath.Join(c.Storage.DataDir, "cache")
}

// Load reads configuration from an optional YAML file and environment
// variables. path overrides SITESYNC_CONFIG_PATH when set.
func Load(path string) (Config, error) {
	cfg := Config{
		API: APIConfig{
			BaseURL: "https://api.example.com",
		},
		Storage: StorageConfig{
			DataDir: "./data",
		},
		Reachability: ReachabilityConfig{
			Interval:       10 * time.Second,
			InitialTimeout: 5 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}

	if path == "" {
		path = os.Getenv("SITESYNC_CONFIG_PATH")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if v := os.Getenv("SITESYNC_API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if err := envDuration("SITESYNC_API_TIMEOUT", &cfg.API.Timeout); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("SITESYNC_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SITESYNC_LEGACY_CACHE_DIR"); v != "" {
		cfg.Storage.LegacyCacheDir = v
	}
	if v := os.Getenv("SITESYNC_DB_PATH"); v != "" {
		cfg.DB.Path = v
	}
	if v := os.Getenv("SITESYNC_PROBE_ADDRESS"); v != "" {
		cfg.Reachability.ProbeAddress = v
	}
	if err := envDuration("SITESYNC_PROBE_INTERVAL", &cfg.Reachability.Interval); err != nil {
		return Config{}, err
	}
	if err := envDuration("SITESYNC_INITIAL_TIMEOUT", &cfg.Reachability.InitialTimeout); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("SITESYNC_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SITESYNC_LOG_PATH"); v != "" {
		cfg.Log.Path = v
	}

	if cfg.DB.Path == "" {
		cfg.DB.Path = filepath.Join(cfg.Storage.DataDir, "sitesync.db")
	}
	if cfg.Reachability.ProbeAddress == "" {
		addr, err := probeAddress(cfg.API.BaseURL)
		if err != nil {
			return Config{}, err
		}
		cfg.Reachability.ProbeAddress = addr
	}
	if cfg.Reachability.Interval <= 0 {
		return Config{}, fmt.Errorf("reachability.interval must be positive, got %s", cfg.Reachability.Interval)
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func envDuration(name string, dst *time.Duration) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = d
	return nil
}

// probeAddress derives host:port from the API base URL.
func probeAddress(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid api.base_url %q", baseURL)
	}
	if u.Port() != "" {
		return u.Host, nil
	}
	port := "443"
	if u.Scheme == "http" {
		port = "80"
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}
