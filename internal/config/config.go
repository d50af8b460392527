package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	StaticDir string `yaml:"static_dir"`
}

// OpenLibraryConfig points at the search API and the covers CDN.
type OpenLibraryConfig struct {
	BaseURL        string `yaml:"base_url"`
	CoversURL      string `yaml:"covers_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// StorageConfig holds local persistence paths.
type StorageConfig struct {
	DatabasePath  string `yaml:"database_path"`
	CoverCacheDir string `yaml:"cover_cache_dir"`
}

// SessionConfig controls token signing and lifetime.
type SessionConfig struct {
	Secret   string `yaml:"secret"`
	TTLHours int    `yaml:"ttl_hours"`
}

// RateLimitConfig throttles requests per client IP.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// Config is the root of the configuration tree, mirroring bookscout.yaml.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	OpenLibrary OpenLibraryConfig `yaml:"openlibrary"`
	Storage     StorageConfig     `yaml:"storage"`
	Session     SessionConfig     `yaml:"session"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	LogLevel    string            `yaml:"log_level"`
}

// Default returns the configuration used when no file or overrides exist.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      8080,
			StaticDir: "./web/static",
		},
		OpenLibrary: OpenLibraryConfig{
			BaseURL:        "https://openlibrary.org",
			CoversURL:      "https://covers.openlibrary.org",
			TimeoutSeconds: 10,
		},
		Storage: StorageConfig{
			DatabasePath:  "./bookscout.db",
			CoverCacheDir: "./covers",
		},
		Session: SessionConfig{
			TTLHours: 24,
		},
		RateLimit: RateLimitConfig{
			PerSecond: 5,
			Burst:     20,
		},
		LogLevel: "info",
	}
}

// Load reads the YAML file at path, falling back to defaults when the file
// does not exist. Environment variables override both.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("BOOKSCOUT_CONFIG")
	}
	if path == "" {
		path = "bookscout.yaml"
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("BOOKSCOUT_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("BOOKSCOUT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("BOOKSCOUT_DB"); v != "" {
		cfg.Storage.DatabasePath = v
	}
	if v := os.Getenv("BOOKSCOUT_COVER_CACHE"); v != "" {
		cfg.Storage.CoverCacheDir = v
	}
	if v := os.Getenv("BOOKSCOUT_SESSION_SECRET"); v != "" {
		cfg.Session.Secret = v
	}
	if v := os.Getenv("BOOKSCOUT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("BOOKSCOUT_OPENLIBRARY_URL"); v != "" {
		cfg.OpenLibrary.BaseURL = v
	}
	if v := os.Getenv("BOOKSCOUT_COVERS_URL"); v != "" {
		cfg.OpenLibrary.CoversURL = v
	}
}

// Address returns host:port for the HTTP listener.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Timeout returns the OpenLibrary client timeout as a duration.
func (o OpenLibraryConfig) Timeout() time.Duration {
	if o.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(o.TimeoutSeconds) * time.Second
}

// TTL returns the session token lifetime.
func (s SessionConfig) TTL() time.Duration {
	if s.TTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(s.TTLHours) * time.Hour
}
