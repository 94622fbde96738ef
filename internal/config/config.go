package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the niftydesk client.
type Config struct {
	Remote  Remote  `yaml:"remote"`
	Storage Storage `yaml:"storage"`
	Logging Logging `yaml:"logging"`
	Feed    Feed    `yaml:"feed"`
}

// Remote holds the endpoints of the advisor service. The auth origin is kept
// separate from the API base because deployments have been observed to serve
// the auth routes from a different origin.
type Remote struct {
	BaseURL string `yaml:"base_url"`
	AuthURL string `yaml:"auth_url"`
	WSURL   string `yaml:"ws_url"`
}

// Storage holds paths for local persistence.
type Storage struct {
	SessionPath string `yaml:"session_path"`
}

// Logging configures the application logger. The TUI owns the terminal, so
// logs go to a file.
type Logging struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Feed controls the live price feed reconnect policy.
type Feed struct {
	MaxAttempts int `yaml:"max_attempts"`
	BaseDelayMS int `yaml:"base_delay_ms"`
}

// BaseDelay returns the reconnect base delay as a duration.
func (f Feed) BaseDelay() time.Duration {
	return time.Duration(f.BaseDelayMS) * time.Millisecond
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Default returns a Config populated with defaults suitable for running
// against a local advisor service.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Remote: Remote{
			BaseURL: "http://127.0.0.1:9000",
			WSURL:   "ws://127.0.0.1:9000/ws/prices",
		},
		Storage: Storage{
			SessionPath: filepath.Join(home, ".niftydesk", "session.db"),
		},
		Logging: Logging{
			Level: "info",
			File:  filepath.Join(os.TempDir(), "niftydesk.log"),
		},
		Feed: Feed{
			MaxAttempts: 5,
			BaseDelayMS: 2000,
		},
	}
}

// Load reads the YAML configuration file at the given path, parses it over
// the defaults, and then applies environment variable overrides. A missing
// file is not an error; defaults plus env vars apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	applyEnvOverrides(cfg)

	// Auth routes default to the API origin unless configured otherwise.
	if cfg.Remote.AuthURL == "" {
		cfg.Remote.AuthURL = cfg.Remote.BaseURL
	}

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("API_BASE_URL"); v != "" {
		cfg.Remote.BaseURL = v
	}
	if v := os.Getenv("AUTH_BASE_URL"); v != "" {
		cfg.Remote.AuthURL = v
	}
	if v := os.Getenv("WS_URL"); v != "" {
		cfg.Remote.WSURL = v
	}
	if v := os.Getenv("SESSION_PATH"); v != "" {
		cfg.Storage.SessionPath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}
	if v := os.Getenv("FEED_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Feed.MaxAttempts = n
		}
	}
}
