package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the goetrade tools.
type Config struct {
	ETrade  ETrade       `yaml:"etrade"`
	Storage Storage      `yaml:"storage"`
	Logging Logging      `yaml:"logging"`
	Record  RecordConfig `yaml:"record"`
}

// ETrade holds API consumer credentials, web login credentials for the
// automated browser flow, and environment selection.
type ETrade struct {
	ConsumerKey    string `yaml:"consumer_key"`
	ConsumerSecret string `yaml:"consumer_secret"`
	Sandbox        bool   `yaml:"sandbox"`
	WebUsername    string `yaml:"web_username"`
	WebPassword    string `yaml:"web_password"`
	Cookie         Cookie `yaml:"cookie"`
	Headless       bool   `yaml:"headless"`
}

// Cookie is the pre-captured web session cookie injected into the
// automated browser during login.
type Cookie struct {
	Name   string `yaml:"name"`
	Value  string `yaml:"value"`
	Domain string `yaml:"domain"`
}

// Storage holds paths for captured data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RecordConfig controls the quote recorder.
type RecordConfig struct {
	Symbols     []string `yaml:"symbols"`
	IntervalSec int      `yaml:"interval_sec"`
	// Backend is "sqlite", "parquet", or "both".
	Backend string `yaml:"backend"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, and then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ETRADE_CONSUMER_KEY"); v != "" {
		cfg.ETrade.ConsumerKey = v
	}
	if v := os.Getenv("ETRADE_CONSUMER_SECRET"); v != "" {
		cfg.ETrade.ConsumerSecret = v
	}
	if v := os.Getenv("ETRADE_WEB_USERNAME"); v != "" {
		cfg.ETrade.WebUsername = v
	}
	if v := os.Getenv("ETRADE_WEB_PASSWORD"); v != "" {
		cfg.ETrade.WebPassword = v
	}
	if v := os.Getenv("ETRADE_COOKIE_NAME"); v != "" {
		cfg.ETrade.Cookie.Name = v
	}
	if v := os.Getenv("ETRADE_COOKIE_VALUE"); v != "" {
		cfg.ETrade.Cookie.Value = v
	}
	if v := os.Getenv("ETRADE_COOKIE_DOMAIN"); v != "" {
		cfg.ETrade.Cookie.Domain = v
	}
	if v := os.Getenv("ETRADE_SANDBOX"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.ETrade.Sandbox = b
		}
	}

	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
