package exnest

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the production gateway endpoint.
const DefaultBaseURL = "https://api.exnest.app/v1"

// Default engine knobs, matching the gateway's documented client settings.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = 1 * time.Second
)

// Config holds the long-lived client settings. A Config is immutable once a
// Client has taken it: reconfiguration publishes a fresh snapshot and
// in-flight requests keep the one they started with.
type Config struct {
	// BaseURL is the gateway root, without a trailing slash.
	BaseURL string

	// APIKey is the bearer credential attached to every request.
	APIKey string

	// Timeout bounds one buffered attempt. Streaming calls use it only for
	// connection establishment.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first try, so the total
	// try budget is MaxRetries+1. Zero means the default; use a negative
	// value to disable retries entirely.
	MaxRetries int

	// RetryDelay is the linear backoff base: the wait before retry n is
	// RetryDelay × n.
	RetryDelay time.Duration

	// Debug enables verbose request/response logging.
	Debug bool

	// UserAgent overrides the default client identification header.
	UserAgent string

	// LoggingToFile redirects SDK logs into a rotated file under LogDir.
	LoggingToFile bool

	// LogDir is the log file directory when LoggingToFile is set.
	LogDir string
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	} else if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	return c
}

func (c *Config) validate() error {
	if c.APIKey == "" {
		return &ValidationError{Field: "config", Reason: "API key is required"}
	}
	return nil
}

// ConfigView is the redacted form of the active configuration, safe to log
// or expose. The credential is reduced to a fixed-length masked suffix.
type ConfigView struct {
	BaseURL    string        `json:"base_url"`
	APIKey     string        `json:"api_key"`
	Timeout    time.Duration `json:"timeout"`
	MaxRetries int           `json:"max_retries"`
	RetryDelay time.Duration `json:"retry_delay"`
	Debug      bool          `json:"debug"`
}

func (c Config) view() ConfigView {
	return ConfigView{
		BaseURL:    c.BaseURL,
		APIKey:     maskAPIKey(c.APIKey),
		Timeout:    c.Timeout,
		MaxRetries: c.MaxRetries,
		RetryDelay: c.RetryDelay,
		Debug:      c.Debug,
	}
}

func maskAPIKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

// Update describes a partial reconfiguration. Nil fields keep their current
// value. The change takes effect on the next request.
type Update struct {
	APIKey     *string
	BaseURL    *string
	Timeout    *time.Duration
	MaxRetries *int
	RetryDelay *time.Duration
	Debug      *bool
}

func (u Update) apply(c Config) Config {
	if u.APIKey != nil {
		c.APIKey = *u.APIKey
	}
	if u.BaseURL != nil {
		c.BaseURL = *u.BaseURL
	}
	if u.Timeout != nil {
		c.Timeout = *u.Timeout
	}
	if u.MaxRetries != nil {
		c.MaxRetries = *u.MaxRetries
	}
	if u.RetryDelay != nil {
		c.RetryDelay = *u.RetryDelay
	}
	if u.Debug != nil {
		c.Debug = *u.Debug
	}
	return c.withDefaults()
}

// ConfigFromEnv builds a Config from EXNEST_* environment variables,
// loading a .env file first when one is present. Durations are given in
// milliseconds to match the gateway's other SDKs.
//
//	EXNEST_API_KEY, EXNEST_BASE_URL, EXNEST_TIMEOUT_MS,
//	EXNEST_MAX_RETRIES, EXNEST_RETRY_DELAY_MS, EXNEST_DEBUG
func ConfigFromEnv() Config {
	_ = godotenv.Load()

	cfg := Config{
		APIKey:  os.Getenv("EXNEST_API_KEY"),
		BaseURL: os.Getenv("EXNEST_BASE_URL"),
	}
	if v := os.Getenv("EXNEST_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.Timeout = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("EXNEST_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			if n <= 0 {
				cfg.MaxRetries = -1
			} else {
				cfg.MaxRetries = n
			}
		}
	}
	if v := os.Getenv("EXNEST_RETRY_DELAY_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.RetryDelay = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("EXNEST_DEBUG"); v != "" {
		cfg.Debug, _ = strconv.ParseBool(v)
	}
	return cfg.withDefaults()
}

// fileConfig is the YAML form of Config. Durations are in milliseconds.
type fileConfig struct {
	BaseURL      string `yaml:"base-url"`
	APIKey       string `yaml:"api-key"`
	TimeoutMS    int    `yaml:"timeout-ms"`
	MaxRetries   *int   `yaml:"max-retries"`
	RetryDelayMS int    `yaml:"retry-delay-ms"`
	Debug        bool   `yaml:"debug"`
	LogToFile    bool   `yaml:"logging-to-file"`
	LogDir       string `yaml:"log-dir"`
}

func (f fileConfig) config() Config {
	cfg := Config{
		BaseURL:       f.BaseURL,
		APIKey:        f.APIKey,
		Debug:         f.Debug,
		LoggingToFile: f.LogToFile,
		LogDir:        f.LogDir,
	}
	if f.TimeoutMS > 0 {
		cfg.Timeout = time.Duration(f.TimeoutMS) * time.Millisecond
	}
	if f.MaxRetries != nil {
		if *f.MaxRetries <= 0 {
			cfg.MaxRetries = -1
		} else {
			cfg.MaxRetries = *f.MaxRetries
		}
	}
	if f.RetryDelayMS > 0 {
		cfg.RetryDelay = time.Duration(f.RetryDelayMS) * time.Millisecond
	}
	return cfg.withDefaults()
}

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("exnest: read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("exnest: parse config file: %w", err)
	}
	return fc.config(), nil
}
