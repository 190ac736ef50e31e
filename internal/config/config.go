// Package config handles application configuration
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed config.sample.yaml
var sampleConfig string

// GetSampleConfig returns the embedded sample configuration content
func GetSampleConfig() string {
	return sampleConfig
}

const (
	DefaultBaseURL       = "http://localhost:3030/api/tasks"
	DefaultAuthURL       = "http://localhost:3030/api/auth"
	DefaultRetentionDays = 365
	appDir               = "taskboard"
)

// Environment variables recognised by ApplyEnv
const (
	EnvAPIURL           = "TASKBOARD_API_URL"
	EnvAuthURL          = "TASKBOARD_AUTH_URL"
	EnvAnalyticsEnabled = "TASKBOARD_ANALYTICS_ENABLED"
	EnvLogFile          = "TASKBOARD_LOG_FILE"
)

// Config represents the application configuration
type Config struct {
	API          APIConfig       `yaml:"api"`
	UI           UIConfig        `yaml:"ui"`
	OutputFormat string          `yaml:"output_format"`
	Logging      LoggingConfig   `yaml:"logging"`
	Analytics    AnalyticsConfig `yaml:"analytics"`
}

// APIConfig holds the remote service endpoints
type APIConfig struct {
	BaseURL        string `yaml:"base_url"`
	AuthURL        string `yaml:"auth_url"`
	RequestTimeout string `yaml:"request_timeout"` // e.g. "10s"; empty means none
}

// UIConfig holds user interface settings
type UIConfig struct {
	DefaultTheme  string `yaml:"default_theme"`
	ConfirmDelete *bool  `yaml:"confirm_delete"` // default: true
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	File    string `yaml:"file"`
	Verbose bool   `yaml:"verbose"`
}

// AnalyticsConfig holds analytics settings
type AnalyticsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	RetentionDays int    `yaml:"retention_days"`
	Path          string `yaml:"path"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: DefaultBaseURL,
			AuthURL: DefaultAuthURL,
		},
		UI: UIConfig{
			DefaultTheme: "dark",
		},
		OutputFormat: "text",
		Analytics: AnalyticsConfig{
			Enabled:       true,
			RetentionDays: DefaultRetentionDays,
		},
	}
}

// DefaultPath returns the config file location
func DefaultPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// Load loads configuration from the specified path, or the default XDG path if empty.
// If the config file doesn't exist, it creates one from the sample.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultPath()
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := writeSample(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML and fills unset fields with defaults
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in config file: %w", err)
	}

	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "text"
	}
	if cfg.UI.DefaultTheme == "" {
		cfg.UI.DefaultTheme = "dark"
	}
	cfg.Logging.File = ExpandPath(cfg.Logging.File)
	cfg.Analytics.Path = ExpandPath(cfg.Analytics.Path)

	return cfg, nil
}

// writeSample writes the documented sample config to path
func writeSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.OutputFormat != "text" && c.OutputFormat != "json" {
		return fmt.Errorf("invalid output_format: %q (must be 'text' or 'json')", c.OutputFormat)
	}

	if err := validateURL("api.base_url", c.API.BaseURL); err != nil {
		return err
	}
	if err := validateURL("api.auth_url", c.API.AuthURL); err != nil {
		return err
	}

	if c.API.RequestTimeout != "" {
		d, err := time.ParseDuration(c.API.RequestTimeout)
		if err != nil {
			return fmt.Errorf("invalid duration for api.request_timeout: %q", c.API.RequestTimeout)
		}
		if d < 0 {
			return fmt.Errorf("api.request_timeout must not be negative, got %q", c.API.RequestTimeout)
		}
	}

	if c.UI.DefaultTheme != "light" && c.UI.DefaultTheme != "dark" {
		return fmt.Errorf("invalid ui.default_theme: %q (must be 'light' or 'dark')", c.UI.DefaultTheme)
	}

	if c.Analytics.RetentionDays < 0 {
		return errors.New("analytics.retention_days must not be negative")
	}

	return nil
}

func validateURL(key, raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid %s: %q (must be an http or https URL)", key, raw)
	}
	return nil
}

// ReadEnv collects TASKBOARD_* settings from a .env file (if present) and
// the process environment. Process variables win over the file.
func ReadEnv(dotenvPath string) (map[string]string, error) {
	env := map[string]string{}

	if dotenvPath != "" {
		fileEnv, err := godotenv.Read(dotenvPath)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read %s: %w", dotenvPath, err)
		}
		for k, v := range fileEnv {
			if strings.HasPrefix(k, "TASKBOARD_") {
				env[k] = v
			}
		}
	}

	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(k, "TASKBOARD_") {
			env[k] = v
		}
	}
	return env, nil
}

// ApplyEnv applies environment overrides to the configuration
func (c *Config) ApplyEnv(env map[string]string) error {
	if v := strings.TrimSpace(env[EnvAPIURL]); v != "" {
		c.API.BaseURL = v
		if env[EnvAuthURL] == "" {
			c.API.AuthURL = ""
		}
	}
	if v := strings.TrimSpace(env[EnvAuthURL]); v != "" {
		c.API.AuthURL = v
	}
	if v := strings.TrimSpace(env[EnvLogFile]); v != "" {
		c.Logging.File = ExpandPath(v)
	}
	if v := strings.TrimSpace(env[EnvAnalyticsEnabled]); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %q", EnvAnalyticsEnabled, v)
		}
		c.Analytics.Enabled = enabled
	}
	return nil
}

// ApplyFlags applies CLI flag overrides to the configuration.
// A new API URL without an explicit auth URL re-derives the auth URL.
func (c *Config) ApplyFlags(apiURL string, verbose bool) {
	if apiURL != "" {
		c.API.BaseURL = apiURL
		c.API.AuthURL = ""
	}
	if verbose {
		c.Logging.Verbose = true
	}
}

// GetBaseURL returns the task collection URL
func (c *Config) GetBaseURL() string {
	if c.API.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(c.API.BaseURL, "/")
}

// GetAuthURL returns the auth endpoint base. When not configured it is
// derived from the base URL by replacing a trailing /tasks with /auth.
func (c *Config) GetAuthURL() string {
	if c.API.AuthURL != "" {
		return strings.TrimRight(c.API.AuthURL, "/")
	}
	base := c.GetBaseURL()
	if strings.HasSuffix(base, "/tasks") {
		return strings.TrimSuffix(base, "/tasks") + "/auth"
	}
	return DefaultAuthURL
}

// GetRequestTimeout returns the per-request timeout; zero means none
func (c *Config) GetRequestTimeout() time.Duration {
	if c.API.RequestTimeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.API.RequestTimeout)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// GetDefaultTheme returns the theme used when the session has none
func (c *Config) GetDefaultTheme() string {
	if c.UI.DefaultTheme == "light" {
		return "light"
	}
	return "dark"
}

// IsConfirmDeleteEnabled returns whether CLI deletes ask first (default: true)
func (c *Config) IsConfirmDeleteEnabled() bool {
	if c.UI.ConfirmDelete == nil {
		return true
	}
	return *c.UI.ConfirmDelete
}

// GetLogFile returns the log file path
func (c *Config) GetLogFile() string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	return filepath.Join(GetStateDir(), "taskboard.log")
}

// IsAnalyticsEnabled returns whether analytics tracking is enabled
func (c *Config) IsAnalyticsEnabled() bool {
	return c.Analytics.Enabled
}

// GetAnalyticsRetentionDays returns the retention period, defaulting to a year
func (c *Config) GetAnalyticsRetentionDays() int {
	if c.Analytics.RetentionDays <= 0 {
		return DefaultRetentionDays
	}
	return c.Analytics.RetentionDays
}

// GetAnalyticsPath returns the analytics database path
func (c *Config) GetAnalyticsPath() string {
	if c.Analytics.Path != "" {
		return c.Analytics.Path
	}
	return filepath.Join(GetDataDir(), "analytics.db")
}

// GetSessionPath returns the session state file path
func GetSessionPath() string {
	return filepath.Join(GetStateDir(), "session.yaml")
}

// getXDGDir returns a directory path following the XDG base directory layout.
// envVar is the XDG environment variable (e.g., "XDG_CONFIG_HOME").
// fallbackPath is the relative path from home (e.g., ".config").
func getXDGDir(envVar, fallbackPath string) string {
	if xdgDir := os.Getenv(envVar); xdgDir != "" {
		return filepath.Join(xdgDir, appDir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", fallbackPath, appDir)
	}
	return filepath.Join(home, fallbackPath, appDir)
}

// GetConfigDir returns the configuration directory following the XDG base directory layout
func GetConfigDir() string {
	return getXDGDir("XDG_CONFIG_HOME", ".config")
}

// GetDataDir returns the data directory following the XDG base directory layout
func GetDataDir() string {
	return getXDGDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// GetStateDir returns the state directory following the XDG base directory layout
func GetStateDir() string {
	return getXDGDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return os.ExpandEnv(path)
}
