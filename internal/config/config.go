package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Theme   string            `yaml:"theme"`
	Backend BackendConfig     `yaml:"backend"`
	Results ResultsConfig     `yaml:"results"`
	Labels  map[string]string `yaml:"labels,omitempty"` // table -> FK label template, e.g. "{code} - {libelle}"
	Audit   AuditConfig       `yaml:"audit"`
	Log     LogConfig         `yaml:"log"`
	Server  ServerConfig      `yaml:"server"`
}

// BackendConfig describes the catalog/CRUD HTTP backend the explorer talks to.
type BackendConfig struct {
	URL        string            `yaml:"url"`
	Timeout    time.Duration     `yaml:"timeout"`
	Headers    map[string]string `yaml:"headers,omitempty"`
	SampleSize int               `yaml:"sample_size"`
}

// ResultsConfig holds grid display settings.
type ResultsConfig struct {
	PageSize       int `yaml:"page_size"`
	MaxColumnWidth int `yaml:"max_column_width"`
}

// AuditConfig controls the persistence audit log.
type AuditConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Path      string `yaml:"path,omitempty"`
	MaxSizeMB int    `yaml:"max_size_mb"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
	Path   string `yaml:"path,omitempty"`
}

// ServerConfig configures the reference backend served by "schemadesk serve".
type ServerConfig struct {
	Driver          string                       `yaml:"driver"`
	DSN             string                       `yaml:"dsn,omitempty"`
	Addr            string                       `yaml:"addr"`
	CORSOrigins     []string                     `yaml:"cors_origins,omitempty"`
	Classifications map[string]string            `yaml:"classifications,omitempty"`
	Labels          map[string]map[string]string `yaml:"labels,omitempty"`
	Descriptions    map[string]map[string]string `yaml:"descriptions,omitempty"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Theme: "default",
		Backend: BackendConfig{
			URL:        "http://localhost:8080/api",
			Timeout:    15 * time.Second,
			SampleSize: 100,
		},
		Results: ResultsConfig{
			PageSize:       50,
			MaxColumnWidth: 40,
		},
		Audit: AuditConfig{
			Enabled:   true,
			MaxSizeMB: 10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Driver: "sqlite",
			Addr:   ":8080",
		},
	}
}

// ConfigDir returns the schemadesk configuration directory path.
// It uses os.UserConfigDir to locate the base config directory and
// appends "schemadesk" to it, typically resulting in ~/.config/schemadesk/.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config dir: %w", err)
	}
	return filepath.Join(base, "schemadesk"), nil
}

// Load reads a Config from the YAML file at path. If the file does not exist,
// it returns DefaultConfig without error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault loads configuration from the default path
// (ConfigDir()/config.yaml).
func LoadDefault() (*Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	return Load(filepath.Join(dir, "config.yaml"))
}

// Validate rejects values that cannot work. Zero sizes are replaced by the
// defaults.
func (c *Config) Validate() error {
	def := DefaultConfig()
	if c.Results.PageSize <= 0 {
		c.Results.PageSize = def.Results.PageSize
	}
	if c.Results.MaxColumnWidth <= 0 {
		c.Results.MaxColumnWidth = def.Results.MaxColumnWidth
	}
	if c.Backend.SampleSize <= 0 {
		c.Backend.SampleSize = def.Backend.SampleSize
	}
	if c.Backend.Timeout < 0 {
		return fmt.Errorf("backend.timeout must not be negative")
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	for table, tmpl := range c.Labels {
		if !strings.Contains(tmpl, "{") {
			return fmt.Errorf("labels.%s: template %q has no {field} placeholder", table, tmpl)
		}
	}
	return nil
}

// Save writes the Config to the YAML file at path, creating any necessary
// parent directories.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// SaveDefault writes the Config to the default path
// (ConfigDir()/config.yaml).
func (c *Config) SaveDefault() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return c.Save(filepath.Join(dir, "config.yaml"))
}

// AuditPath returns the audit log path, defaulting to ConfigDir()/audit.jsonl.
func (c *Config) AuditPath() (string, error) {
	if c.Audit.Path != "" {
		return c.Audit.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "audit.jsonl"), nil
}

// LogPath returns the TUI log file path, defaulting to
// ConfigDir()/schemadesk.log.
func (c *Config) LogPath() (string, error) {
	if c.Log.Path != "" {
		return c.Log.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "schemadesk.log"), nil
}

// ApplyEnv overrides server settings from SCHEMADESK_DRIVER, SCHEMADESK_DSN
// and SCHEMADESK_ADDR, and the backend URL from SCHEMADESK_URL.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv("SCHEMADESK_DRIVER"); v != "" {
		c.Server.Driver = v
	}
	if v := getenv("SCHEMADESK_DSN"); v != "" {
		c.Server.DSN = v
	}
	if v := getenv("SCHEMADESK_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := getenv("SCHEMADESK_URL"); v != "" {
		c.Backend.URL = v
	}
}
