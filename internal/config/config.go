package config

import (
	"embed"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// Environment variables that override the config file.
const (
	EnvDBPath   = "QUILL_DB_PATH"
	EnvAddr     = "QUILL_ADDR"
	EnvLogLevel = "QUILL_LOG_LEVEL"
)

type Source struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	URL      string `yaml:"url"`
	Enabled  bool   `yaml:"enabled"`
	Category string `yaml:"category,omitempty"`
}

type Site struct {
	Title   string `yaml:"title"`
	BaseURL string `yaml:"base_url"`
}

type Server struct {
	Addr           string   `yaml:"addr"`
	ImportSchedule string   `yaml:"import_schedule"`
	CORSOrigins    []string `yaml:"cors_origins"`
}

type Config struct {
	Site            Site     `yaml:"site"`
	PageSize        int      `yaml:"page_size"`
	RelatedCount    int      `yaml:"related_count"`
	LogLevel        string   `yaml:"log_level"`
	Server          Server   `yaml:"server"`
	RefreshInterval string   `yaml:"refresh_interval"`
	Retention       string   `yaml:"retention"`
	DBPath          string   `yaml:"db_path,omitempty"`
	Sources         []Source `yaml:"sources"`
}

func (c *Config) RefreshDuration() time.Duration {
	d, err := time.ParseDuration(c.RefreshInterval)
	if err != nil {
		return 6 * time.Hour
	}
	return d
}

// RetentionDuration parses retention, accepting "Nd" day syntax. Defaults
// to 90 days.
func (c *Config) RetentionDuration() time.Duration {
	d, err := ParseDays(c.Retention)
	if err != nil {
		return 90 * 24 * time.Hour
	}
	return d
}

// ParseDays parses a duration that may use a "d" suffix for days.
func ParseDays(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil && days > 0 {
			return time.Duration(days) * 24 * time.Hour, nil
		}
		return 0, fmt.Errorf("invalid day count %q", s)
	}
	return time.ParseDuration(s)
}

func (c *Config) EnabledSources() []Source {
	var out []Source
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

func (c *Config) SourceNames() []string {
	var names []string
	for _, s := range c.EnabledSources() {
		names = append(names, s.Name)
	}
	return names
}

// SlogLevel maps log_level to a slog level, info when unset.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Database returns the SQLite path: db_path when set, otherwise the XDG
// data location.
func (c *Config) Database() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return DefaultDBPath()
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "quill", "config.yaml")
}

func DefaultDBPath() string {
	return filepath.Join(xdg.DataHome, "quill", "quill.db")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// LoadEnv reads .env files into the process environment. Missing files are
// ignored and variables already set win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("loading env files: %w", err)
	}
	return nil
}

// Load reads the config at path over the embedded defaults, applies
// environment overrides and validates the result. A missing file is created
// from the defaults.
func Load(path string) (*Config, error) {
	cfg, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Non-fatal: the embedded defaults still apply.
		_ = writeDefaults(path)
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	if cfg.PageSize < 1 || cfg.PageSize > 100 {
		return fmt.Errorf("page_size must be between 1 and 100, got %d", cfg.PageSize)
	}
	if cfg.RelatedCount < 0 {
		return fmt.Errorf("related_count must not be negative, got %d", cfg.RelatedCount)
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log_level: unknown level %q (valid: debug, info, warn, error)", cfg.LogLevel)
	}
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if cfg.Site.BaseURL != "" {
		if _, err := url.Parse(cfg.Site.BaseURL); err != nil {
			return fmt.Errorf("site.base_url: %w", err)
		}
	}
	if cfg.Retention != "" {
		if _, err := ParseDays(cfg.Retention); err != nil {
			return fmt.Errorf("retention: %w", err)
		}
	}

	validTypes := map[string]bool{"rss": true, "atom": true}
	for i, s := range cfg.Sources {
		if s.Name == "" {
			return fmt.Errorf("source %d: name is required", i)
		}
		if s.URL == "" {
			return fmt.Errorf("source %q: url is required", s.Name)
		}
		u, err := url.Parse(s.URL)
		if err != nil {
			return fmt.Errorf("source %q: invalid url: %w", s.Name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("source %q: url scheme must be http or https, got %q", s.Name, u.Scheme)
		}
		if !validTypes[s.Type] {
			return fmt.Errorf("source %q: unknown type %q (valid: rss, atom)", s.Name, s.Type)
		}
	}
	return nil
}
