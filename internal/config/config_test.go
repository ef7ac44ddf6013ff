package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadDefaults()
	if err != nil {
		t.Fatalf("loadDefaults: %v", err)
	}
	if len(cfg.Sources) == 0 {
		t.Error("expected at least one default source")
	}
	if cfg.PageSize != 10 || cfg.RelatedCount != 3 {
		t.Errorf("unexpected defaults page_size=%d related_count=%d", cfg.PageSize, cfg.RelatedCount)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected default addr :8080, got %q", cfg.Server.Addr)
	}
	if err := validate(cfg); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestRefreshDuration(t *testing.T) {
	cfg := &Config{RefreshInterval: "30m"}
	if d := cfg.RefreshDuration(); d.Minutes() != 30 {
		t.Errorf("expected 30m, got %v", d)
	}

	cfg.RefreshInterval = "invalid"
	if d := cfg.RefreshDuration(); d.Hours() != 6 {
		t.Errorf("expected 6h default for invalid interval, got %v", d)
	}
}

func TestRetentionDuration(t *testing.T) {
	tests := []struct {
		input    string
		wantDays int
	}{
		{"90d", 90},
		{"30d", 30},
		{"720h", 30},
		{"", 90},
		{"invalid", 90},
	}
	for _, tt := range tests {
		cfg := &Config{Retention: tt.input}
		got := cfg.RetentionDuration()
		if got.Hours() != float64(tt.wantDays*24) {
			t.Errorf("RetentionDuration(%q) = %v, want %dd", tt.input, got, tt.wantDays)
		}
	}
}

func TestEnabledSources(t *testing.T) {
	cfg := &Config{
		Sources: []Source{
			{Name: "A", Enabled: true},
			{Name: "B", Enabled: false},
			{Name: "C", Enabled: true},
		},
	}
	enabled := cfg.EnabledSources()
	if len(enabled) != 2 {
		t.Fatalf("expected 2 enabled sources, got %d", len(enabled))
	}
	if enabled[0].Name != "A" || enabled[1].Name != "C" {
		t.Errorf("unexpected enabled sources: %v", enabled)
	}
	if names := cfg.SourceNames(); strings.Join(names, ",") != "A,C" {
		t.Errorf("unexpected names: %v", names)
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		cfg := &Config{LogLevel: in}
		if got := cfg.SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	content := `page_size: 25
site:
  title: My Blog
sources:
  - name: Test
    type: rss
    url: https://example.com/feed
    enabled: true
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PageSize != 25 {
		t.Errorf("expected page_size 25, got %d", cfg.PageSize)
	}
	if cfg.Site.Title != "My Blog" {
		t.Errorf("expected title My Blog, got %q", cfg.Site.Title)
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0].Name != "Test" {
		t.Errorf("expected user sources to replace defaults, got %v", cfg.Sources)
	}
	// Keys absent from the file keep their defaults.
	if cfg.RelatedCount != 3 || cfg.Server.Addr != ":8080" {
		t.Errorf("expected defaults kept, got related_count=%d addr=%q", cfg.RelatedCount, cfg.Server.Addr)
	}
}

func TestLoadNonexistentWritesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sub", "config.yaml")

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Sources) == 0 {
		t.Error("expected default sources when config doesn't exist")
	}
	if _, err := os.Stat(cfgPath); err != nil {
		t.Errorf("expected defaults written to %s: %v", cfgPath, err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(EnvDBPath, "/tmp/override.db")
	t.Setenv(EnvAddr, "127.0.0.1:9999")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database() != "/tmp/override.db" {
		t.Errorf("expected db override, got %q", cfg.Database())
	}
	if cfg.Server.Addr != "127.0.0.1:9999" {
		t.Errorf("expected addr override, got %q", cfg.Server.Addr)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.SlogLevel())
	}
}

func TestLoadEnvFile(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envPath, []byte(EnvAddr+"=:7070\n"), 0o644); err != nil {
		t.Fatalf("writing env file: %v", err)
	}
	t.Setenv(EnvAddr, "")
	os.Unsetenv(EnvAddr)

	if err := LoadEnv(envPath, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if got := os.Getenv(EnvAddr); got != ":7070" {
		t.Errorf("expected %s=:7070, got %q", EnvAddr, got)
	}
}

func TestDatabaseDefault(t *testing.T) {
	cfg := &Config{}
	if cfg.Database() != DefaultDBPath() {
		t.Errorf("expected default db path, got %q", cfg.Database())
	}
	if !strings.HasSuffix(DefaultDBPath(), filepath.Join("quill", "quill.db")) {
		t.Errorf("unexpected default db path %q", DefaultDBPath())
	}
}

func validConfig() *Config {
	return &Config{PageSize: 10, Server: Server{Addr: ":8080"}}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mod     func(c *Config)
		wantErr string
	}{
		{"ok", func(c *Config) {}, ""},
		{"page size zero", func(c *Config) { c.PageSize = 0 }, "page_size"},
		{"page size too large", func(c *Config) { c.PageSize = 101 }, "page_size"},
		{"negative related", func(c *Config) { c.RelatedCount = -1 }, "related_count"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"missing addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"bad retention", func(c *Config) { c.Retention = "soon" }, "retention"},
		{"missing source name", func(c *Config) {
			c.Sources = []Source{{Type: "rss", URL: "https://example.com"}}
		}, "name is required"},
		{"missing source url", func(c *Config) {
			c.Sources = []Source{{Name: "x", Type: "rss"}}
		}, "url is required"},
		{"bad scheme", func(c *Config) {
			c.Sources = []Source{{Name: "x", Type: "rss", URL: "ftp://example.com"}}
		}, "scheme"},
		{"bad type", func(c *Config) {
			c.Sources = []Source{{Name: "x", Type: "json", URL: "https://example.com"}}
		}, "unknown type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mod(cfg)
			err := validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseDays(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
		err   bool
	}{
		{"7d", 7 * 24 * time.Hour, false},
		{"1d", 24 * time.Hour, false},
		{"24h", 24 * time.Hour, false},
		{"30m", 30 * time.Minute, false},
		{"2h30m", 2*time.Hour + 30*time.Minute, false},
		{"0d", 0, true},
		{"xd", 0, true},
		{"invalid", 0, true},
		{"", 0, true},
		{"d", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseDays(tt.input)
		if tt.err {
			if err == nil {
				t.Errorf("ParseDays(%q): expected error, got %v", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDays(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDays(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
