package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"campaignterm/internal/dashboard"
	"campaignterm/internal/model"
	"campaignterm/internal/report"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config struct {
	// Backend
	APIBaseURL  string
	HTTPTimeout time.Duration

	// Local state
	ConfigDir string

	// Dashboard
	Variant            string // summary, warmup
	RespondsFilterMode string // client, server
	PaginationStyle    string // full, truncated
	ZoneLabel          string

	LogLevel string
}

// Load reads .env (if present), then the environment, then flags from args.
// Flags are registered on fs so each subcommand can add its own.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	// Missing .env is fine.
	_ = godotenv.Load()

	cfg := &Config{}

	fs.StringVar(&cfg.APIBaseURL, "api", getEnv("API_BASE_URL", ""), "Backend base URL")
	fs.DurationVar(&cfg.HTTPTimeout, "timeout", getEnvDuration("HTTP_TIMEOUT", 30*time.Second), "Timeout for report, options and unsubscribe requests")
	fs.StringVar(&cfg.ConfigDir, "config-dir", getEnv("CONFIG_DIR", defaultConfigDir()), "Directory for the database and log file")
	fs.StringVar(&cfg.Variant, "variant", getEnv("DASHBOARD_VARIANT", "summary"), "Dashboard variant (summary, warmup)")
	fs.StringVar(&cfg.RespondsFilterMode, "responds-filter", getEnv("RESPONDS_FILTER_MODE", "client"), "Where response categories are filtered (client, server)")
	fs.StringVar(&cfg.PaginationStyle, "pagination", getEnv("PAGINATION_STYLE", "truncated"), "Page link layout (full, truncated)")
	fs.StringVar(&cfg.ZoneLabel, "zone-label", getEnv("DISPLAY_TZ_LABEL", "IST"), "Label appended to timestamps")
	fs.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return errors.New("API_BASE_URL is required")
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an http(s) URL, got %q", c.APIBaseURL)
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("HTTP_TIMEOUT must be positive")
	}
	if c.ConfigDir == "" {
		return errors.New("CONFIG_DIR is required")
	}
	if _, err := dashboard.ParseVariant(c.Variant); err != nil {
		return fmt.Errorf("DASHBOARD_VARIANT: %w", err)
	}
	if _, err := report.ParseFilterPolicy(c.RespondsFilterMode); err != nil {
		return fmt.Errorf("RESPONDS_FILTER_MODE: %w", err)
	}
	if _, err := report.ParseWindowPolicy(c.PaginationStyle); err != nil {
		return fmt.Errorf("PAGINATION_STYLE: %w", err)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

func (c *Config) DBPath() string  { return filepath.Join(c.ConfigDir, "campaignterm.db") }
func (c *Config) LogPath() string { return filepath.Join(c.ConfigDir, "campaignterm.log") }

// DashboardOptions converts the validated dashboard settings.
func (c *Config) DashboardOptions(now time.Time) dashboard.Options {
	v, _ := dashboard.ParseVariant(c.Variant)
	fp, _ := report.ParseFilterPolicy(c.RespondsFilterMode)
	wp, _ := report.ParseWindowPolicy(c.PaginationStyle)
	return dashboard.Options{
		Variant:      v,
		FilterPolicy: fp,
		WindowPolicy: wp,
		Today:        model.DateOf(now),
		ZoneLabel:    c.ZoneLabel,
	}
}

func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "campaignterm")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
