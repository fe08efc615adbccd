package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported transports
const (
	TransportColly = "colly"
	TransportRod   = "rod"
)

// FirstYear is the earliest year the council archive covers
const FirstYear = 2005

// DefaultPath is read when no --config flag is given; it may be absent
const DefaultPath = "config.yaml"

// Config holds every setting of the scraper
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Scrape   ScrapeConfig   `yaml:"scrape"`
	Fetcher  FetcherConfig  `yaml:"fetcher"`
	Database DatabaseConfig `yaml:"database"`
	Export   ExportConfig   `yaml:"export"`
	Sheets   SheetsConfig   `yaml:"sheets"`
	Telegram TelegramConfig `yaml:"telegram"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Log      LogConfig      `yaml:"log"`
}

// SiteConfig selects the council installation
type SiteConfig struct {
	Domain string `yaml:"domain"`
	// BaseURL overrides the address derived from Domain
	BaseURL  string `yaml:"base_url"`
	Timezone string `yaml:"timezone"`
}

// ScrapeConfig narrows down what a run collects
type ScrapeConfig struct {
	Year      int    `yaml:"year"`
	Committee string `yaml:"committee"`
	Force     bool   `yaml:"force"`
}

// FetcherConfig configures the page transport
type FetcherConfig struct {
	Transport string        `yaml:"transport"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
}

// DatabaseConfig points at the store
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// ExportConfig controls the file export after each run
type ExportConfig struct {
	Dir    string `yaml:"dir"`
	Prefix string `yaml:"prefix"`
	XLSX   bool   `yaml:"xlsx"`
}

// SheetsConfig enables the Google Sheets export when SpreadsheetURL is set
type SheetsConfig struct {
	SpreadsheetURL  string `yaml:"spreadsheet_url"`
	CredentialsPath string `yaml:"credentials_path"`
}

// TelegramConfig enables run summaries when both values are set
type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

// ScheduleConfig is used by the watch command
type ScheduleConfig struct {
	Cron string `yaml:"cron"`
}

// LogConfig sets the log level
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing else is given
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			Domain:   "darmstadt",
			Timezone: "Europe/Berlin",
		},
		Scrape: ScrapeConfig{
			Year: time.Now().Year(),
		},
		Fetcher: FetcherConfig{
			Transport: TransportColly,
			Timeout:   30 * time.Second,
		},
		Database: DatabaseConfig{
			DSN: "sqlite://darmstadt.db",
		},
		Export: ExportConfig{
			Dir:    ".",
			Prefix: "da",
		},
		Schedule: ScheduleConfig{
			Cron: "0 6 * * *",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads a YAML file on top of the defaults and applies
// environment overrides. A missing file is only an error when required.
func LoadConfig(path string, required bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", v, err)
		}
		c.Telegram.ChatID = id
	}
	return nil
}

// Validate reports the first setting that would make a run pointless
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Site.Domain) == "" && c.Site.BaseURL == "" {
		return errors.New("site.domain must not be empty")
	}
	if now := time.Now().Year(); c.Scrape.Year < FirstYear || c.Scrape.Year > now {
		return fmt.Errorf("scrape.year must be between %d and %d, got %d", FirstYear, now, c.Scrape.Year)
	}
	switch c.Fetcher.Transport {
	case TransportColly, TransportRod:
	default:
		return fmt.Errorf("unknown fetcher.transport %q", c.Fetcher.Transport)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// BaseURL returns the root address of the council information system
func (c *Config) BaseURL() string {
	if c.Site.BaseURL != "" {
		if !strings.HasSuffix(c.Site.BaseURL, "/") {
			return c.Site.BaseURL + "/"
		}
		return c.Site.BaseURL
	}
	return fmt.Sprintf("http://%s.more-rubin1.de/", c.Site.Domain)
}

// Location loads the timezone printed dates are interpreted in
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Site.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid site.timezone %q: %w", c.Site.Timezone, err)
	}
	return loc, nil
}
