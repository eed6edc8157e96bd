package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v9"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv = "NEWS_COLLECTOR_CONFIG"

	defaultTimeoutSeconds  = 30
	defaultRetryCount      = 3
	defaultMaxConcurrency  = 4
	defaultDeadlineSeconds = 300
	defaultUserAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// ErrInvalid marks configuration errors that must abort the whole run.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Scraping  ScrapingConfig  `yaml:"scraping"`
	Slack     SlackConfig     `yaml:"slack"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Companies []CompanyConfig `yaml:"companies"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
}

// ServerConfig describes the HTTP trigger surface.
type ServerConfig struct {
	Addr string `yaml:"addr" env:"SERVER_ADDR"`
}

// DatabaseConfig describes Postgres connection details.
type DatabaseConfig struct {
	DSN string `yaml:"dsn" env:"DATABASE_DSN"`
}

// ScrapingConfig is the per-run scraping policy; passed explicitly into the
// collector so a run is reproducible from its inputs.
type ScrapingConfig struct {
	TimeoutSeconds  int    `yaml:"timeout"`
	RetryCount      int    `yaml:"retry"`
	UserAgent       string `yaml:"user_agent"`
	MaxConcurrency  int    `yaml:"max_concurrency"`
	DeadlineSeconds int    `yaml:"run_deadline"`
}

// Timeout returns the per-request timeout.
func (s ScrapingConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Deadline returns the overall run deadline.
func (s ScrapingConfig) Deadline() time.Duration {
	return time.Duration(s.DeadlineSeconds) * time.Second
}

// SlackConfig wires the notification channel; secrets come from env only.
type SlackConfig struct {
	Channel       string `yaml:"channel"    env:"SLACK_CHANNEL"`
	Username      string `yaml:"username"`
	IconEmoji     string `yaml:"icon_emoji"`
	BotToken      string `yaml:"-"          env:"SLACK_BOT_TOKEN"`
	SigningSecret string `yaml:"-"          env:"SLACK_SIGNING_SECRET"`
}

// SchedulerConfig optionally lets the service trigger itself via cron.
type SchedulerConfig struct {
	CronExpression string `yaml:"cron" env:"COLLECTOR_CRON"`
	Timezone       string `yaml:"timezone"`
}

// Location resolves the scheduler timezone, defaulting to UTC.
func (s SchedulerConfig) Location() *time.Location {
	if s.Timezone != "" {
		if loc, err := time.LoadLocation(s.Timezone); err == nil {
			return loc
		}
	}
	return time.UTC
}

// CompanyConfig declares one monitored company and its sources.
type CompanyConfig struct {
	ID      string         `yaml:"id"`
	Name    string         `yaml:"name"`
	HP      string         `yaml:"hp"`
	HPNews  *HPNewsConfig  `yaml:"hp_news"`
	PRTimes *PRTimesConfig `yaml:"prtimes"`
}

// HPNewsConfig configures the generic selector scraper for a company page.
type HPNewsConfig struct {
	Enabled  *bool          `yaml:"enabled"`
	URL      string         `yaml:"url"`
	Selector SelectorConfig `yaml:"selector"`
}

// SelectorConfig lists the class names the generic scraper reads.
type SelectorConfig struct {
	ArticlesWrapper string `yaml:"articles_wrapper"`
	Article         string `yaml:"article"`
	Title           string `yaml:"title"`
	Date            string `yaml:"date"`
	Content         string `yaml:"content"`
}

// PRTimesConfig points at a company's PRTimes listing page.
type PRTimesConfig struct {
	Enabled *bool  `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// On reports the effective enabled flag; absent means enabled.
func (c *PRTimesConfig) On() bool {
	return c != nil && c.URL != "" && (c.Enabled == nil || *c.Enabled)
}

// On reports the effective enabled flag; absent means enabled.
func (c *HPNewsConfig) On() bool {
	return c != nil && c.URL != "" && (c.Enabled == nil || *c.Enabled)
}

// Load reads YAML configuration (path from NEWS_COLLECTOR_CONFIG, default
// configs/config.yaml) and applies environment overrides.
func Load() (Config, error) {
	path := os.Getenv(configPathEnv)
	if path == "" {
		path = "configs/config.yaml"
	}
	return LoadFile(path)
}

// LoadFile reads and validates the configuration at an explicit path.
func LoadFile(path string) (Config, error) {
	cfg := defaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: read %s: %v", ErrInvalid, path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parse %s: %v", ErrInvalid, path, err)
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: env overrides: %v", ErrInvalid, err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the invariants without which there is nothing to run.
func (c Config) Validate() error {
	if len(c.Companies) == 0 {
		return fmt.Errorf("%w: no companies configured", ErrInvalid)
	}
	for i, company := range c.Companies {
		if company.ID == "" || company.Name == "" {
			return fmt.Errorf("%w: company #%d is missing id or name", ErrInvalid, i)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	def := defaultConfig()
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Scraping.TimeoutSeconds <= 0 {
		c.Scraping.TimeoutSeconds = def.Scraping.TimeoutSeconds
	}
	if c.Scraping.RetryCount <= 0 {
		c.Scraping.RetryCount = def.Scraping.RetryCount
	}
	if c.Scraping.UserAgent == "" {
		c.Scraping.UserAgent = def.Scraping.UserAgent
	}
	if c.Scraping.MaxConcurrency <= 0 {
		c.Scraping.MaxConcurrency = def.Scraping.MaxConcurrency
	}
	if c.Scraping.DeadlineSeconds <= 0 {
		c.Scraping.DeadlineSeconds = def.Scraping.DeadlineSeconds
	}
	if c.Slack.Username == "" {
		c.Slack.Username = def.Slack.Username
	}
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Server:  ServerConfig{Addr: ":8080"},
		Scraping: ScrapingConfig{
			TimeoutSeconds:  defaultTimeoutSeconds,
			RetryCount:      defaultRetryCount,
			UserAgent:       defaultUserAgent,
			MaxConcurrency:  defaultMaxConcurrency,
			DeadlineSeconds: defaultDeadlineSeconds,
		},
		Slack: SlackConfig{Username: "news-collector"},
	}
}
