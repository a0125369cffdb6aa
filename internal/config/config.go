// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token    string  `yaml:"token"`
	Workers  int     `yaml:"workers"` // polling workers
	AdminIDs []int64 `yaml:"admin_ids"`
	// SendRate is outbound messages per second across all chats.
	SendRate float64 `yaml:"send_rate"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port       int           `yaml:"port"`
	APIKey     string        `yaml:"api_key"`
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type SourceConfig struct {
	RemoteOKURL    string        `yaml:"remoteok_url"`
	HackerNewsURL  string        `yaml:"hackernews_url"`
	GitHubURL      string        `yaml:"github_url"`
	Timeout        time.Duration `yaml:"timeout"`
	PerSourceLimit int           `yaml:"per_source_limit"`
}

type QuotaConfig struct {
	FreeDailyLimit    int `yaml:"free_daily_limit"`
	PremiumBatchLimit int `yaml:"premium_batch_limit"`
}

type CycleConfig struct {
	Cron          string `yaml:"cron"` // cron spec for the hourly cycle
	RetentionDays int    `yaml:"retention_days"`
}

// Retention is the listing retention window as a duration.
func (c CycleConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Log      LogConfig      `yaml:"log"`
	Admin    AdminConfig    `yaml:"admin"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Sources  SourceConfig   `yaml:"sources"`
	Quota    QuotaConfig    `yaml:"quota"`
	Cycle    CycleConfig    `yaml:"cycle"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)

	// Minimal validation
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot.token is required")
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Bot.SendRate <= 0 {
		cfg.Bot.SendRate = 25 // stay under Telegram's global ceiling
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 30 * time.Minute
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Sources.RemoteOKURL == "" {
		cfg.Sources.RemoteOKURL = "https://remoteok.io/api"
	}
	if cfg.Sources.HackerNewsURL == "" {
		cfg.Sources.HackerNewsURL = "https://hacker-news.firebaseio.com/v0"
	}
	if cfg.Sources.GitHubURL == "" {
		cfg.Sources.GitHubURL = "https://api.github.com/repos/github/jobs/issues?labels=job&per_page=20"
	}
	if cfg.Sources.Timeout <= 0 {
		cfg.Sources.Timeout = 10 * time.Second
	}
	if cfg.Sources.PerSourceLimit <= 0 {
		cfg.Sources.PerSourceLimit = 20
	}
	if cfg.Quota.FreeDailyLimit <= 0 {
		cfg.Quota.FreeDailyLimit = 5
	}
	if cfg.Quota.PremiumBatchLimit <= 0 {
		cfg.Quota.PremiumBatchLimit = 25
	}
	if cfg.Cycle.Cron == "" {
		cfg.Cycle.Cron = "0 * * * *"
	}
	if cfg.Cycle.RetentionDays <= 0 {
		cfg.Cycle.RetentionDays = 30
	}
}
