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
	Token      string `yaml:"token"`
	Mode       string `yaml:"mode"` // polling | webhook (future)
	Workers    int    `yaml:"workers"`
	SupportURL string `yaml:"support_url"`
	ChannelURL string `yaml:"channel_url"`
	SendPerSec int    `yaml:"send_per_sec"` // global outbound throttle
	SendBurst  int    `yaml:"send_burst"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type APIConfig struct {
	BaseURL         string        `yaml:"base_url"`
	Timeout         time.Duration `yaml:"timeout"`
	CheckoutTimeout time.Duration `yaml:"checkout_timeout"`
}

type AdminConfig struct {
	Port      int    `yaml:"port"`
	JWTSecret string `yaml:"jwt_secret"`
}

// LimitsConfig gathers the product-policy constants that used to be scattered
// literals: admission quotas, session lifetimes and deposit bounds.
type LimitsConfig struct {
	MessagesPerMinute  int `yaml:"messages_per_minute"`
	CallbacksPerMinute int `yaml:"callbacks_per_minute"`
	StartsPerMinute    int `yaml:"starts_per_minute"`
	WalletsPerMinute   int `yaml:"wallets_per_minute"`

	DuplicateInterval time.Duration `yaml:"duplicate_interval"`

	SessionTTL           time.Duration `yaml:"session_ttl"`
	SessionSweepInterval time.Duration `yaml:"session_sweep_interval"`
	RateSweepInterval    time.Duration `yaml:"rate_sweep_interval"`
	RateRetention        time.Duration `yaml:"rate_retention"`

	MinDeposit float64 `yaml:"min_deposit"`
	MaxDeposit float64 `yaml:"max_deposit"`
}

type Config struct {
	Bot    BotConfig    `yaml:"bot"`
	Log    LogConfig    `yaml:"log"`
	API    APIConfig    `yaml:"api"`
	Admin  AdminConfig  `yaml:"admin"`
	Limits LimitsConfig `yaml:"limits"`

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
	cfg.applyDefaults()

	// Minimal validation
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot.token is required")
	}
	if cfg.API.BaseURL == "" {
		return nil, errors.New("api.base_url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Bot.SendPerSec <= 0 {
		cfg.Bot.SendPerSec = 25
	}
	if cfg.Bot.SendBurst <= 0 {
		cfg.Bot.SendBurst = 5
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.API.Timeout <= 0 {
		cfg.API.Timeout = 10 * time.Second
	}
	if cfg.API.CheckoutTimeout <= 0 {
		cfg.API.CheckoutTimeout = 15 * time.Second
	}
	if cfg.Admin.Port <= 0 {
		cfg.Admin.Port = 8081
	}

	l := &cfg.Limits
	if l.MessagesPerMinute <= 0 {
		l.MessagesPerMinute = 15
	}
	if l.CallbacksPerMinute <= 0 {
		l.CallbacksPerMinute = 20
	}
	if l.StartsPerMinute <= 0 {
		l.StartsPerMinute = 5
	}
	if l.WalletsPerMinute <= 0 {
		l.WalletsPerMinute = 10
	}
	if l.DuplicateInterval <= 0 {
		l.DuplicateInterval = 2 * time.Second
	}
	if l.SessionTTL <= 0 {
		l.SessionTTL = 30 * time.Minute
	}
	if l.SessionSweepInterval <= 0 {
		l.SessionSweepInterval = 10 * time.Minute
	}
	if l.RateSweepInterval <= 0 {
		l.RateSweepInterval = 2 * time.Minute
	}
	if l.RateRetention <= 0 {
		l.RateRetention = 5 * time.Minute
	}
	if l.MinDeposit <= 0 {
		l.MinDeposit = 10
	}
	if l.MaxDeposit <= 0 {
		l.MaxDeposit = 10000
	}
}
