package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"SignalSentinel/internal/indicator"
)

// Config holds all application configuration.
type Config struct {
	Stock struct {
		Code string `yaml:"code"`
		Name string `yaml:"name"`
	} `yaml:"stock"`
	Monitor struct {
		Interval        time.Duration `yaml:"interval"`
		SignalThreshold int           `yaml:"signal_threshold"`
		FetchDays       int           `yaml:"fetch_days"`
		FetchTimeout    time.Duration `yaml:"fetch_timeout"`
		RunOnStart      bool          `yaml:"run_on_start"`
	} `yaml:"monitor"`
	Indicators indicator.Params `yaml:"indicators"`
	DataSource struct {
		Provider string        `yaml:"provider"`
		CacheTTL time.Duration `yaml:"cache_ttl"`
		Proxy    string        `yaml:"proxy"`
	} `yaml:"data_source"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Webhook struct {
		URL string `yaml:"url"`
	} `yaml:"webhook"`
	NATS struct {
		URL     string `yaml:"url"`
		Subject string `yaml:"subject"`
	} `yaml:"nats"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
}

// Providers lists the accepted data_source.provider values.
var Providers = []string{"eastmoney", "yahoo", "mock"}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"STOCK_CODE":         &c.Stock.Code,
		"STOCK_NAME":         &c.Stock.Name,
		"DATA_PROVIDER":      &c.DataSource.Provider,
		"REDIS_ADDR":         &c.Redis.Addr,
		"SQLITE_PATH":        &c.Database.SQLitePath,
		"TELEGRAM_BOT_TOKEN": &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &c.Telegram.ChatID,
		"WEBHOOK_URL":        &c.Webhook.URL,
		"NATS_URL":           &c.NATS.URL,
		"HTTP_ADDR":          &c.HTTP.Addr,
		"LOG_LEVEL":          &c.Log.Level,
		"HTTPS_PROXY":        &c.DataSource.Proxy,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("MONITOR_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("MONITOR_INTERVAL: %w", err)
		}
		c.Monitor.Interval = d
	}
	if v := os.Getenv("SIGNAL_THRESHOLD"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SIGNAL_THRESHOLD: %w", err)
		}
		c.Monitor.SignalThreshold = n
	}
	if os.Getenv("RUN_ON_START") == "true" {
		c.Monitor.RunOnStart = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Stock.Code == "" {
		c.Stock.Code = "600489"
		if c.Stock.Name == "" {
			c.Stock.Name = "中金黄金"
		}
	}
	if c.Monitor.Interval == 0 {
		c.Monitor.Interval = 60 * time.Second
	}
	if c.Monitor.SignalThreshold == 0 {
		c.Monitor.SignalThreshold = 4
	}
	if c.Monitor.FetchDays == 0 {
		c.Monitor.FetchDays = 100
	}
	if c.Monitor.FetchTimeout == 0 {
		c.Monitor.FetchTimeout = 15 * time.Second
	}
	c.Indicators = c.Indicators.WithDefaults()
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "eastmoney"
	}
	if c.DataSource.CacheTTL == 0 {
		c.DataSource.CacheTTL = 60 * time.Second
	}
	if c.NATS.Subject == "" {
		c.NATS.Subject = "sentinel.signals"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8000"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks ranges and orderings.
func (c *Config) Validate() error {
	if c.Monitor.Interval <= 0 {
		return fmt.Errorf("monitor.interval must be positive")
	}
	if c.Monitor.SignalThreshold < 1 || c.Monitor.SignalThreshold > 6 {
		return fmt.Errorf("monitor.signal_threshold must be between 1 and 6, got %d", c.Monitor.SignalThreshold)
	}
	if c.Monitor.FetchDays <= 0 {
		return fmt.Errorf("monitor.fetch_days must be positive")
	}
	if c.Monitor.FetchTimeout <= 0 {
		return fmt.Errorf("monitor.fetch_timeout must be positive")
	}
	if err := c.Indicators.Validate(); err != nil {
		return err
	}
	known := false
	for _, p := range Providers {
		if c.DataSource.Provider == p {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("data_source.provider %q is not one of %v", c.DataSource.Provider, Providers)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}
