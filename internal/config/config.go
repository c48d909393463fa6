// Package config loads the advisor configuration from YAML, .env and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when CONFIG_PATH is not set.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	Market struct {
		Symbols        []string      `yaml:"symbols"`
		Currency       string        `yaml:"currency"`
		BinanceURL     string        `yaml:"binance_url"`
		FXURL          string        `yaml:"fx_url"`
		FearGreedURL   string        `yaml:"fear_greed_url"`
		Stream         bool          `yaml:"stream"`
		RequestsPerSec int           `yaml:"requests_per_sec"`
		Timeout        time.Duration `yaml:"timeout"`
	} `yaml:"market"`
	Analysis struct {
		Interval    string   `yaml:"interval"`
		Limit       int      `yaml:"limit"`
		Timeframes  []string `yaml:"timeframes"`
		HistorySize int      `yaml:"history_size"`
	} `yaml:"analysis"`
	Schedule struct {
		PollInterval time.Duration `yaml:"poll_interval"`
	} `yaml:"schedule"`
	Notify struct {
		BuyMinScore int    `yaml:"buy_min_score"`
		WebhookURL  string `yaml:"webhook_url"`
		Mute        bool   `yaml:"mute"`
		Telegram    struct {
			BotToken string `yaml:"bot_token"`
			ChatID   string `yaml:"chat_id"`
		} `yaml:"telegram"`
	} `yaml:"notify"`
	Sizing struct {
		NewPosition float64 `yaml:"new_position"`
		AddPosition float64 `yaml:"add_position"`
		SellPercent float64 `yaml:"sell_percent"`
	} `yaml:"sizing"`
	StateFile string `yaml:"state_file"`
	Database  struct {
		SQLitePath  string `yaml:"sqlite_path"`
		KeepSignals int    `yaml:"keep_signals"` // signal rows kept per symbol
	} `yaml:"database"`
	Redis struct {
		Addr      string        `yaml:"addr"`
		Password  string        `yaml:"password"`
		DB        int           `yaml:"db"`
		Namespace string        `yaml:"namespace"`
		CandleTTL time.Duration `yaml:"candle_ttl"`
	} `yaml:"redis"`
	API struct {
		Addr        string   `yaml:"addr"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"api"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Path returns CONFIG_PATH or DefaultPath.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads config from a YAML file, loads .env, then applies environment
// variable overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Log.Pretty = true

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"TELEGRAM_BOT_TOKEN": &c.Notify.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &c.Notify.Telegram.ChatID,
		"WEBHOOK_URL":        &c.Notify.WebhookURL,
		"BINANCE_URL":        &c.Market.BinanceURL,
		"HTTPS_PROXY":        &c.Proxy,
		"SQLITE_PATH":        &c.Database.SQLitePath,
		"STATE_FILE":         &c.StateFile,
		"REDIS_ADDR":         &c.Redis.Addr,
		"REDIS_PASSWORD":     &c.Redis.Password,
		"API_ADDR":           &c.API.Addr,
		"LOG_LEVEL":          &c.Log.Level,
	}
	for name, dst := range strs {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Market.Symbols = splitList(v)
	}
	if v := os.Getenv("TIMEFRAMES"); v != "" {
		c.Analysis.Timeframes = splitList(v)
	}
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("POLL_INTERVAL: %w", err)
		}
		c.Schedule.PollInterval = d
	}
	if v := os.Getenv("BUY_MIN_SCORE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BUY_MIN_SCORE: %w", err)
		}
		c.Notify.BuyMinScore = n
	}
	if v := os.Getenv("MARKET_STREAM"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("MARKET_STREAM: %w", err)
		}
		c.Market.Stream = b
	}
	if v := os.Getenv("NOTIFY_MUTE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("NOTIFY_MUTE: %w", err)
		}
		c.Notify.Mute = b
	}
	return nil
}

func (c *Config) applyDefaults() {
	if len(c.Market.Symbols) == 0 {
		c.Market.Symbols = []string{"BTC", "ETH", "XRP", "LTC", "BCH", "ADA"}
	}
	for i, s := range c.Market.Symbols {
		c.Market.Symbols[i] = strings.ToUpper(strings.TrimSpace(s))
	}
	if c.Market.Currency == "" {
		c.Market.Currency = "JPY"
	}
	if c.Market.RequestsPerSec == 0 {
		c.Market.RequestsPerSec = 10
	}
	if c.Market.Timeout == 0 {
		c.Market.Timeout = 15 * time.Second
	}
	if c.Analysis.Interval == "" {
		c.Analysis.Interval = "4h"
	}
	if c.Analysis.Limit == 0 {
		c.Analysis.Limit = 30
	}
	if len(c.Analysis.Timeframes) == 0 {
		c.Analysis.Timeframes = []string{"1h", "4h"}
	}
	if c.Analysis.HistorySize == 0 {
		c.Analysis.HistorySize = 100
	}
	if c.Schedule.PollInterval == 0 {
		c.Schedule.PollInterval = 10 * time.Second
	}
	if c.Notify.BuyMinScore == 0 {
		c.Notify.BuyMinScore = 75
	}
	if c.Sizing.NewPosition == 0 {
		c.Sizing.NewPosition = 50000
	}
	if c.Sizing.AddPosition == 0 {
		c.Sizing.AddPosition = 20000
	}
	if c.Sizing.SellPercent == 0 {
		c.Sizing.SellPercent = 30
	}
	if c.StateFile == "" {
		c.StateFile = "data/portfolio.json"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/advisor.db"
	}
	if c.Database.KeepSignals == 0 {
		c.Database.KeepSignals = 5000
	}
	if c.Redis.Namespace == "" {
		c.Redis.Namespace = "advisor"
	}
	if c.API.Addr == "" {
		c.API.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if len(c.Market.Symbols) == 0 {
		return fmt.Errorf("market.symbols must not be empty")
	}
	if c.Schedule.PollInterval < time.Second {
		return fmt.Errorf("schedule.poll_interval must be at least 1s, got %s", c.Schedule.PollInterval)
	}
	if c.Analysis.Limit < 20 {
		return fmt.Errorf("analysis.limit must be at least 20, got %d", c.Analysis.Limit)
	}
	if c.Notify.BuyMinScore < 0 || c.Notify.BuyMinScore > 100 {
		return fmt.Errorf("notify.buy_min_score must be within 0..100, got %d", c.Notify.BuyMinScore)
	}
	if c.Sizing.NewPosition <= 0 || c.Sizing.AddPosition <= 0 {
		return fmt.Errorf("sizing amounts must be positive")
	}
	if c.Sizing.SellPercent <= 0 || c.Sizing.SellPercent > 100 {
		return fmt.Errorf("sizing.sell_percent must be within (0, 100], got %v", c.Sizing.SellPercent)
	}
	if c.Database.KeepSignals < c.Analysis.HistorySize {
		return fmt.Errorf("database.keep_signals must be at least analysis.history_size (%d), got %d",
			c.Analysis.HistorySize, c.Database.KeepSignals)
	}
	if (c.Notify.Telegram.BotToken == "") != (c.Notify.Telegram.ChatID == "") {
		return fmt.Errorf("notify.telegram needs both bot_token and chat_id")
	}
	if c.Notify.Telegram.ChatID != "" {
		if _, err := c.TelegramChatID(); err != nil {
			return err
		}
	}
	return nil
}

// TelegramEnabled reports whether the Telegram channel is configured.
func (c *Config) TelegramEnabled() bool {
	return c.Notify.Telegram.BotToken != "" && c.Notify.Telegram.ChatID != ""
}

// TelegramChatID parses the configured chat ID.
func (c *Config) TelegramChatID() (int64, error) {
	id, err := strconv.ParseInt(c.Notify.Telegram.ChatID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("notify.telegram.chat_id %q is not numeric", c.Notify.Telegram.ChatID)
	}
	return id, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
