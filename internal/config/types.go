package config

import (
	"path/filepath"
	"strings"
	"time"
)

// Config is the immutable process configuration handed to every component at startup.
type Config struct {
	App      AppConfig      `toml:"app"`
	Exchange ExchangeConfig `toml:"exchange"`
	Trading  TradingConfig  `toml:"trading"`
	State    StateConfig    `toml:"state"`
	Journal  JournalConfig  `toml:"journal"`
	Notify   NotifyConfig   `toml:"notify"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	LogPath  string `toml:"log_path"`
	HTTPAddr string `toml:"http_addr"`
	LockPath string `toml:"lock_path"`
}

// ExchangeConfig selects the exchange implementation by name and carries its credentials.
type ExchangeConfig struct {
	Name               string `toml:"name"`
	APIKey             string `toml:"api_key"`
	APISecret          string `toml:"api_secret"`
	RESTBaseURL        string `toml:"rest_base_url"`
	HTTPTimeoutSeconds int    `toml:"http_timeout_seconds"`
	ProxyURL           string `toml:"proxy_url"`
}

func (e ExchangeConfig) HTTPTimeout() time.Duration {
	return time.Duration(e.HTTPTimeoutSeconds) * time.Second
}

// TradingConfig holds the dip-buying rule parameters.
type TradingConfig struct {
	Quote               string   `toml:"quote"`
	Assets              []string `toml:"assets"`
	BuyNotional         float64  `toml:"buy_notional"`   // quote currency spent per buy
	DropThreshold       float64  `toml:"drop_threshold"` // 0.05 = buy 5% below reference
	RiseThreshold       float64  `toml:"rise_threshold"` // 0.10 = sell 10% above buy price
	DefaultPrecision    int      `toml:"default_precision"`
	PollIntervalSeconds int      `toml:"poll_interval_seconds"`
}

func (t TradingConfig) PollInterval() time.Duration {
	return time.Duration(t.PollIntervalSeconds) * time.Second
}

type StateConfig struct {
	Backend string `toml:"backend"` // "file" | "sqlite"
	Path    string `toml:"path"`
}

type JournalConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

// ResolvedLockPath returns app.lock_path, or the state path with a ".lock" suffix.
func (c *Config) ResolvedLockPath() string {
	if p := strings.TrimSpace(c.App.LockPath); p != "" {
		return p
	}
	return strings.TrimSpace(c.State.Path) + ".lock"
}

// StateDir is the directory holding the state file.
func (c *Config) StateDir() string {
	return filepath.Dir(strings.TrimSpace(c.State.Path))
}

// keySet tracks the config paths that were set explicitly in a file or the environment.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault describes the default rule of a single field.
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
