package config

import (
	"strings"
)

const (
	defaultAppEnv             = "dev"
	defaultAppLogLevel        = "info"
	defaultAppLogPath         = "logs/dipbot.log"
	defaultExchangeName       = "binance"
	defaultExchangeTimeout    = 15
	defaultTradingQuote       = "USDT"
	defaultTradingNotional    = 5
	defaultTradingDrop        = 0.05
	defaultTradingRise        = 0.10
	defaultTradingPrecision   = 8
	defaultTradingPollSeconds = 60
	defaultStateBackend       = "file"
	defaultStatePath          = "data/trading_state.json"
	defaultJournalPath        = "data/journal.db"
)

var defaultTradingAssets = []string{"BTC", "TON", "ETH", "XRP", "ADA", "DOGE"}

// Default returns a configuration with every default applied, as if loaded from an empty file.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults(nil)
	return &cfg
}

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Exchange.applyDefaults(keys)
	c.Trading.applyDefaults(keys)
	c.State.applyDefaults(keys)
	c.Journal.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (e *ExchangeConfig) applyDefaults(keys keySet) {
	if e == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("exchange.name", &e.Name, defaultExchangeName),
		fieldDefault{
			key:   "exchange.http_timeout_seconds",
			need:  func() bool { return e.HTTPTimeoutSeconds <= 0 },
			apply: func() { e.HTTPTimeoutSeconds = defaultExchangeTimeout },
		},
	)
	e.Name = strings.ToLower(strings.TrimSpace(e.Name))
	e.APIKey = strings.TrimSpace(e.APIKey)
	e.APISecret = strings.TrimSpace(e.APISecret)
	e.ProxyURL = strings.TrimSpace(e.ProxyURL)
}

func (t *TradingConfig) applyDefaults(keys keySet) {
	if t == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("trading.quote", &t.Quote, defaultTradingQuote),
		fieldDefault{
			key:   "trading.assets",
			need:  func() bool { return len(t.Assets) == 0 },
			apply: func() { t.Assets = append([]string(nil), defaultTradingAssets...) },
		},
		fieldDefault{
			key:   "trading.buy_notional",
			need:  func() bool { return t.BuyNotional <= 0 },
			apply: func() { t.BuyNotional = defaultTradingNotional },
		},
		fieldDefault{
			key:   "trading.drop_threshold",
			need:  func() bool { return t.DropThreshold <= 0 },
			apply: func() { t.DropThreshold = defaultTradingDrop },
		},
		fieldDefault{
			key:   "trading.rise_threshold",
			need:  func() bool { return t.RiseThreshold <= 0 },
			apply: func() { t.RiseThreshold = defaultTradingRise },
		},
		fieldDefault{
			key:   "trading.default_precision",
			need:  func() bool { return t.DefaultPrecision <= 0 },
			apply: func() { t.DefaultPrecision = defaultTradingPrecision },
		},
		fieldDefault{
			key:   "trading.poll_interval_seconds",
			need:  func() bool { return t.PollIntervalSeconds <= 0 },
			apply: func() { t.PollIntervalSeconds = defaultTradingPollSeconds },
		},
	)
	t.Quote = strings.ToUpper(strings.TrimSpace(t.Quote))
	t.Assets = normalizeAssets(t.Assets)
}

func (s *StateConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("state.backend", &s.Backend, defaultStateBackend),
		stringFieldDefault("state.path", &s.Path, defaultStatePath),
	)
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
}

func (j *JournalConfig) applyDefaults(keys keySet) {
	if j == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("journal.path", &j.Path, defaultJournalPath),
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

// normalizeAssets upper-cases, trims and de-duplicates the asset list, keeping order.
func normalizeAssets(assets []string) []string {
	if len(assets) == 0 {
		return nil
	}
	out := make([]string, 0, len(assets))
	seen := make(map[string]bool, len(assets))
	for _, a := range assets {
		a = strings.ToUpper(strings.TrimSpace(a))
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}
