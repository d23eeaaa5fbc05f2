package config

import (
	"strings"
)

const maxPrecision = 18

// validate checks the loaded configuration.
func validate(c *Config) error {
	if err := c.Exchange.validate(); err != nil {
		return err
	}
	if err := c.Trading.validate(); err != nil {
		return err
	}
	if err := c.State.validate(); err != nil {
		return err
	}
	if err := c.Journal.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	return nil
}

func (e *ExchangeConfig) validate() error {
	if e.Name == "" {
		return invalid("exchange.name", "cannot be empty")
	}
	if e.HTTPTimeoutSeconds <= 0 {
		return invalid("exchange.http_timeout_seconds", "must be > 0")
	}
	return nil
}

func (t *TradingConfig) validate() error {
	if t.Quote == "" {
		return invalid("trading.quote", "cannot be empty")
	}
	if len(t.Assets) == 0 {
		return invalid("trading.assets", "requires at least one asset")
	}
	for _, a := range t.Assets {
		if a == t.Quote {
			return invalid("trading.assets", "asset %s equals the quote currency", a)
		}
		if strings.ContainsAny(a, "/:_ ") {
			return invalid("trading.assets", "asset %q must be a bare symbol such as BTC", a)
		}
	}
	if t.BuyNotional <= 0 {
		return invalid("trading.buy_notional", "must be > 0")
	}
	if t.DropThreshold <= 0 || t.DropThreshold >= 1 {
		return invalid("trading.drop_threshold", "must be within (0, 1), got %v", t.DropThreshold)
	}
	if t.RiseThreshold <= 0 || t.RiseThreshold >= 1 {
		return invalid("trading.rise_threshold", "must be within (0, 1), got %v", t.RiseThreshold)
	}
	if t.DefaultPrecision < 0 || t.DefaultPrecision > maxPrecision {
		return invalid("trading.default_precision", "must be within [0, %d]", maxPrecision)
	}
	if t.PollIntervalSeconds <= 0 {
		return invalid("trading.poll_interval_seconds", "must be > 0")
	}
	return nil
}

func (s *StateConfig) validate() error {
	switch s.Backend {
	case "file", "sqlite":
	default:
		return invalid("state.backend", "unsupported backend %q (file|sqlite)", s.Backend)
	}
	if strings.TrimSpace(s.Path) == "" {
		return invalid("state.path", "cannot be empty")
	}
	return nil
}

func (j *JournalConfig) validate() error {
	if j.Enabled && strings.TrimSpace(j.Path) == "" {
		return invalid("journal.path", "required when journal is enabled")
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	tg := n.Telegram
	if !tg.Enabled {
		return nil
	}
	if strings.TrimSpace(tg.BotToken) == "" || strings.TrimSpace(tg.ChatID) == "" {
		return invalid("notify.telegram", "bot_token and chat_id are required when enabled")
	}
	return nil
}
