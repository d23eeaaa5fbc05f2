package gateway

import (
	"fmt"
	"sort"
	"strings"

	"dipbot/internal/config"
	"dipbot/internal/gateway/binance"
	"dipbot/internal/gateway/exchange"
	"dipbot/internal/gateway/paper"
)

// Constructor builds an exchange from the exchange section of the config.
type Constructor func(cfg *config.Config) (exchange.Exchange, error)

var registry = map[string]Constructor{
	"binance":         newBinance(false),
	"binance-testnet": newBinance(true),
	"paper":           newPaper,
}

// Names lists the registered exchange names in sorted order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// NewExchangeFromConfig resolves exchange.name against the registry.
func NewExchangeFromConfig(cfg *config.Config) (exchange.Exchange, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	name := strings.ToLower(strings.TrimSpace(cfg.Exchange.Name))
	build, ok := registry[name]
	if !ok {
		return nil, &config.ConfigurationError{
			Key:    "exchange.name",
			Reason: fmt.Sprintf("unsupported exchange %q (known: %s)", cfg.Exchange.Name, strings.Join(Names(), ", ")),
		}
	}
	return build(cfg)
}

func newBinance(testnet bool) Constructor {
	return func(cfg *config.Config) (exchange.Exchange, error) {
		ex := cfg.Exchange
		if strings.TrimSpace(ex.APIKey) == "" || strings.TrimSpace(ex.APISecret) == "" {
			return nil, &config.ConfigurationError{Key: "exchange.api_key", Reason: "api_key and api_secret are required for " + ex.Name}
		}
		return binance.New(strings.ToLower(ex.Name), binanceConfig(ex, testnet))
	}
}

// newPaper prices against the public Binance endpoints; credentials are optional.
func newPaper(cfg *config.Config) (exchange.Exchange, error) {
	prices, err := binance.New("binance", binanceConfig(cfg.Exchange, false))
	if err != nil {
		return nil, err
	}
	return paper.New(prices, cfg.Trading.Quote, paper.DefaultStartingBalance), nil
}

func binanceConfig(ex config.ExchangeConfig, testnet bool) binance.Config {
	return binance.Config{
		APIKey:      ex.APIKey,
		APISecret:   ex.APISecret,
		RESTBaseURL: ex.RESTBaseURL,
		HTTPTimeout: ex.HTTPTimeout(),
		Testnet:     testnet,
		ProxyURL:    ex.ProxyURL,
	}
}
