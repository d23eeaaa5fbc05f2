package gateway

import (
	"errors"
	"testing"

	"dipbot/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExchangeFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Exchange.APIKey = "key"
	cfg.Exchange.APISecret = "secret"

	for _, name := range []string{"binance", "binance-testnet", "paper"} {
		cfg.Exchange.Name = name
		ex, err := NewExchangeFromConfig(cfg)
		require.NoError(t, err, name)
		assert.Equal(t, name, ex.Name())
	}
}

func TestNewExchangeFromConfigUnknownName(t *testing.T) {
	cfg := config.Default()
	cfg.Exchange.Name = "kraken"

	_, err := NewExchangeFromConfig(cfg)
	var cfgErr *config.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "exchange.name", cfgErr.Key)
	assert.Contains(t, cfgErr.Reason, "binance-testnet")
}

func TestBinanceRequiresCredentials(t *testing.T) {
	cfg := config.Default()
	cfg.Exchange.Name = "binance"

	_, err := NewExchangeFromConfig(cfg)
	var cfgErr *config.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "exchange.api_key", cfgErr.Key)

	cfg.Exchange.Name = "paper"
	_, err = NewExchangeFromConfig(cfg)
	assert.NoError(t, err)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"binance", "binance-testnet", "paper"}, Names())
}
