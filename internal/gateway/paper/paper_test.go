package paper

import (
	"context"
	"errors"
	"testing"

	"dipbot/internal/gateway/exchange"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSource struct {
	prices map[string]decimal.Decimal
}

func (f fixedSource) FetchTicker(_ context.Context, symbol string) (exchange.Ticker, error) {
	p, ok := f.prices[symbol]
	if !ok {
		return exchange.Ticker{}, errors.New("no price")
	}
	return exchange.Ticker{Symbol: symbol, Last: p}, nil
}

func (f fixedSource) MarketPrecision(context.Context, string) (int, bool, error) {
	return 4, true, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPaperBuyThenSell(t *testing.T) {
	src := fixedSource{prices: map[string]decimal.Decimal{"BTC/USDT": dec("30000")}}
	ex := New(src, "USDT", dec("10"))
	ctx := context.Background()

	r, err := ex.CreateMarketBuyOrder(ctx, "BTC/USDT", dec("0.0002"))
	require.NoError(t, err)
	assert.Equal(t, "FILLED", r.Status)
	assert.True(t, r.FilledAmount().Equal(dec("0.0002")))
	assert.True(t, ex.Balance("USDT").Equal(dec("4")))
	assert.True(t, ex.Balance("btc").Equal(dec("0.0002")))

	src.prices["BTC/USDT"] = dec("33000")
	r, err = ex.CreateMarketSellOrder(ctx, "BTC/USDT", dec("0.0002"))
	require.NoError(t, err)
	assert.True(t, r.QuoteAmount.Equal(dec("6.6")))
	assert.True(t, ex.Balance("USDT").Equal(dec("10.6")))
	assert.True(t, ex.Balance("BTC").IsZero())
}

func TestPaperRejectsInsufficientBalance(t *testing.T) {
	src := fixedSource{prices: map[string]decimal.Decimal{"ETH/USDT": dec("3000")}}
	ex := New(src, "USDT", dec("1"))

	_, err := ex.CreateMarketBuyOrder(context.Background(), "ETH/USDT", dec("0.01"))
	assert.ErrorContains(t, err, "insufficient USDT")

	_, err = ex.CreateMarketSellOrder(context.Background(), "ETH/USDT", dec("0.01"))
	assert.ErrorContains(t, err, "insufficient ETH")
	assert.True(t, ex.Balance("USDT").Equal(dec("1")))
}

func TestPaperPropagatesPriceFailure(t *testing.T) {
	ex := New(fixedSource{prices: map[string]decimal.Decimal{}}, "USDT", DefaultStartingBalance)
	_, err := ex.CreateMarketBuyOrder(context.Background(), "ADA/USDT", dec("1"))
	assert.Error(t, err)

	_, err = ex.CreateMarketBuyOrder(context.Background(), "ADA", dec("1"))
	assert.ErrorContains(t, err, "invalid symbol")
}

func TestPaperDelegatesMarketData(t *testing.T) {
	ex := New(fixedSource{prices: map[string]decimal.Decimal{"XRP/USDT": dec("0.5")}}, "USDT", DefaultStartingBalance)
	p, ok, err := ex.MarketPrecision(context.Background(), "XRP/USDT")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4, p)
	assert.Equal(t, "paper", ex.Name())
}

func TestPaperSellsDepositedHolding(t *testing.T) {
	src := fixedSource{prices: map[string]decimal.Decimal{"BTC/USDT": dec("33000")}}
	ex := New(src, "USDT", dec("0"))
	ex.Deposit("btc", dec("0.0002"))
	ex.Deposit("BTC", dec("-1"))

	r, err := ex.CreateMarketSellOrder(context.Background(), "BTC/USDT", dec("0.0002"))
	require.NoError(t, err)
	assert.True(t, r.QuoteAmount.Equal(dec("6.6")))
	assert.True(t, ex.Balance("BTC").IsZero())
}
