// Package paper implements a simulated spot exchange. Prices and market
// metadata come from a real exchange; orders fill immediately at the last
// price against an in-memory balance sheet and never leave the process.
package paper

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"dipbot/internal/gateway/exchange"
	"dipbot/internal/logger"
	symbolpkg "dipbot/internal/pkg/symbol"

	"github.com/shopspring/decimal"
)

// DefaultStartingBalance is the simulated quote balance of a fresh paper account.
var DefaultStartingBalance = decimal.NewFromInt(1000)

// MarketSource is the read-only part of an exchange the paper account prices against.
type MarketSource interface {
	FetchTicker(ctx context.Context, symbol string) (exchange.Ticker, error)
	MarketPrecision(ctx context.Context, symbol string) (int, bool, error)
}

// Exchange is a paper account. It is safe for concurrent use.
type Exchange struct {
	source MarketSource

	mu       sync.Mutex
	balances map[string]decimal.Decimal
	seq      int64
	nowFn    func() time.Time
}

var _ exchange.Exchange = (*Exchange)(nil)

// New creates a paper account holding startingQuote of quote currency.
func New(source MarketSource, quote string, startingQuote decimal.Decimal) *Exchange {
	if startingQuote.IsNegative() {
		startingQuote = decimal.Zero
	}
	return &Exchange{
		source:   source,
		balances: map[string]decimal.Decimal{strings.ToUpper(strings.TrimSpace(quote)): startingQuote},
		nowFn:    time.Now,
	}
}

func (e *Exchange) Name() string { return "paper" }

func (e *Exchange) FetchTicker(ctx context.Context, symbol string) (exchange.Ticker, error) {
	return e.source.FetchTicker(ctx, symbol)
}

func (e *Exchange) MarketPrecision(ctx context.Context, symbol string) (int, bool, error) {
	return e.source.MarketPrecision(ctx, symbol)
}

func (e *Exchange) CreateMarketBuyOrder(ctx context.Context, symbol string, amount decimal.Decimal) (exchange.OrderReceipt, error) {
	return e.fill(ctx, symbol, exchange.SideBuy, amount)
}

func (e *Exchange) CreateMarketSellOrder(ctx context.Context, symbol string, amount decimal.Decimal) (exchange.OrderReceipt, error) {
	return e.fill(ctx, symbol, exchange.SideSell, amount)
}

// Deposit credits amount of currency to the account. Used to restore base
// balances for positions opened by an earlier run.
func (e *Exchange) Deposit(currency string, amount decimal.Decimal) {
	if !amount.IsPositive() {
		return
	}
	key := strings.ToUpper(strings.TrimSpace(currency))
	e.mu.Lock()
	defer e.mu.Unlock()
	e.balances[key] = e.balances[key].Add(amount)
}

// Balance returns the simulated balance of currency.
func (e *Exchange) Balance(currency string) decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balances[strings.ToUpper(strings.TrimSpace(currency))]
}

func (e *Exchange) fill(ctx context.Context, symbol string, side exchange.Side, amount decimal.Decimal) (exchange.OrderReceipt, error) {
	sym := symbolpkg.Parse(symbol)
	if sym.Base == "" || sym.Quote == "" {
		return exchange.OrderReceipt{}, fmt.Errorf("invalid symbol: %s", symbol)
	}
	if !amount.IsPositive() {
		return exchange.OrderReceipt{}, fmt.Errorf("order amount must be positive, got %s", amount)
	}
	tk, err := e.source.FetchTicker(ctx, sym.Internal())
	if err != nil {
		return exchange.OrderReceipt{}, fmt.Errorf("paper %s %s: %w", side, symbol, err)
	}
	if !tk.Last.IsPositive() {
		return exchange.OrderReceipt{}, fmt.Errorf("paper %s %s: no usable price", side, symbol)
	}
	cost := amount.Mul(tk.Last)

	e.mu.Lock()
	defer e.mu.Unlock()
	base := e.balances[sym.Base]
	quote := e.balances[sym.Quote]
	switch side {
	case exchange.SideBuy:
		if quote.LessThan(cost) {
			return exchange.OrderReceipt{}, fmt.Errorf("paper buy %s: insufficient %s balance %s < %s", symbol, sym.Quote, quote, cost)
		}
		e.balances[sym.Quote] = quote.Sub(cost)
		e.balances[sym.Base] = base.Add(amount)
	case exchange.SideSell:
		if base.LessThan(amount) {
			return exchange.OrderReceipt{}, fmt.Errorf("paper sell %s: insufficient %s balance %s < %s", symbol, sym.Base, base, amount)
		}
		e.balances[sym.Base] = base.Sub(amount)
		e.balances[sym.Quote] = quote.Add(cost)
	default:
		return exchange.OrderReceipt{}, fmt.Errorf("unsupported side %q", side)
	}
	e.seq++
	id := strconv.FormatInt(e.seq, 10)
	logger.Infof("[paper] filled %s %s amount=%s price=%s cost=%s", side, sym.Internal(), amount, tk.Last, cost)
	return exchange.OrderReceipt{
		OrderID:       id,
		ClientOrderID: "paper-" + id,
		Symbol:        sym.Internal(),
		Side:          side,
		Status:        "FILLED",
		Requested:     amount,
		Executed:      amount,
		QuoteAmount:   cost,
		TransactedAt:  e.nowFn().UTC(),
	}, nil
}
