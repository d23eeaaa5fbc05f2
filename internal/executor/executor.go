// Package executor places market orders on the exchange with the amount
// precision the market requires.
package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"dipbot/internal/gateway/exchange"
	"dipbot/internal/gateway/notifier"
	"dipbot/internal/journal"
	"dipbot/internal/logger"
	symbolpkg "dipbot/internal/pkg/symbol"
	"dipbot/internal/pkg/trading"

	"github.com/shopspring/decimal"
)

// ErrZeroAmount is returned when a buy rounds down to nothing at the market's precision.
var ErrZeroAmount = errors.New("order amount rounds to zero")

const (
	DefaultPrecision = 8
	notifyTimeout    = 10 * time.Second
)

// Fill is the outcome of a successful buy.
type Fill struct {
	Asset   string
	Amount  decimal.Decimal
	Price   decimal.Decimal
	Receipt exchange.OrderReceipt
}

// Options configure an Executor. Nil Journal and Notifier discard their output.
type Options struct {
	Quote            string
	DefaultPrecision int
	Journal          journal.Recorder
	Notifier         notifier.TextNotifier
}

// Executor sizes and places market orders and reports every outcome.
type Executor struct {
	ex               exchange.Exchange
	quote            string
	defaultPrecision int
	journal          journal.Recorder
	notifier         notifier.TextNotifier
	nowFn            func() time.Time

	mu         sync.Mutex
	precisions map[string]int
}

// New wraps ex. An out-of-range DefaultPrecision falls back to 8.
func New(ex exchange.Exchange, opts Options) *Executor {
	quote := strings.ToUpper(strings.TrimSpace(opts.Quote))
	if quote == "" {
		quote = "USDT"
	}
	precision := opts.DefaultPrecision
	if precision < 0 || precision > trading.MaxPrecision {
		precision = DefaultPrecision
	}
	e := &Executor{
		ex:               ex,
		quote:            quote,
		defaultPrecision: precision,
		journal:          opts.Journal,
		notifier:         opts.Notifier,
		nowFn:            time.Now,
		precisions:       make(map[string]int),
	}
	if e.journal == nil {
		e.journal = journal.Nop{}
	}
	if e.notifier == nil {
		e.notifier = notifier.Nop{}
	}
	return e
}

// Precision returns the amount precision of asset. Results are cached for the
// life of the executor; lookup errors fall back to the default without caching.
func (e *Executor) Precision(ctx context.Context, asset string) int {
	e.mu.Lock()
	p, ok := e.precisions[asset]
	e.mu.Unlock()
	if ok {
		return p
	}
	pair := symbolpkg.Pair(asset, e.quote)
	p, ok, err := e.ex.MarketPrecision(ctx, pair)
	if err != nil {
		logger.Warnf("[executor] %s precision lookup failed, using %d: %v", pair, e.defaultPrecision, err)
		return e.defaultPrecision
	}
	if !ok {
		logger.Warnf("[executor] %s has no integer amount precision, using %d", pair, e.defaultPrecision)
		p = e.defaultPrecision
	}
	e.mu.Lock()
	e.precisions[asset] = p
	e.mu.Unlock()
	return p
}

// Buy spends notional quote currency on asset at roughly priceHint.
func (e *Executor) Buy(ctx context.Context, asset string, notional, priceHint decimal.Decimal) (Fill, error) {
	pair := symbolpkg.Pair(asset, e.quote)
	precision := e.Precision(ctx, asset)
	amount := trading.BuyAmount(notional, priceHint, precision)
	if !amount.IsPositive() {
		err := fmt.Errorf("buy %s: %s %s at %s with precision %d: %w", pair, notional, e.quote, priceHint, precision, ErrZeroAmount)
		logger.Warnf("[executor] %v", err)
		return Fill{}, err
	}
	logger.Infof("[executor] placing market buy %s amount=%s (notional=%s price=%s precision=%d)", pair, amount, notional, priceHint, precision)
	receipt, err := e.ex.CreateMarketBuyOrder(context.WithoutCancel(ctx), pair, amount)
	if err != nil {
		err = fmt.Errorf("buy %s amount=%s: %w", pair, amount, err)
		e.report(ctx, asset, exchange.SideBuy, amount, priceHint, exchange.OrderReceipt{Symbol: pair}, err)
		return Fill{}, err
	}
	receipt.Requested = amount
	filled := receipt.FilledAmount()
	e.report(ctx, asset, exchange.SideBuy, filled, priceHint, receipt, nil)
	return Fill{Asset: asset, Amount: filled, Price: priceHint, Receipt: receipt}, nil
}

// Sell disposes of amount of asset at market.
func (e *Executor) Sell(ctx context.Context, asset string, amount decimal.Decimal) (exchange.OrderReceipt, error) {
	pair := symbolpkg.Pair(asset, e.quote)
	if !amount.IsPositive() {
		err := fmt.Errorf("sell %s: amount %s: %w", pair, amount, ErrZeroAmount)
		logger.Warnf("[executor] %v", err)
		return exchange.OrderReceipt{}, err
	}
	logger.Infof("[executor] placing market sell %s amount=%s", pair, amount)
	receipt, err := e.ex.CreateMarketSellOrder(context.WithoutCancel(ctx), pair, amount)
	if err != nil {
		err = fmt.Errorf("sell %s amount=%s: %w", pair, amount, err)
		e.report(ctx, asset, exchange.SideSell, amount, decimal.Zero, exchange.OrderReceipt{Symbol: pair}, err)
		return exchange.OrderReceipt{}, err
	}
	if receipt.Requested.IsZero() {
		receipt.Requested = amount
	}
	e.report(ctx, asset, exchange.SideSell, receipt.FilledAmount(), averagePrice(receipt), receipt, nil)
	return receipt, nil
}

func averagePrice(r exchange.OrderReceipt) decimal.Decimal {
	filled := r.FilledAmount()
	if !filled.IsPositive() || !r.QuoteAmount.IsPositive() {
		return decimal.Zero
	}
	return r.QuoteAmount.DivRound(filled, trading.MaxPrecision)
}

// report logs, journals and announces an order outcome. Journal and notifier
// failures are logged only.
func (e *Executor) report(ctx context.Context, asset string, side exchange.Side, amount, price decimal.Decimal, receipt exchange.OrderReceipt, orderErr error) {
	entry := journal.Entry{
		Exchange:      e.ex.Name(),
		Asset:         asset,
		Symbol:        receipt.Symbol,
		Side:          string(side),
		Amount:        amount.String(),
		Price:         price.String(),
		OrderID:       receipt.OrderID,
		ClientOrderID: receipt.ClientOrderID,
		Raw:           receipt.Raw,
		CreatedAt:     e.nowFn(),
	}
	if !receipt.QuoteAmount.IsZero() {
		entry.QuoteAmount = receipt.QuoteAmount.String()
	}
	if orderErr != nil {
		entry.Status = journal.StatusFailed
		entry.Error = orderErr.Error()
		logger.Errorf("[executor] order failed: %v", orderErr)
	} else {
		entry.Status = journal.StatusFilled
		logger.Infof("[executor] order filled: %s", receipt)
	}
	detached := context.WithoutCancel(ctx)
	if err := e.journal.Record(detached, entry); err != nil {
		logger.Warnf("[executor] journal write failed: %v", err)
	}
	nctx, cancel := context.WithTimeout(detached, notifyTimeout)
	defer cancel()
	if err := e.notifier.SendText(nctx, renderOrderMessage(entry, e.nowFn())); err != nil {
		logger.Warnf("[executor] notification failed: %v", err)
	}
}
