// Package market fetches the latest spot prices for the monitored assets.
package market

import (
	"context"
	"fmt"
	"sort"

	"dipbot/internal/gateway/exchange"
	"dipbot/internal/logger"
	symbolpkg "dipbot/internal/pkg/symbol"

	"github.com/shopspring/decimal"
)

// TickerSource is the subset of an exchange the feed reads from.
type TickerSource interface {
	FetchTicker(ctx context.Context, symbol string) (exchange.Ticker, error)
}

// Quotes is the result of one fetch round. An asset is in exactly one of
// Prices or Failures.
type Quotes struct {
	Prices   map[string]decimal.Decimal
	Failures map[string]error
}

// Assets returns the assets with a usable price, sorted.
func (q Quotes) Assets() []string {
	out := make([]string, 0, len(q.Prices))
	for asset := range q.Prices {
		out = append(out, asset)
	}
	sort.Strings(out)
	return out
}

func (q Quotes) Empty() bool { return len(q.Prices) == 0 }

// Feed queries one ticker per asset, sequentially, with a single attempt.
type Feed struct {
	source TickerSource
	quote  string
}

func NewFeed(source TickerSource, quote string) *Feed {
	return &Feed{source: source, quote: quote}
}

// Fetch never aborts the batch: a failed asset is logged and reported in
// Quotes.Failures while the remaining assets are still queried.
func (f *Feed) Fetch(ctx context.Context, assets []string) Quotes {
	q := Quotes{
		Prices:   make(map[string]decimal.Decimal, len(assets)),
		Failures: make(map[string]error),
	}
	for _, asset := range assets {
		if err := ctx.Err(); err != nil {
			q.Failures[asset] = err
			continue
		}
		price, err := f.fetchOne(ctx, asset)
		if err != nil {
			logger.Warnf("[feed] %s price unavailable: %v", asset, err)
			q.Failures[asset] = err
			continue
		}
		logger.Infof("[feed] %s price=%s", asset, price)
		q.Prices[asset] = price
	}
	return q
}

func (f *Feed) fetchOne(ctx context.Context, asset string) (decimal.Decimal, error) {
	pair := symbolpkg.Pair(asset, f.quote)
	if pair == "" {
		return decimal.Zero, fmt.Errorf("invalid asset %q", asset)
	}
	tk, err := f.source.FetchTicker(ctx, pair)
	if err != nil {
		return decimal.Zero, err
	}
	if !tk.Last.IsPositive() {
		return decimal.Zero, fmt.Errorf("non-positive price %s for %s", tk.Last, pair)
	}
	return tk.Last, nil
}
