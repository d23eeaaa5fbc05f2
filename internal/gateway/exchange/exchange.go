package exchange

import (
	"context"

	"github.com/shopspring/decimal"
)

// Exchange is the spot-exchange collaborator the bot trades through.
// Symbols are in "BASE/QUOTE" form.
type Exchange interface {
	Name() string

	FetchTicker(ctx context.Context, symbol string) (Ticker, error)

	// MarketPrecision reports the number of decimal places an order amount must
	// be rounded to. ok is false when the market does not publish an integer precision.
	MarketPrecision(ctx context.Context, symbol string) (precision int, ok bool, err error)

	CreateMarketBuyOrder(ctx context.Context, symbol string, amount decimal.Decimal) (OrderReceipt, error)

	CreateMarketSellOrder(ctx context.Context, symbol string, amount decimal.Decimal) (OrderReceipt, error)
}
