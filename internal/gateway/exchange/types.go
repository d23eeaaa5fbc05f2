// Package exchange defines a common abstraction for spot exchanges, so the
// bot can trade against Binance or a paper exchange without changing the
// decision or execution logic.
package exchange

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Ticker is the latest trade information for a symbol.
type Ticker struct {
	Symbol    string
	Last      decimal.Decimal
	UpdatedAt time.Time
}

// OrderReceipt is what the exchange reports back for a submitted order.
type OrderReceipt struct {
	OrderID       string
	ClientOrderID string
	Symbol        string
	Side          Side
	Status        string
	Requested     decimal.Decimal // amount submitted, base currency
	Executed      decimal.Decimal // amount filled, base currency; zero if not reported
	QuoteAmount   decimal.Decimal // quote currency spent or received; zero if not reported
	TransactedAt  time.Time
	Raw           []byte // exchange payload, for the journal
}

// FilledAmount returns the executed amount, or the requested amount when the
// exchange did not report fills.
func (r OrderReceipt) FilledAmount() decimal.Decimal {
	if r.Executed.IsPositive() {
		return r.Executed
	}
	return r.Requested
}

func (r OrderReceipt) String() string {
	return fmt.Sprintf("order_id=%s client_id=%s %s %s requested=%s executed=%s status=%s",
		r.OrderID, r.ClientOrderID, r.Side, r.Symbol, r.Requested, r.Executed, r.Status)
}
