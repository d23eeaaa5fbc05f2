package strategy

import (
	"context"
	"sort"

	"dipbot/internal/executor"
	"dipbot/internal/gateway/exchange"
	"dipbot/internal/logger"
	"dipbot/internal/state"

	"github.com/shopspring/decimal"
)

// OrderPlacer is the part of the order executor the engine drives.
type OrderPlacer interface {
	Buy(ctx context.Context, asset string, notional, priceHint decimal.Decimal) (executor.Fill, error)
	Sell(ctx context.Context, asset string, amount decimal.Decimal) (exchange.OrderReceipt, error)
}

// Outcome reports what happened to one asset during Evaluate.
type Outcome struct {
	Decision
	Applied bool  // state was changed
	Err     error // order failure; state left untouched
}

// Engine drives Decide across one cycle of prices and places the orders it asks for.
type Engine struct {
	params Params
	orders OrderPlacer
}

func NewEngine(params Params, orders OrderPlacer) *Engine {
	return &Engine{params: params, orders: orders}
}

func (e *Engine) Params() Params { return e.params }

// Evaluate applies one cycle of prices to st, in asset order. A failed order
// leaves the asset exactly as it was and the remaining assets are still evaluated.
func (e *Engine) Evaluate(ctx context.Context, st *state.TradingState, prices map[string]decimal.Decimal) []Outcome {
	assets := make([]string, 0, len(prices))
	for asset := range prices {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	out := make([]Outcome, 0, len(assets))
	for _, asset := range assets {
		out = append(out, e.evaluateOne(ctx, st, asset, prices[asset]))
	}
	return out
}

func (e *Engine) evaluateOne(ctx context.Context, st *state.TradingState, asset string, price decimal.Decimal) Outcome {
	d := Decide(asset, st.Get(asset), price, e.params)
	o := Outcome{Decision: d}
	switch d.Action {
	case ActionSeed:
		logger.Infof("[strategy] %s reference initialised at %s", asset, price)
		st.Set(asset, d.Next)
		o.Applied = true
	case ActionRatchet:
		logger.Infof("[strategy] %s reference updated %s -> %s", asset, d.Basis, price)
		st.Set(asset, d.Next)
		o.Applied = true
	case ActionBuy:
		logger.Infof("[strategy] %s down %s%% from reference %s at %s, buying %s", asset, pct(d.Delta), d.Basis, price, e.params.Notional)
		fill, err := e.orders.Buy(ctx, asset, e.params.Notional, price)
		if err != nil {
			logger.Warnf("[strategy] %s buy failed, state unchanged: %v", asset, err)
			o.Err = err
			return o
		}
		o.Next = AfterBuy(price, fill.Amount)
		st.Set(asset, o.Next)
		o.Applied = true
		logger.Infof("[strategy] %s now holding %s bought at %s", asset, fill.Amount, price)
	case ActionSell:
		logger.Infof("[strategy] %s up %s%% from buy price %s at %s, selling %s", asset, pct(d.Delta), d.Basis, price, d.Amount)
		if _, err := e.orders.Sell(ctx, asset, d.Amount); err != nil {
			logger.Warnf("[strategy] %s sell failed, state unchanged: %v", asset, err)
			o.Err = err
			return o
		}
		o.Next = AfterSell(price)
		st.Set(asset, o.Next)
		o.Applied = true
		logger.Infof("[strategy] %s position closed, reference reset to %s", asset, price)
	default:
		logger.Debugf("[strategy] %s no action: %s", asset, d)
	}
	return o
}

func pct(delta decimal.Decimal) string {
	return delta.Abs().Mul(decimal.NewFromInt(100)).StringFixed(2)
}
