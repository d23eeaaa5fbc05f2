// Package strategy implements the dip-buying rule: a per-asset reference
// price ratchets down while flat, a fixed-notional buy fires on a drop below
// it, and the whole position is sold on a rise above the buy price.
package strategy

import (
	"fmt"

	"dipbot/internal/config"
	"dipbot/internal/state"

	"github.com/shopspring/decimal"
)

// Action is what one observation does to an asset.
type Action string

const (
	ActionNone    Action = "none"
	ActionSeed    Action = "seed"    // first observation sets the reference
	ActionRatchet Action = "ratchet" // reference moves down while flat
	ActionBuy     Action = "buy"
	ActionSell    Action = "sell"
)

// Params are the rule thresholds. Thresholds are fractions: 0.05 is 5%.
type Params struct {
	Notional      decimal.Decimal
	DropThreshold decimal.Decimal
	RiseThreshold decimal.Decimal
}

// ParamsFromConfig converts the float config values to exact decimals.
func ParamsFromConfig(cfg config.TradingConfig) Params {
	return Params{
		Notional:      decimal.NewFromFloat(cfg.BuyNotional),
		DropThreshold: decimal.NewFromFloat(cfg.DropThreshold),
		RiseThreshold: decimal.NewFromFloat(cfg.RiseThreshold),
	}
}

// Decision is what Decide wants to happen to one asset. For ActionSeed and
// ActionRatchet, Next is the state to apply; order actions compute theirs
// only after the order succeeds.
type Decision struct {
	Asset  string
	Action Action
	Price  decimal.Decimal
	Basis  decimal.Decimal // reference price when flat, buy price when holding
	Delta  decimal.Decimal // (price - basis) / basis
	Amount decimal.Decimal // sell amount; zero otherwise
	Next   state.AssetState
}

func (d Decision) String() string {
	return fmt.Sprintf("%s %s price=%s basis=%s delta=%s", d.Asset, d.Action, d.Price, d.Basis, d.Delta.StringFixed(4))
}

// Decide is pure: it never touches the exchange or mutates st.
func Decide(asset string, st state.AssetState, price decimal.Decimal, p Params) Decision {
	d := Decision{Asset: asset, Action: ActionNone, Price: price, Next: st.Clone()}
	// A missing reference is seeded before anything else, even for a held
	// position, and never trades on the same observation.
	if !st.HasReference() {
		d.Action = ActionSeed
		d.Basis = price
		d.Next = st.WithReference(price)
		return d
	}

	one := decimal.NewFromInt(1)
	if st.Holding() {
		buy := st.Position.BuyPrice
		d.Basis = buy
		d.Delta = relativeChange(price, buy)
		// Compared as price >= buy*(1+rise) so the boundary is exact.
		if price.GreaterThanOrEqual(buy.Mul(one.Add(p.RiseThreshold))) {
			d.Action = ActionSell
			d.Amount = st.Position.Amount
		}
		return d
	}

	ref := st.Reference.Decimal
	d.Basis = ref
	d.Delta = relativeChange(price, ref)
	switch {
	case price.LessThanOrEqual(ref.Mul(one.Sub(p.DropThreshold))):
		d.Action = ActionBuy
	case price.LessThan(ref):
		d.Action = ActionRatchet
		d.Next = st.WithReference(price)
	}
	return d
}

func relativeChange(price, basis decimal.Decimal) decimal.Decimal {
	if basis.IsZero() {
		return decimal.Zero
	}
	return price.Sub(basis).DivRound(basis, 16)
}

// AfterBuy is the state once a buy of amount at price has filled.
func AfterBuy(price, amount decimal.Decimal) state.AssetState {
	return state.AssetState{
		Reference: decimal.NewNullDecimal(price),
		Position:  &state.Position{Amount: amount, BuyPrice: price},
	}
}

// AfterSell is the flat state once the position has been sold at price.
func AfterSell(price decimal.Decimal) state.AssetState {
	return state.AssetState{Reference: decimal.NewNullDecimal(price)}
}
