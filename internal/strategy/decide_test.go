package strategy

import (
	"testing"

	"dipbot/internal/config"
	"dipbot/internal/state"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func defaultParams() Params {
	return ParamsFromConfig(config.Default().Trading)
}

func flat(ref string) state.AssetState {
	return state.AssetState{Reference: decimal.NewNullDecimal(dec(ref))}
}

func holding(ref, amount, buy string) state.AssetState {
	st := flat(ref)
	st.Position = &state.Position{Amount: dec(amount), BuyPrice: dec(buy)}
	return st
}

func TestParamsFromConfigAreExact(t *testing.T) {
	p := defaultParams()
	assert.Equal(t, "5", p.Notional.String())
	assert.Equal(t, "0.05", p.DropThreshold.String())
	assert.Equal(t, "0.1", p.RiseThreshold.String())
}

func TestDecide(t *testing.T) {
	cases := []struct {
		name    string
		st      state.AssetState
		price   string
		action  Action
		nextRef string
	}{
		{name: "first observation seeds reference", st: state.AssetState{}, price: "30000", action: ActionSeed, nextRef: "30000"},
		{name: "holding without reference seeds instead of selling", st: state.AssetState{Position: &state.Position{Amount: dec("0.0002"), BuyPrice: dec("95")}}, price: "200", action: ActionSeed, nextRef: "200"},
		{name: "drop of exactly 5% buys", st: flat("100"), price: "95.00", action: ActionBuy, nextRef: "100"},
		{name: "deeper drop buys", st: flat("100"), price: "80", action: ActionBuy, nextRef: "100"},
		{name: "small drop ratchets reference", st: flat("100"), price: "95.01", action: ActionRatchet, nextRef: "95.01"},
		{name: "rise while flat keeps reference", st: flat("100"), price: "120", action: ActionNone, nextRef: "100"},
		{name: "equal price is no change", st: flat("100"), price: "100", action: ActionNone, nextRef: "100"},
		{name: "rise just under 10% holds", st: holding("95", "0.0002", "95"), price: "104.49", action: ActionNone, nextRef: "95"},
		{name: "rise of exactly 10% sells", st: holding("95", "0.0002", "95"), price: "104.50", action: ActionSell, nextRef: "95"},
		{name: "falling while holding does not track reference", st: holding("95", "0.0002", "95"), price: "50", action: ActionNone, nextRef: "95"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := tc.st.Clone()
			d := Decide("BTC", tc.st, dec(tc.price), defaultParams())
			assert.Equal(t, tc.action, d.Action)
			assert.True(t, d.Next.Reference.Decimal.Equal(dec(tc.nextRef)), "next reference %s", d.Next.Reference.Decimal)
			assert.True(t, tc.st.Equal(before), "Decide must not mutate its input")
		})
	}
}

func TestDecideSeedKeepsPosition(t *testing.T) {
	st := state.AssetState{Position: &state.Position{Amount: dec("0.0002"), BuyPrice: dec("95")}}
	d := Decide("BTC", st, dec("200"), defaultParams())
	assert.Equal(t, ActionSeed, d.Action)
	assert.True(t, d.Amount.IsZero())
	if assert.NotNil(t, d.Next.Position) {
		assert.True(t, d.Next.Position.Amount.Equal(dec("0.0002")))
		assert.True(t, d.Next.Position.BuyPrice.Equal(dec("95")))
	}
}

func TestDecideSellUsesWholePosition(t *testing.T) {
	d := Decide("ETH", holding("3000", "0.0017", "3000"), dec("3300"), defaultParams())
	assert.Equal(t, ActionSell, d.Action)
	assert.Equal(t, "0.0017", d.Amount.String())
	assert.Equal(t, "0.1", d.Delta.String())
}

func TestDecideReferenceNeverRisesWhileFlat(t *testing.T) {
	st := state.AssetState{}
	prices := []string{"100", "99", "101", "97", "98.5", "96.1", "130"}
	lowest := dec("100")
	for _, p := range prices {
		d := Decide("ADA", st, dec(p), defaultParams())
		assert.NotEqual(t, ActionBuy, d.Action)
		st = d.Next
		if dec(p).LessThan(lowest) {
			lowest = dec(p)
		}
		assert.True(t, st.Reference.Decimal.Equal(lowest))
	}
}

func TestAfterTransitions(t *testing.T) {
	bought := AfterBuy(dec("95"), dec("0.0002"))
	assert.True(t, bought.Holding())
	assert.True(t, bought.Reference.Decimal.Equal(dec("95")))

	sold := AfterSell(dec("104.5"))
	assert.False(t, sold.Holding())
	assert.True(t, sold.Reference.Decimal.Equal(dec("104.5")))
}
