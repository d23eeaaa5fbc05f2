package state

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleState() *TradingState {
	st := New()
	st.Set("BTC", AssetState{
		Reference: decimal.NewNullDecimal(d("95")),
		Position:  &Position{Amount: d("0.0002"), BuyPrice: d("95")},
	})
	st.Set("ETH", AssetState{Reference: decimal.NewNullDecimal(d("3000.5"))})
	return st
}

func TestTradingStateCloneIsIndependent(t *testing.T) {
	st := sampleState()
	cp := st.Clone()
	assert.True(t, st.Equal(cp))

	btc := cp.Get("BTC")
	btc.Position.Amount = d("1")
	assert.True(t, st.Get("BTC").Position.Amount.Equal(d("0.0002")), "Get must hand out copies")

	cp.Set("BTC", btc)
	assert.True(t, st.Get("BTC").Position.Amount.Equal(d("0.0002")))
	assert.False(t, st.Equal(cp))
}

func TestTradingStateQueries(t *testing.T) {
	st := sampleState()
	assert.Equal(t, []string{"BTC", "ETH"}, st.Assets())
	assert.Equal(t, []string{"BTC"}, st.Holdings())
	assert.True(t, st.HasReferences())
	assert.False(t, New().HasReferences())
	assert.True(t, st.Get("DOGE").Empty())

	st.Set("ETH", AssetState{})
	assert.Equal(t, 1, st.Len())
}

func TestAssetStateWithReference(t *testing.T) {
	as := AssetState{}
	next := as.WithReference(d("10"))
	assert.False(t, as.HasReference())
	assert.True(t, next.HasReference())
	assert.False(t, next.Holding())
}
