// Package state holds the per-asset decision state of the bot and the
// stores that persist it between runs.
package state

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Position is an open holding. Amount and BuyPrice always travel together so
// a half-recorded holding cannot exist.
type Position struct {
	Amount   decimal.Decimal
	BuyPrice decimal.Decimal
}

// AssetState is the decision state of one asset. Flat when Position is nil.
type AssetState struct {
	Reference decimal.NullDecimal
	Position  *Position
}

func (a AssetState) Holding() bool { return a.Position != nil }

func (a AssetState) HasReference() bool { return a.Reference.Valid }

func (a AssetState) Empty() bool { return !a.Reference.Valid && a.Position == nil }

// WithReference returns a copy of a with the reference price set to p.
func (a AssetState) WithReference(p decimal.Decimal) AssetState {
	out := a.Clone()
	out.Reference = decimal.NewNullDecimal(p)
	return out
}

func (a AssetState) Clone() AssetState {
	out := AssetState{Reference: a.Reference}
	if a.Position != nil {
		pos := *a.Position
		out.Position = &pos
	}
	return out
}

// Equal compares numeric values, ignoring decimal representation.
func (a AssetState) Equal(b AssetState) bool {
	if a.Reference.Valid != b.Reference.Valid {
		return false
	}
	if a.Reference.Valid && !a.Reference.Decimal.Equal(b.Reference.Decimal) {
		return false
	}
	if (a.Position == nil) != (b.Position == nil) {
		return false
	}
	if a.Position == nil {
		return true
	}
	return a.Position.Amount.Equal(b.Position.Amount) && a.Position.BuyPrice.Equal(b.Position.BuyPrice)
}

// TradingState maps asset symbols to their AssetState. It has a single writer.
type TradingState struct {
	assets map[string]AssetState
}

func New() *TradingState {
	return &TradingState{assets: make(map[string]AssetState)}
}

// Get returns the state of asset, or the zero AssetState if it was never observed.
func (s *TradingState) Get(asset string) AssetState {
	if s == nil {
		return AssetState{}
	}
	return s.assets[asset]
}

// Set replaces the state of asset. An empty AssetState removes the entry.
func (s *TradingState) Set(asset string, st AssetState) {
	if st.Empty() {
		delete(s.assets, asset)
		return
	}
	s.assets[asset] = st.Clone()
}

// Assets returns the recorded asset symbols, sorted.
func (s *TradingState) Assets() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.assets))
	for asset := range s.assets {
		out = append(out, asset)
	}
	sort.Strings(out)
	return out
}

func (s *TradingState) Len() int {
	if s == nil {
		return 0
	}
	return len(s.assets)
}

// HasReferences reports whether any asset has a reference price recorded.
func (s *TradingState) HasReferences() bool {
	if s == nil {
		return false
	}
	for _, st := range s.assets {
		if st.HasReference() {
			return true
		}
	}
	return false
}

// Holdings returns the assets with an open position, sorted.
func (s *TradingState) Holdings() []string {
	var out []string
	for _, asset := range s.Assets() {
		if s.assets[asset].Holding() {
			out = append(out, asset)
		}
	}
	return out
}

func (s *TradingState) Clone() *TradingState {
	out := New()
	if s == nil {
		return out
	}
	for asset, st := range s.assets {
		out.assets[asset] = st.Clone()
	}
	return out
}

// Equal reports whether both states hold numerically equal entries for the same assets.
func (s *TradingState) Equal(other *TradingState) bool {
	if s.Len() != other.Len() {
		return false
	}
	for _, asset := range s.Assets() {
		o, ok := other.assets[asset]
		if !ok || !s.assets[asset].Equal(o) {
			return false
		}
	}
	return true
}
