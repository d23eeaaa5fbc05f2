package bot

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"dipbot/internal/market"
	"dipbot/internal/state"
	"dipbot/internal/strategy"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu       sync.Mutex
	st       *state.TradingState
	loadErr  error
	saveErrs []error // consumed per Save call
	saves    int
}

func (m *memStore) Load(context.Context) (*state.TradingState, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.st == nil {
		return state.New(), nil
	}
	return m.st.Clone(), nil
}

func (m *memStore) Save(_ context.Context, st *state.TradingState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if len(m.saveErrs) > 0 {
		err := m.saveErrs[0]
		m.saveErrs = m.saveErrs[1:]
		if err != nil {
			return err
		}
	}
	m.st = st.Clone()
	return nil
}

func (m *memStore) Close() error { return nil }

// scriptedFeed returns one price map per call and cancels after the script runs out.
type scriptedFeed struct {
	script []map[string]string
	calls  int
	cancel context.CancelFunc
}

func (f *scriptedFeed) Fetch(_ context.Context, assets []string) market.Quotes {
	q := market.Quotes{Prices: map[string]decimal.Decimal{}, Failures: map[string]error{}}
	if f.calls < len(f.script) {
		for asset, p := range f.script[f.calls] {
			q.Prices[asset] = decimal.RequireFromString(p)
		}
	}
	f.calls++
	if f.calls >= len(f.script) && f.cancel != nil {
		f.cancel()
	}
	return q
}

type ruleEngine struct{}

func (ruleEngine) Evaluate(_ context.Context, st *state.TradingState, prices map[string]decimal.Decimal) []strategy.Outcome {
	return strategy.NewEngine(strategy.Params{
		Notional:      decimal.NewFromInt(5),
		DropThreshold: decimal.RequireFromString("0.05"),
		RiseThreshold: decimal.RequireFromString("0.1"),
	}, nil).Evaluate(context.Background(), st, prices)
}

type panicEngine struct{}

func (panicEngine) Evaluate(context.Context, *state.TradingState, map[string]decimal.Decimal) []strategy.Outcome {
	panic("boom")
}

func opts() Options {
	return Options{Assets: []string{"BTC", "ETH"}, Interval: time.Millisecond}
}

func TestRunBootstrapsReferencesAndStopsCleanly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	feed := &scriptedFeed{
		script: []map[string]string{
			{"BTC": "30000", "ETH": "3000"}, // bootstrap
			{"BTC": "29900", "ETH": "3100"},
		},
		cancel: cancel,
	}
	store := &memStore{}
	b := New(feed, ruleEngine{}, store, opts())

	require.NoError(t, b.Run(ctx))

	assert.Equal(t, 2, feed.calls)
	assert.Equal(t, 3, store.saves, "bootstrap, one cycle, final save")
	assert.True(t, store.st.Get("BTC").Reference.Decimal.Equal(decimal.RequireFromString("29900")))
	assert.True(t, store.st.Get("ETH").Reference.Decimal.Equal(decimal.RequireFromString("3000")))

	snap := b.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, int64(1), snap.Cycle)
	assert.True(t, snap.State.Equal(store.st))
	assert.Len(t, snap.Prices, 2)
}

func TestRunSkipsBootstrapWhenReferencesExist(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	existing := state.New()
	existing.Set("BTC", state.AssetState{Reference: decimal.NewNullDecimal(decimal.NewFromInt(100))})
	feed := &scriptedFeed{script: []map[string]string{{"BTC": "99"}}, cancel: cancel}
	store := &memStore{st: existing}

	require.NoError(t, New(feed, ruleEngine{}, store, opts()).Run(ctx))
	assert.Equal(t, 1, feed.calls)
	assert.True(t, store.st.Get("BTC").Reference.Decimal.Equal(decimal.NewFromInt(99)))
}

func TestRunInterruptedMidCycleSavesToSQLite(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store, err := state.OpenSQLite(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer store.Close()
	existing := state.New()
	existing.Set("BTC", state.AssetState{Reference: decimal.NewNullDecimal(decimal.NewFromInt(100))})
	require.NoError(t, store.Save(context.Background(), existing))

	// The feed cancels while the first cycle is fetching.
	feed := &scriptedFeed{script: []map[string]string{{"BTC": "98"}}, cancel: cancel}
	require.NoError(t, New(feed, ruleEngine{}, store, opts()).Run(ctx))

	st, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Get("BTC").Reference.Decimal.Equal(decimal.NewFromInt(98)))
}

func TestRunReturnsCycleErrorAfterFinalSave(t *testing.T) {
	existing := state.New()
	existing.Set("BTC", state.AssetState{Reference: decimal.NewNullDecimal(decimal.NewFromInt(100))})
	diskFull := errors.New("disk full")
	store := &memStore{st: existing, saveErrs: []error{diskFull}}
	feed := &scriptedFeed{script: []map[string]string{{"BTC": "98"}, {"BTC": "97"}}}

	err := New(feed, ruleEngine{}, store, opts()).Run(context.Background())
	assert.ErrorIs(t, err, diskFull)
	assert.Equal(t, 2, store.saves)
	assert.True(t, store.st.Get("BTC").Reference.Decimal.Equal(decimal.NewFromInt(98)), "final save persists the in-memory state")
}

func TestRunRecoversPanicAndSaves(t *testing.T) {
	existing := state.New()
	existing.Set("ETH", state.AssetState{Reference: decimal.NewNullDecimal(decimal.NewFromInt(3000))})
	store := &memStore{st: existing}
	feed := &scriptedFeed{script: []map[string]string{{"ETH": "2000"}, {"ETH": "2000"}}}

	err := New(feed, panicEngine{}, store, opts()).Run(context.Background())
	assert.ErrorContains(t, err, "panic")
	assert.Equal(t, 1, store.saves)
	assert.True(t, store.st.Equal(existing))
}

func TestRunDoesNotSaveWhenLoadFails(t *testing.T) {
	store := &memStore{loadErr: state.ErrInvalidDocument}
	err := New(&scriptedFeed{}, ruleEngine{}, store, opts()).Run(context.Background())
	assert.ErrorIs(t, err, state.ErrInvalidDocument)
	assert.Equal(t, 0, store.saves)
}
