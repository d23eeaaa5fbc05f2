// Package bot runs the fetch, evaluate and save cycle until shutdown.
package bot

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"dipbot/internal/logger"
	"dipbot/internal/market"
	"dipbot/internal/scheduler"
	"dipbot/internal/state"
	"dipbot/internal/strategy"

	"github.com/shopspring/decimal"
)

const finalSaveTimeout = 30 * time.Second

// PriceFeed returns the latest price per asset.
type PriceFeed interface {
	Fetch(ctx context.Context, assets []string) market.Quotes
}

// Evaluator applies one cycle of prices to the trading state.
type Evaluator interface {
	Evaluate(ctx context.Context, st *state.TradingState, prices map[string]decimal.Decimal) []strategy.Outcome
}

// Snapshot is an immutable view of the bot after a cycle.
type Snapshot struct {
	State     *state.TradingState
	Prices    map[string]decimal.Decimal
	Failures  map[string]string
	Cycle     int64
	UpdatedAt time.Time
}

type Options struct {
	Assets   []string
	Interval time.Duration
}

type Bot struct {
	assets   []string
	interval time.Duration
	feed     PriceFeed
	engine   Evaluator
	store    state.Store

	cycles   int64
	snapshot atomic.Pointer[Snapshot]
	nowFn    func() time.Time
}

func New(feed PriceFeed, engine Evaluator, store state.Store, opts Options) *Bot {
	return &Bot{
		assets:   append([]string(nil), opts.Assets...),
		interval: opts.Interval,
		feed:     feed,
		engine:   engine,
		store:    store,
		nowFn:    time.Now,
	}
}

// Snapshot returns the state published after the latest cycle, or nil before the first.
func (b *Bot) Snapshot() *Snapshot {
	return b.snapshot.Load()
}

// Run loads the state and cycles until ctx is cancelled. Cancellation is a
// clean stop and returns nil. A cycle error or panic ends the loop and is
// returned. Once the state has loaded, a final save is attempted on every path.
func (b *Bot) Run(ctx context.Context) (err error) {
	st, err := b.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load trading state: %w", err)
	}
	logger.Infof("[bot] loaded state: %d assets, holding %v", st.Len(), st.Holdings())
	b.publish(st, market.Quotes{})

	defer func() {
		if saveErr := b.finalSave(ctx, st); saveErr != nil {
			err = errors.Join(err, saveErr)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("bot panic: %v", r)
			logger.Errorf("[bot] %v\n%s", err, debug.Stack())
		}
	}()

	if err := b.bootstrap(ctx, st); err != nil {
		logger.Errorf("[bot] bootstrap failed: %v", err)
		return err
	}

	sched := scheduler.NewInterval(ctx, b.interval)
	sched.Name = "bot"
	if err := sched.Run(func(ctx context.Context) error { return b.safeCycle(ctx, st) }); err != nil {
		logger.Errorf("[bot] loop stopped: %v", err)
		return err
	}
	logger.Infof("[bot] shutdown requested, stopping")
	return nil
}

// bootstrap seeds every reference price once when the state has none.
func (b *Bot) bootstrap(ctx context.Context, st *state.TradingState) error {
	if st.HasReferences() {
		return nil
	}
	if ctx.Err() != nil {
		return nil
	}
	logger.Infof("[bot] no reference prices recorded, seeding from current prices")
	quotes := b.feed.Fetch(ctx, b.assets)
	for _, asset := range quotes.Assets() {
		price := quotes.Prices[asset]
		st.Set(asset, st.Get(asset).WithReference(price))
		logger.Infof("[bot] %s reference seeded at %s", asset, price)
	}
	if err := b.store.Save(context.WithoutCancel(ctx), st); err != nil {
		return fmt.Errorf("save seeded state: %w", err)
	}
	b.publish(st, quotes)
	return nil
}

func (b *Bot) safeCycle(ctx context.Context, st *state.TradingState) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panic: %v", r)
			logger.Errorf("[bot] %v\n%s", err, debug.Stack())
		}
	}()
	return b.cycle(ctx, st)
}

func (b *Bot) cycle(ctx context.Context, st *state.TradingState) error {
	n := atomic.AddInt64(&b.cycles, 1)
	logger.Infof("[bot] cycle %d start: %d assets", n, len(b.assets))
	quotes := b.feed.Fetch(ctx, b.assets)
	outcomes := b.engine.Evaluate(ctx, st, quotes.Prices)
	trades, failed := 0, 0
	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			failed++
		case o.Applied && (o.Action == strategy.ActionBuy || o.Action == strategy.ActionSell):
			trades++
		}
	}
	// An interrupt during the cycle must not lose what it already did.
	if err := b.store.Save(context.WithoutCancel(ctx), st); err != nil {
		return fmt.Errorf("cycle %d: save trading state: %w", n, err)
	}
	b.publish(st, quotes)
	logger.Infof("[bot] cycle %d done: priced=%d skipped=%d trades=%d failed_orders=%d",
		n, len(quotes.Prices), len(quotes.Failures), trades, failed)
	return nil
}

func (b *Bot) finalSave(ctx context.Context, st *state.TradingState) error {
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalSaveTimeout)
	defer cancel()
	if err := b.store.Save(saveCtx, st); err != nil {
		logger.Errorf("[bot] final state save failed: %v", err)
		return fmt.Errorf("final save: %w", err)
	}
	logger.Infof("[bot] final state saved (%d assets)", st.Len())
	return nil
}

func (b *Bot) publish(st *state.TradingState, quotes market.Quotes) {
	snap := &Snapshot{
		State:     st.Clone(),
		Prices:    make(map[string]decimal.Decimal, len(quotes.Prices)),
		Failures:  make(map[string]string, len(quotes.Failures)),
		Cycle:     atomic.LoadInt64(&b.cycles),
		UpdatedAt: b.nowFn().UTC(),
	}
	for asset, p := range quotes.Prices {
		snap.Prices[asset] = p
	}
	for asset, err := range quotes.Failures {
		snap.Failures[asset] = err.Error()
	}
	b.snapshot.Store(snap)
}
