package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"dipbot/internal/bot"
	"dipbot/internal/config"
	"dipbot/internal/executor"
	"dipbot/internal/gateway"
	"dipbot/internal/gateway/exchange"
	"dipbot/internal/gateway/notifier"
	"dipbot/internal/journal"
	"dipbot/internal/logger"
	"dipbot/internal/market"
	"dipbot/internal/state"
	"dipbot/internal/strategy"
	"dipbot/internal/transport/http/status"

	"github.com/shopspring/decimal"
)

type AppBuilder struct {
	cfg *config.Config

	exchangeFn func(*config.Config) (exchange.Exchange, error)
	storeFn    func(config.StateConfig) (state.Store, error)
	journalFn  func(config.JournalConfig) (journalHandle, error)
	notifierFn func(config.TelegramConfig) notifier.TextNotifier
	lockFn     func(path string) (io.Closer, error)
}

// journalHandle is a journal that may need closing.
type journalHandle interface {
	journal.Recorder
	journal.Reader
}

type AppBuilderOption func(*AppBuilder)

// WithExchange replaces the registry lookup, for tests and embedding.
func WithExchange(ex exchange.Exchange) AppBuilderOption {
	return func(b *AppBuilder) {
		b.exchangeFn = func(*config.Config) (exchange.Exchange, error) { return ex, nil }
	}
}

// WithoutLock skips the single-instance lock.
func WithoutLock() AppBuilderOption {
	return func(b *AppBuilder) {
		b.lockFn = func(string) (io.Closer, error) { return nil, nil }
	}
}

func NewAppBuilder(cfg *config.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:        cfg,
		exchangeFn: gateway.NewExchangeFromConfig,
		storeFn:    state.Open,
		journalFn:  openJournal,
		notifierFn: buildNotifier,
		lockFn:     lockCloser,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *AppBuilder) Build(ctx context.Context) (app *App, err error) {
	if b == nil || b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg
	a := &App{cfg: cfg}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	lock, err := b.lockFn(cfg.ResolvedLockPath())
	if err != nil {
		return nil, err
	}
	if lock != nil {
		a.closers = append(a.closers, lock)
	}

	ex, err := b.exchangeFn(cfg)
	if err != nil {
		return nil, err
	}
	store, err := b.storeFn(cfg.State)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}
	a.closers = append(a.closers, store)
	if acct, ok := ex.(depositor); ok {
		restoreSimulatedHoldings(ctx, acct, store)
	}

	jr, err := b.journalFn(cfg.Journal)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if c, ok := jr.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	exec := executor.New(ex, executor.Options{
		Quote:            cfg.Trading.Quote,
		DefaultPrecision: cfg.Trading.DefaultPrecision,
		Journal:          jr,
		Notifier:         b.notifierFn(cfg.Notify.Telegram),
	})
	params := strategy.ParamsFromConfig(cfg.Trading)
	engine := strategy.NewEngine(params, exec)
	feed := market.NewFeed(ex, cfg.Trading.Quote)
	a.bot = bot.New(feed, engine, store, bot.Options{
		Assets:   cfg.Trading.Assets,
		Interval: cfg.Trading.PollInterval(),
	})

	if addr := strings.TrimSpace(cfg.App.HTTPAddr); addr != "" {
		srvCfg := status.ServerConfig{
			Addr:     addr,
			Source:   a.bot,
			Exchange: ex.Name(),
			Quote:    cfg.Trading.Quote,
		}
		if cfg.Journal.Enabled {
			srvCfg.Journal = jr
		}
		srv, err := status.NewServer(srvCfg)
		if err != nil {
			return nil, err
		}
		a.status = srv
	}

	a.Summary = buildSummary(cfg, ex.Name(), params)
	logger.Infof("[app] exchange=%s state=%s:%s assets=%v", ex.Name(), cfg.State.Backend, cfg.State.Path, cfg.Trading.Assets)
	return a, nil
}

// depositor is a simulated account whose balances start empty on every run.
type depositor interface {
	Deposit(currency string, amount decimal.Decimal)
}

// restoreSimulatedHoldings credits the persisted positions to a simulated
// account so they can be sold after a restart. A load failure is left for
// the bot to report.
func restoreSimulatedHoldings(ctx context.Context, acct depositor, store state.Store) {
	st, err := store.Load(ctx)
	if err != nil {
		logger.Warnf("[app] simulated balances not restored: %v", err)
		return
	}
	for _, asset := range st.Holdings() {
		pos := st.Get(asset).Position
		acct.Deposit(asset, pos.Amount)
		logger.Infof("[app] simulated balance restored: %s %s", pos.Amount, asset)
	}
}

func openJournal(cfg config.JournalConfig) (journalHandle, error) {
	if !cfg.Enabled {
		return journal.Nop{}, nil
	}
	return journal.Open(cfg.Path)
}

func buildNotifier(cfg config.TelegramConfig) notifier.TextNotifier {
	if !cfg.Enabled {
		return notifier.Nop{}
	}
	return notifier.NewTelegram(cfg.BotToken, cfg.ChatID)
}

type lockRelease struct {
	release func() error
}

func (l lockRelease) Close() error { return l.release() }

func lockCloser(path string) (io.Closer, error) {
	flock, err := acquireLock(path)
	if err != nil {
		return nil, err
	}
	return lockRelease{release: flock.Unlock}, nil
}
