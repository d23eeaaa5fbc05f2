package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"dipbot/internal/bot"
	"dipbot/internal/config"
	"dipbot/internal/logger"
	"dipbot/internal/transport/http/status"

	"golang.org/x/sync/errgroup"
)

// App owns the wired components and their lifetime.
type App struct {
	cfg     *config.Config
	bot     *bot.Bot
	status  *status.Server
	closers []io.Closer
	Summary *StartupSummary
}

// NewApp builds the application from cfg without starting it.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run starts the bot loop and, when configured, the status server. It
// returns nil after a clean shutdown.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil || a.bot == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.Summary != nil {
		a.Summary.Print()
	}

	group, gctx := errgroup.WithContext(ctx)
	if a.status != nil {
		group.Go(func() error {
			if err := a.status.Start(gctx); err != nil {
				return fmt.Errorf("status http server error: %w", err)
			}
			return nil
		})
	}
	group.Go(func() error {
		return a.bot.Run(gctx)
	})
	return group.Wait()
}

// Bot exposes the trading loop, for tests.
func (a *App) Bot() *bot.Bot {
	if a == nil {
		return nil
	}
	return a.bot
}

// Close releases stores and the instance lock, in reverse order of acquisition.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
