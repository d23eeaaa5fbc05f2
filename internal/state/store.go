package state

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dipbot/internal/config"
)

// Store loads and saves the trading state.
type Store interface {
	Load(ctx context.Context) (*TradingState, error)
	Save(ctx context.Context, st *TradingState) error
	Close() error
}

// Open builds the store selected by state.backend.
func Open(cfg config.StateConfig) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "file":
		return NewFileStore(path)
	case "sqlite":
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create state directory: %w", err)
			}
		}
		return OpenSQLite(path)
	default:
		return nil, &config.ConfigurationError{Key: "state.backend", Reason: fmt.Sprintf("unsupported backend %q", cfg.Backend)}
	}
}
