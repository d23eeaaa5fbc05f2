package state

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps one row per asset.
type SQLiteStore struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the sqlite database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("state path is empty")
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, path: path}, nil
}

func (s *SQLiteStore) String() string { return "sqlite:" + s.path }

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) handle() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, fmt.Errorf("state store is closed")
	}
	return s.db, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*TradingState, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT asset, reference_price, holding_amount, buy_price FROM asset_state`)
	if err != nil {
		return nil, fmt.Errorf("query asset_state: %w", err)
	}
	defer rows.Close()

	doc := Document{Holdings: numberMap{}, BuyPrices: numberMap{}, ReferencePrices: numberMap{}}
	for rows.Next() {
		var (
			asset                     string
			reference, amount, bought sql.NullString
		)
		if err := rows.Scan(&asset, &reference, &amount, &bought); err != nil {
			return nil, err
		}
		if err := putColumn(doc.ReferencePrices, asset, reference); err != nil {
			return nil, err
		}
		if err := putColumn(doc.Holdings, asset, amount); err != nil {
			return nil, err
		}
		if err := putColumn(doc.BuyPrices, asset, bought); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return doc.State()
}

func putColumn(dst numberMap, asset string, col sql.NullString) error {
	if !col.Valid {
		return nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(col.String))
	if err != nil {
		return fmt.Errorf("%w: %s value %q: %v", ErrInvalidDocument, asset, col.String, err)
	}
	dst[asset] = d
	return nil
}

// Save rewrites the table in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, st *TradingState) error {
	db, err := s.handle()
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM asset_state`); err != nil {
		return fmt.Errorf("clear asset_state: %w", err)
	}
	now := time.Now().UnixMilli()
	for _, asset := range st.Assets() {
		as := st.Get(asset)
		var reference, amount, bought any
		if as.Reference.Valid {
			reference = as.Reference.Decimal.String()
		}
		if as.Position != nil {
			amount = as.Position.Amount.String()
			bought = as.Position.BuyPrice.String()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO asset_state(asset, reference_price, holding_amount, buy_price, updated_at)
			VALUES (?, ?, ?, ?, ?)`, asset, reference, amount, bought, now); err != nil {
			return fmt.Errorf("write %s: %w", asset, err)
		}
	}
	return tx.Commit()
}

func ensureSchema(db *sql.DB) error {
	stmt := `
	CREATE TABLE IF NOT EXISTS asset_state (
		asset TEXT PRIMARY KEY,
		reference_price TEXT,
		holding_amount TEXT,
		buy_price TEXT,
		updated_at INTEGER NOT NULL
	);`
	_, err := db.Exec(stmt)
	return err
}
