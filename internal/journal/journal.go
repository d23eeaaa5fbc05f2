// Package journal keeps an append-only record of every order the bot submits.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dipbot/internal/pkg/text"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const maxErrorBytes = 512

const (
	StatusFilled = "filled"
	StatusFailed = "failed"
)

// Entry is one order attempt, successful or not.
type Entry struct {
	ID            int64           `json:"id"`
	Exchange      string          `json:"exchange"`
	Asset         string          `json:"asset"`
	Symbol        string          `json:"symbol"`
	Side          string          `json:"side"`
	Status        string          `json:"status"`
	Amount        string          `json:"amount"`
	Price         string          `json:"price"`
	QuoteAmount   string          `json:"quote_amount,omitempty"`
	OrderID       string          `json:"order_id,omitempty"`
	ClientOrderID string          `json:"client_order_id,omitempty"`
	Error         string          `json:"error,omitempty"`
	Raw           json.RawMessage `json:"raw,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Recorder is what the order executor writes to.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Reader lists recent entries, newest first.
type Reader interface {
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

type tradeModel struct {
	ID            int64          `gorm:"column:id;primaryKey"`
	Exchange      string         `gorm:"column:exchange"`
	Asset         string         `gorm:"column:asset;index"`
	Symbol        string         `gorm:"column:symbol"`
	Side          string         `gorm:"column:side"`
	Status        string         `gorm:"column:status"`
	Amount        string         `gorm:"column:amount"`
	Price         string         `gorm:"column:price"`
	QuoteAmount   string         `gorm:"column:quote_amount"`
	OrderID       string         `gorm:"column:order_id"`
	ClientOrderID string         `gorm:"column:client_order_id"`
	Error         string         `gorm:"column:error"`
	Raw           datatypes.JSON `gorm:"column:raw;type:TEXT"`
	CreatedAtUnix int64          `gorm:"column:created_at;index"`
}

func (tradeModel) TableName() string { return "trades" }

// Journal stores entries in a SQLite database through gorm.
type Journal struct {
	db *gorm.DB
}

var (
	_ Recorder = (*Journal)(nil)
	_ Reader   = (*Journal)(nil)
)

func Open(path string) (*Journal, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("journal path is empty")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&tradeModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (j *Journal) Record(ctx context.Context, e Entry) error {
	if j == nil || j.db == nil {
		return nil
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	m := tradeModel{
		Exchange:      e.Exchange,
		Asset:         e.Asset,
		Symbol:        e.Symbol,
		Side:          e.Side,
		Status:        e.Status,
		Amount:        e.Amount,
		Price:         e.Price,
		QuoteAmount:   e.QuoteAmount,
		OrderID:       e.OrderID,
		ClientOrderID: e.ClientOrderID,
		Error:         text.Truncate(e.Error, maxErrorBytes),
		CreatedAtUnix: e.CreatedAt.UnixMilli(),
	}
	if len(e.Raw) > 0 && json.Valid(e.Raw) {
		m.Raw = datatypes.JSON(e.Raw)
	}
	if err := j.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("journal %s %s: %w", e.Side, e.Asset, err)
	}
	return nil
}

func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if j == nil || j.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	var rows []tradeModel
	if err := j.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(rows))
	for _, m := range rows {
		e := Entry{
			ID:            m.ID,
			Exchange:      m.Exchange,
			Asset:         m.Asset,
			Symbol:        m.Symbol,
			Side:          m.Side,
			Status:        m.Status,
			Amount:        m.Amount,
			Price:         m.Price,
			QuoteAmount:   m.QuoteAmount,
			OrderID:       m.OrderID,
			ClientOrderID: m.ClientOrderID,
			Error:         m.Error,
			CreatedAt:     time.UnixMilli(m.CreatedAtUnix).UTC(),
		}
		if len(m.Raw) > 0 {
			e.Raw = json.RawMessage(m.Raw)
		}
		out = append(out, e)
	}
	return out, nil
}

// Nop discards entries; used when the journal is disabled.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }

func (Nop) Recent(context.Context, int) ([]Entry, error) { return nil, nil }
