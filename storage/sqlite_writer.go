package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"flipscan/models"
)

// SQLiteWriter archives opportunities to an embedded SQLite database. It
// needs no external service, which makes it the default archive backend for
// single-machine deployments.
type SQLiteWriter struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLiteWriter opens (or creates) the database file at the given path and
// ensures the schema exists.
func NewSQLiteWriter(path string) (*SQLiteWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("sqlite: create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// modernc.org/sqlite serializes writes internally; a single connection
	// avoids SQLITE_BUSY under concurrent scans.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS opportunities (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			buy_marketplace     TEXT    NOT NULL,
			buy_title           TEXT    NOT NULL,
			buy_price           REAL    NOT NULL,
			buy_link            TEXT    NOT NULL,
			sell_marketplace    TEXT    NOT NULL,
			sell_title          TEXT    NOT NULL,
			sell_price          REAL    NOT NULL,
			sell_link           TEXT    NOT NULL,
			profit              REAL    NOT NULL,
			profit_percentage   REAL    NOT NULL,
			similarity          REAL    NOT NULL,
			confidence          REAL    NOT NULL,
			net_profit          REAL    NOT NULL,
			velocity_score      INTEGER NOT NULL,
			estimated_sell_days INTEGER NOT NULL,
			subcategory         TEXT    NOT NULL DEFAULT '',
			found_at            TEXT    NOT NULL,
			UNIQUE (buy_link, sell_link, found_at)
		);
		CREATE INDEX IF NOT EXISTS idx_opportunities_subcategory ON opportunities(subcategory);
		CREATE INDEX IF NOT EXISTS idx_opportunities_found_at    ON opportunities(found_at);
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}

	return &SQLiteWriter{db: db}, nil
}

// Write inserts the given opportunities in a single transaction.
func (s *SQLiteWriter) Write(opportunities []*models.Opportunity) error {
	if len(opportunities) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO opportunities (
			buy_marketplace, buy_title, buy_price, buy_link,
			sell_marketplace, sell_title, sell_price, sell_link,
			profit, profit_percentage, similarity, confidence,
			net_profit, velocity_score, estimated_sell_days,
			subcategory, found_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("sqlite: prepare: %w", err)
	}
	defer stmt.Close()

	for _, o := range opportunities {
		if _, err := stmt.Exec(
			o.BuyMarketplace, o.BuyTitle, o.BuyPrice, o.BuyLink,
			o.SellMarketplace, o.SellTitle, o.SellPrice, o.SellLink,
			o.Profit, o.ProfitPercentage, o.Similarity, o.Confidence,
			o.NetProfit, o.VelocityScore, o.EstimatedSellDays,
			o.Subcategory, o.FoundAt.UTC().Format("2006-01-02T15:04:05Z"),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("sqlite: insert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

func (s *SQLiteWriter) Close() error {
	return s.db.Close()
}
