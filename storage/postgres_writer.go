package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"flipscan/models"
)

// PostgresWriter archives opportunities to PostgreSQL for price-history
// analytics.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS opportunities (
			id                SERIAL PRIMARY KEY,
			buy_marketplace   VARCHAR(50)   NOT NULL,
			buy_title         TEXT          NOT NULL,
			buy_price         NUMERIC(10,2) NOT NULL,
			buy_link          TEXT          NOT NULL,
			sell_marketplace  VARCHAR(50)   NOT NULL,
			sell_title        TEXT          NOT NULL,
			sell_price        NUMERIC(10,2) NOT NULL,
			sell_link         TEXT          NOT NULL,
			profit            NUMERIC(10,2) NOT NULL,
			profit_percentage NUMERIC(8,2)  NOT NULL,
			similarity        NUMERIC(5,4)  NOT NULL,
			confidence        NUMERIC(5,2)  NOT NULL,
			net_profit        NUMERIC(10,2) NOT NULL,
			velocity_score    INT           NOT NULL,
			subcategory       TEXT          NOT NULL DEFAULT '',
			found_at          TIMESTAMPTZ   NOT NULL,
			estimated_sell_days INT         NOT NULL DEFAULT 0,
			UNIQUE (buy_link, sell_link, found_at)
		);

		CREATE INDEX IF NOT EXISTS idx_opportunities_subcategory ON opportunities(subcategory);
		CREATE INDEX IF NOT EXISTS idx_opportunities_found_at    ON opportunities(found_at);
		CREATE INDEX IF NOT EXISTS idx_opportunities_profit_pct  ON opportunities(profit_percentage);
	`)
	return err
}

// Write batch-inserts the given opportunities.
func (pw *PostgresWriter) Write(opportunities []*models.Opportunity) error {
	if len(opportunities) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(opportunities); i += batchSize {
		end := i + batchSize
		if end > len(opportunities) {
			end = len(opportunities)
		}
		if err := pw.insertBatch(opportunities[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(batch []*models.Opportunity) error {
	const cols = 17
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, o := range batch {
		base := idx * cols
		placeholders := make([]string, cols)
		for j := 0; j < cols; j++ {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			o.BuyMarketplace, o.BuyTitle, o.BuyPrice, o.BuyLink,
			o.SellMarketplace, o.SellTitle, o.SellPrice, o.SellLink,
			o.Profit, o.ProfitPercentage, o.Similarity, o.Confidence,
			o.NetProfit, o.VelocityScore, o.Subcategory, o.FoundAt,
			o.EstimatedSellDays,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO opportunities (
			buy_marketplace, buy_title, buy_price, buy_link,
			sell_marketplace, sell_title, sell_price, sell_link,
			profit, profit_percentage, similarity, confidence,
			net_profit, velocity_score, subcategory, found_at,
			estimated_sell_days
		)
		VALUES %s
		ON CONFLICT DO NOTHING
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	if err != nil {
		return fmt.Errorf("postgres: insert batch: %w", err)
	}
	return nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
