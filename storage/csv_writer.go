package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"flipscan/models"
)

// CSVWriter appends discovered opportunities to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	if err := w.Write([]string{
		"buy_marketplace", "buy_title", "buy_price", "buy_link", "buy_condition",
		"sell_marketplace", "sell_title", "sell_price", "sell_link", "sell_condition",
		"profit", "profit_percentage", "similarity", "confidence",
		"platform_fee", "payment_fee", "estimated_tax", "shipping",
		"net_profit", "net_profit_percentage", "velocity_score", "estimated_sell_days",
		"subcategory", "found_at",
	}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// Write appends the given opportunities to the CSV file.
func (c *CSVWriter) Write(opportunities []*models.Opportunity) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, o := range opportunities {
		row := []string{
			o.BuyMarketplace, o.BuyTitle, f2s(o.BuyPrice), o.BuyLink, o.BuyCondition,
			o.SellMarketplace, o.SellTitle, f2s(o.SellPrice), o.SellLink, o.SellCondition,
			f2s(o.Profit), f2s(o.ProfitPercentage), f2s(o.Similarity), f2s(o.Confidence),
			f2s(o.Fees.Platform), f2s(o.Fees.Payment), f2s(o.Fees.EstimatedTax), f2s(o.Fees.Shipping),
			f2s(o.NetProfit), f2s(o.NetProfitPercentage),
			strconv.Itoa(o.VelocityScore), strconv.Itoa(o.EstimatedSellDays),
			o.Subcategory, o.FoundAt.Format(time.RFC3339),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

func f2s(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
