package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"flipscan/models"
)

func sampleOpportunity() *models.Opportunity {
	return &models.Opportunity{
		BuyTitle:       "Apple AirPods Pro 2nd Gen New",
		BuyPrice:       180,
		BuyMarketplace: "Mercari",
		BuyLink:        "https://www.mercari.com/item/m1",
		BuyCondition:   "New",

		SellTitle:       "AirPods Pro 2 New Sealed",
		SellPrice:       230,
		SellMarketplace: "eBay",
		SellLink:        "https://www.ebay.com/itm/e1",
		SellCondition:   "New",

		Profit:           50,
		ProfitPercentage: 27.78,
		Similarity:       0.9,
		Confidence:       97.78,

		Fees: models.FeeBreakdown{Platform: 28.75, Payment: 6.97, EstimatedTax: 14.40},

		NetProfit:           -0.12,
		NetProfitPercentage: -0.06,
		VelocityScore:       95,
		EstimatedSellDays:   3,
		Subcategory:         "headphones",
		FoundAt:             time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
	}
}

func TestCSVWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "opportunities.csv")

	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}

	if err := w.Write([]*models.Opportunity{sampleOpportunity(), sampleOpportunity()}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[0][0] != "buy_marketplace" {
		t.Errorf("header[0]: got %q, want buy_marketplace", rows[0][0])
	}
	if rows[1][0] != "Mercari" || rows[1][5] != "eBay" {
		t.Errorf("row: got buy=%q sell=%q", rows[1][0], rows[1][5])
	}
	if rows[1][10] != "50.00" {
		t.Errorf("profit column: got %q, want 50.00", rows[1][10])
	}
}

func TestCSVWriterEmptyWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opportunities.csv")

	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}
	if err := w.Write(nil); err != nil {
		t.Errorf("empty write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
