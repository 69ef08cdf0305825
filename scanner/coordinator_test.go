package scanner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"flipscan/models"
	"flipscan/scraper"
	"flipscan/services"
	"flipscan/utils"
)

// fakeMarketplace returns canned listings and counts how often it is searched.
type fakeMarketplace struct {
	name     string
	listings []*models.Listing
	err      error
	delay    time.Duration
	supports map[string]bool
	calls    int64
}

func (f *fakeMarketplace) Name() string { return f.name }

func (f *fakeMarketplace) Supports(subcategory string) bool {
	if f.supports == nil {
		return true
	}
	return f.supports[subcategory]
}

func (f *fakeMarketplace) Search(ctx context.Context, keywords []string) ([]*models.Listing, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}

	// Fresh copies; the coordinator annotates returned listings.
	out := make([]*models.Listing, len(f.listings))
	for i, l := range f.listings {
		cp := *l
		out[i] = &cp
	}
	return out, nil
}

func (f *fakeMarketplace) searchCount() int64 {
	return atomic.LoadInt64(&f.calls)
}

func pairedMarketplaces() (*fakeMarketplace, *fakeMarketplace) {
	buy := &fakeMarketplace{
		name: "Mercari",
		listings: []*models.Listing{
			{Marketplace: "Mercari", Title: "Apple AirPods Pro 2nd Gen New", Price: 180, Condition: "New", Link: "https://www.mercari.com/item/m1"},
		},
	}
	sell := &fakeMarketplace{
		name: "eBay",
		listings: []*models.Listing{
			{Marketplace: "eBay", Title: "AirPods Pro 2 New Sealed", Price: 230, Condition: "New", Link: "https://www.ebay.com/itm/e1"},
		},
	}
	return buy, sell
}

func newTestCoordinator(opts Options, marketplaces ...scraper.Marketplace) *Coordinator {
	logger := utils.NewLogger()
	synth := services.NewSynthesizer(nil, logger)
	return NewCoordinator(synth, marketplaces, nil, logger, opts)
}

func TestScanKeyOrderIndependent(t *testing.T) {
	a := ScanKey("Tech", []string{"headphones", "keyboards"})
	b := ScanKey("tech ", []string{" Keyboards", "HEADPHONES"})
	if a != b {
		t.Errorf("keys differ: %q vs %q", a, b)
	}
	if a != "tech:headphones,keyboards" {
		t.Errorf("key: got %q, want tech:headphones,keyboards", a)
	}
}

func TestCoordinateScanFindsOpportunities(t *testing.T) {
	buy, sell := pairedMarketplaces()
	c := newTestCoordinator(Options{MinProfit: 10, MinProfitPercent: 20}, buy, sell)

	opps, err := c.CoordinateScan(context.Background(), "tech", []string{"headphones"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(opps) != 1 {
		t.Fatalf("got %d opportunities, want 1", len(opps))
	}
	if opps[0].Subcategory != "headphones" {
		t.Errorf("Subcategory: got %q, want headphones", opps[0].Subcategory)
	}

	record, ok := c.Status("tech", []string{"headphones"})
	if !ok {
		t.Fatal("expected a scan record")
	}
	if record.Status != models.ScanCompleted {
		t.Errorf("Status: got %s, want COMPLETED", record.Status)
	}
	if record.Progress != 100 {
		t.Errorf("Progress: got %d, want 100", record.Progress)
	}
}

func TestCoordinateScanServesFromCache(t *testing.T) {
	buy, sell := pairedMarketplaces()
	c := newTestCoordinator(Options{MinProfit: 10, MinProfitPercent: 20}, buy, sell)

	if _, err := c.CoordinateScan(context.Background(), "tech", []string{"headphones"}); err != nil {
		t.Fatalf("first scan: %v", err)
	}
	first := buy.searchCount() + sell.searchCount()

	if _, err := c.CoordinateScan(context.Background(), "tech", []string{"headphones"}); err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if total := buy.searchCount() + sell.searchCount(); total != first {
		t.Errorf("cache hit still searched: %d calls, want %d", total, first)
	}

	if _, ok := c.GetCachedResults("tech", []string{"headphones"}); !ok {
		t.Error("expected cached results")
	}
}

func TestCoordinateScanCacheExpires(t *testing.T) {
	buy, sell := pairedMarketplaces()
	c := newTestCoordinator(Options{CacheTTL: 50 * time.Millisecond, MinProfit: 10, MinProfitPercent: 20}, buy, sell)

	if _, err := c.CoordinateScan(context.Background(), "tech", []string{"headphones"}); err != nil {
		t.Fatalf("first scan: %v", err)
	}
	first := buy.searchCount() + sell.searchCount()

	time.Sleep(80 * time.Millisecond)

	if _, err := c.CoordinateScan(context.Background(), "tech", []string{"headphones"}); err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if total := buy.searchCount() + sell.searchCount(); total <= first {
		t.Errorf("expired cache should rescan: %d calls, want > %d", total, first)
	}
}

func TestCoordinateScanSingleFlight(t *testing.T) {
	buy, sell := pairedMarketplaces()
	buy.delay = 150 * time.Millisecond
	sell.delay = 150 * time.Millisecond
	c := newTestCoordinator(Options{PollInterval: 20 * time.Millisecond, MinProfit: 10, MinProfitPercent: 20}, buy, sell)

	const callers = 5
	var wg sync.WaitGroup
	counts := make([]int, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			opps, err := c.CoordinateScan(context.Background(), "tech", []string{"headphones"})
			counts[i] = len(opps)
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Errorf("caller %d: %v", i, errs[i])
		}
		if counts[i] != counts[0] {
			t.Errorf("caller %d saw %d opportunities, caller 0 saw %d", i, counts[i], counts[0])
		}
	}

	// One scan means one search per (marketplace, subcategory) pair.
	if total := buy.searchCount() + sell.searchCount(); total != 2 {
		t.Errorf("got %d searches across all callers, want 2", total)
	}
}

func TestCoordinateScanToleratesMarketplaceFailure(t *testing.T) {
	buy, sell := pairedMarketplaces()
	sell.err = errors.New("blocked")
	c := newTestCoordinator(Options{MinProfit: 10, MinProfitPercent: 20}, buy, sell)

	opps, err := c.CoordinateScan(context.Background(), "tech", []string{"headphones"})
	if err != nil {
		t.Fatalf("partial failure should not error the scan: %v", err)
	}
	if len(opps) != 0 {
		t.Errorf("one marketplace left: got %d opportunities, want 0", len(opps))
	}

	record, ok := c.Status("tech", []string{"headphones"})
	if !ok || record.Status != models.ScanCompleted {
		t.Errorf("Status: got %v, want COMPLETED", record.Status)
	}
}

func TestCoordinateScanDeadline(t *testing.T) {
	buy, sell := pairedMarketplaces()
	buy.delay = 500 * time.Millisecond
	c := newTestCoordinator(Options{ScanDeadline: 50 * time.Millisecond, MinProfit: 10, MinProfitPercent: 20}, buy, sell)

	_, err := c.CoordinateScan(context.Background(), "tech", []string{"headphones"})
	if err == nil {
		t.Fatal("expected a deadline error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v, want context.DeadlineExceeded", err)
	}

	record, ok := c.Status("tech", []string{"headphones"})
	if !ok || record.Status != models.ScanError {
		t.Errorf("Status: got %v, want ERROR", record.Status)
	}
}

func TestCoordinateScanAppliesSupportsPolicy(t *testing.T) {
	buy, sell := pairedMarketplaces()
	sell.supports = map[string]bool{"keyboards": true}
	c := newTestCoordinator(Options{MinProfit: 10, MinProfitPercent: 20}, buy, sell)

	if _, err := c.CoordinateScan(context.Background(), "tech", []string{"headphones"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sell.searchCount() != 0 {
		t.Errorf("unsupported subcategory still searched %d time(s)", sell.searchCount())
	}
	if buy.searchCount() != 1 {
		t.Errorf("supported marketplace searched %d time(s), want 1", buy.searchCount())
	}
}

func TestClearCache(t *testing.T) {
	buy, sell := pairedMarketplaces()
	c := newTestCoordinator(Options{MinProfit: 10, MinProfitPercent: 20}, buy, sell)

	if _, err := c.CoordinateScan(context.Background(), "tech", []string{"headphones"}); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if c.CacheSize() != 1 {
		t.Fatalf("CacheSize: got %d, want 1", c.CacheSize())
	}

	if cleared := c.ClearCache("tech", []string{"headphones"}); cleared != 1 {
		t.Errorf("targeted clear: got %d, want 1", cleared)
	}
	if c.CacheSize() != 0 {
		t.Errorf("CacheSize after clear: got %d, want 0", c.CacheSize())
	}

	// Rescan, then clear everything with an empty category.
	if _, err := c.CoordinateScan(context.Background(), "tech", []string{"headphones"}); err != nil {
		t.Fatalf("rescan: %v", err)
	}
	if cleared := c.ClearCache("", nil); cleared != 1 {
		t.Errorf("full clear: got %d, want 1", cleared)
	}
}

func TestGetCachedResultsMissing(t *testing.T) {
	buy, sell := pairedMarketplaces()
	c := newTestCoordinator(Options{}, buy, sell)

	if _, ok := c.GetCachedResults("tech", []string{"headphones"}); ok {
		t.Error("expected no cached results before any scan")
	}
}

func TestActiveScanCount(t *testing.T) {
	buy, sell := pairedMarketplaces()
	buy.delay = 150 * time.Millisecond
	c := newTestCoordinator(Options{MinProfit: 10, MinProfitPercent: 20}, buy, sell)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.CoordinateScan(context.Background(), "tech", []string{"headphones"})
	}()

	time.Sleep(50 * time.Millisecond)
	if c.ActiveScanCount() != 1 {
		t.Errorf("ActiveScanCount mid-scan: got %d, want 1", c.ActiveScanCount())
	}

	<-done
	if c.ActiveScanCount() != 0 {
		t.Errorf("ActiveScanCount after scan: got %d, want 0", c.ActiveScanCount())
	}
}
