package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"flipscan/models"
	"flipscan/scraper"
	"flipscan/services"
	"flipscan/storage"
	"flipscan/utils"
)

// ErrScanFailed is returned when a scan another caller was waiting on ended
// in the error state.
var ErrScanFailed = errors.New("scan failed")

// Coordinator serializes scan requests per (category, subcategories) key:
// identical concurrent requests join one in-flight scan, and completed
// results are served from cache until they expire.
type Coordinator struct {
	synth        *services.Synthesizer
	marketplaces []scraper.Marketplace
	archiver     storage.OpportunityWriter
	logger       *utils.Logger

	cacheTTL     time.Duration
	scanDeadline time.Duration
	pollInterval time.Duration
	minProfit    float64
	minProfitPct float64

	mu     sync.Mutex
	cache  map[string]*models.ScanRecord
	active map[string]struct{}
}

// Options carries the tunables a Coordinator needs.
type Options struct {
	CacheTTL         time.Duration
	ScanDeadline     time.Duration
	PollInterval     time.Duration
	MinProfit        float64
	MinProfitPercent float64
}

// NewCoordinator creates a Coordinator. The archiver is optional; when nil,
// results are served and cached but never persisted.
func NewCoordinator(synth *services.Synthesizer, marketplaces []scraper.Marketplace, archiver storage.OpportunityWriter, logger *utils.Logger, opts Options) *Coordinator {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	if opts.ScanDeadline <= 0 {
		opts.ScanDeadline = 2 * time.Minute
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	return &Coordinator{
		synth:        synth,
		marketplaces: marketplaces,
		archiver:     archiver,
		logger:       logger,
		cacheTTL:     opts.CacheTTL,
		scanDeadline: opts.ScanDeadline,
		pollInterval: opts.PollInterval,
		minProfit:    opts.MinProfit,
		minProfitPct: opts.MinProfitPercent,
		cache:        make(map[string]*models.ScanRecord),
		active:       make(map[string]struct{}),
	}
}

// ScanKey builds the cache key for a scan request. Subcategories are
// normalized and sorted so the key is order-independent.
func ScanKey(category string, subcategories []string) string {
	subs := make([]string, 0, len(subcategories))
	for _, s := range subcategories {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			subs = append(subs, s)
		}
	}
	sort.Strings(subs)
	return strings.ToLower(strings.TrimSpace(category)) + ":" + strings.Join(subs, ",")
}

// CoordinateScan returns opportunities for the requested category and
// subcategories. Fresh cached results are returned immediately; a request
// matching an in-flight scan waits for that scan instead of starting another.
func (c *Coordinator) CoordinateScan(ctx context.Context, category string, subcategories []string) ([]*models.Opportunity, error) {
	key := ScanKey(category, subcategories)

	c.mu.Lock()
	c.purgeExpiredLocked()

	if rec, ok := c.cache[key]; ok && rec.Status == models.ScanCompleted && time.Now().Before(rec.ExpiresAt) {
		results := rec.Results
		c.mu.Unlock()
		c.logger.Info("[coordinator] Cache hit for %q (%d opportunities)", key, len(results))
		return results, nil
	}

	if _, running := c.active[key]; running {
		c.mu.Unlock()
		c.logger.Info("[coordinator] Joining in-flight scan for %q", key)
		return c.awaitScan(ctx, key)
	}

	c.cache[key] = &models.ScanRecord{
		Key:       key,
		Status:    models.ScanInitializing,
		CreatedAt: time.Now(),
	}
	c.active[key] = struct{}{}
	c.mu.Unlock()

	return c.runScan(ctx, key, subcategories)
}

// awaitScan polls until the scan owning the key reaches a terminal state.
func (c *Coordinator) awaitScan(ctx context.Context, key string) ([]*models.Opportunity, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	deadline := time.NewTimer(c.scanDeadline + c.pollInterval)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, fmt.Errorf("scan %q: wait timed out", key)
		case <-ticker.C:
			c.mu.Lock()
			rec, ok := c.cache[key]
			if !ok {
				c.mu.Unlock()
				return nil, fmt.Errorf("scan %q: %w", key, ErrScanFailed)
			}
			switch rec.Status {
			case models.ScanCompleted:
				results := rec.Results
				c.mu.Unlock()
				return results, nil
			case models.ScanError:
				c.mu.Unlock()
				return nil, fmt.Errorf("scan %q: %w", key, ErrScanFailed)
			}
			c.mu.Unlock()
		}
	}
}

// runScan executes one scan end to end under the scan deadline. The deadline
// is a hard bound: when it fires the scan is marked failed even if collection
// is still in flight.
func (c *Coordinator) runScan(ctx context.Context, key string, subcategories []string) ([]*models.Opportunity, error) {
	runCtx, cancel := context.WithTimeout(ctx, c.scanDeadline)
	defer cancel()

	c.setProgress(key, models.ScanRunning, 10)

	done := make(chan []*models.Opportunity, 1)
	go func() {
		listings := c.gatherListings(runCtx, key, subcategories)
		c.setProgress(key, models.ScanRunning, 80)

		opps := c.synth.FindOpportunities(listings, c.minProfit, c.minProfitPct)
		done <- services.TopN(opps, services.DefaultTopN)
	}()

	select {
	case results := <-done:
		c.complete(key, results)
		c.archive(results)
		c.logger.Info("[coordinator] Scan %q completed with %d opportunities", key, len(results))
		return results, nil
	case <-runCtx.Done():
		c.fail(key)
		c.logger.Error("[coordinator] Scan %q aborted: %v", key, runCtx.Err())
		return nil, fmt.Errorf("scan %q: %w", key, runCtx.Err())
	}
}

// gatherListings fans out one search per applicable (marketplace,
// subcategory) pair. A failed search contributes zero listings; the scan
// continues with whatever the other searches return.
func (c *Coordinator) gatherListings(ctx context.Context, key string, subcategories []string) []*models.Listing {
	type task struct {
		marketplace scraper.Marketplace
		subcategory string
	}

	var tasks []task
	for _, m := range c.marketplaces {
		for _, sub := range subcategories {
			sub = strings.ToLower(strings.TrimSpace(sub))
			if sub == "" || !m.Supports(sub) {
				continue
			}
			tasks = append(tasks, task{m, sub})
		}
	}
	if len(tasks) == 0 {
		return nil
	}

	results := make([][]*models.Listing, len(tasks))
	var wg sync.WaitGroup
	var completed int64
	var progressMu sync.Mutex

	for i, t := range tasks {
		wg.Add(1)
		go func(i int, t task) {
			defer wg.Done()

			listings, err := t.marketplace.Search(ctx, KeywordsFor(t.subcategory))
			if err != nil {
				c.logger.Warn("[coordinator] %s search for %q failed: %v", t.marketplace.Name(), t.subcategory, err)
			} else {
				for _, l := range listings {
					l.Subcategory = t.subcategory
				}
				results[i] = listings
			}

			progressMu.Lock()
			completed++
			// Collection spans the 10..70 band of the progress bar.
			c.setProgress(key, models.ScanRunning, 10+int(completed*60/int64(len(tasks))))
			progressMu.Unlock()
		}(i, t)
	}
	wg.Wait()

	var all []*models.Listing
	for _, batch := range results {
		all = append(all, batch...)
	}
	return all
}

func (c *Coordinator) setProgress(key string, status models.ScanStatus, progress int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.cache[key]
	if !ok {
		return
	}
	// Terminal states are final; a straggling worker must not revive them.
	if rec.Status == models.ScanCompleted || rec.Status == models.ScanError {
		return
	}
	rec.Status = status
	if progress > rec.Progress {
		rec.Progress = progress
	}
}

func (c *Coordinator) complete(key string, results []*models.Opportunity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rec, ok := c.cache[key]; ok {
		rec.Status = models.ScanCompleted
		rec.Progress = 100
		rec.Results = results
		rec.ExpiresAt = time.Now().Add(c.cacheTTL)
	}
	delete(c.active, key)
}

func (c *Coordinator) fail(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rec, ok := c.cache[key]; ok {
		rec.Status = models.ScanError
		rec.Progress = 100
		rec.Results = []*models.Opportunity{}
		rec.ExpiresAt = time.Now().Add(c.cacheTTL)
	}
	delete(c.active, key)
}

// archive persists results off the request path; archive failures are logged
// and never surface to the caller.
func (c *Coordinator) archive(results []*models.Opportunity) {
	if c.archiver == nil || len(results) == 0 {
		return
	}
	go func() {
		if err := c.archiver.Write(results); err != nil {
			c.logger.Warn("[coordinator] Archiving %d opportunities failed: %v", len(results), err)
		}
	}()
}

// GetCachedResults returns fresh completed results for the request, if any.
func (c *Coordinator) GetCachedResults(category string, subcategories []string) ([]*models.Opportunity, bool) {
	key := ScanKey(category, subcategories)

	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.cache[key]
	if !ok || rec.Status != models.ScanCompleted || time.Now().After(rec.ExpiresAt) {
		return nil, false
	}
	return rec.Results, true
}

// Status reports the scan record for the request. The returned record is a
// snapshot; mutating it does not affect the coordinator.
func (c *Coordinator) Status(category string, subcategories []string) (models.ScanRecord, bool) {
	key := ScanKey(category, subcategories)

	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.cache[key]
	if !ok {
		return models.ScanRecord{}, false
	}
	return *rec, true
}

// ClearCache removes the cached record for the request; an empty category
// clears everything. In-flight scans are untouched. Returns the number of
// records removed.
func (c *Coordinator) ClearCache(category string, subcategories []string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if strings.TrimSpace(category) == "" {
		removed := 0
		for key := range c.cache {
			if _, running := c.active[key]; running {
				continue
			}
			delete(c.cache, key)
			removed++
		}
		return removed
	}

	key := ScanKey(category, subcategories)
	if _, running := c.active[key]; running {
		return 0
	}
	if _, ok := c.cache[key]; !ok {
		return 0
	}
	delete(c.cache, key)
	return 1
}

// ActiveScanCount reports how many scans are currently in flight.
func (c *Coordinator) ActiveScanCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.active)
}

// CacheSize reports how many scan records are held, including expired ones
// not yet purged.
func (c *Coordinator) CacheSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

// purgeExpiredLocked drops expired terminal records. Caller holds c.mu.
func (c *Coordinator) purgeExpiredLocked() {
	now := time.Now()
	for key, rec := range c.cache {
		if _, running := c.active[key]; running {
			continue
		}
		if (rec.Status == models.ScanCompleted || rec.Status == models.ScanError) && now.After(rec.ExpiresAt) {
			delete(c.cache, key)
		}
	}
}
