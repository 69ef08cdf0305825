package mercari

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"flipscan/models"
	"flipscan/utils"
)

const (
	marketplace = "Mercari"
	searchURL   = "https://www.mercari.com/search/?keyword=%s&sortBy=2"
)

var priceRegexp = regexp.MustCompile(`(?:\d+,)*\d+(?:\.\d+)?`)

// Scraper drives a headless browser against Mercari's search pages; the
// results grid is rendered client-side so plain HTTP fetching sees nothing.
type Scraper struct {
	logger      *utils.Logger
	retry       *utils.RetryConfig
	limiter     *utils.RateLimiter
	timeout     time.Duration
	chromeBin   string
	maxListings int
}

// New creates a ready-to-use Mercari Scraper.
func New(logger *utils.Logger, retry *utils.RetryConfig, limiter *utils.RateLimiter, timeout time.Duration, chromeBin string) *Scraper {
	return &Scraper{
		logger:      logger,
		retry:       retry,
		limiter:     limiter,
		timeout:     timeout,
		chromeBin:   chromeBin,
		maxListings: 40,
	}
}

func (s *Scraper) Name() string { return marketplace }

// Supports is true for every subcategory; Mercari is a generalist marketplace.
func (s *Scraper) Supports(string) bool { return true }

// Search runs one browser search per keyword and merges the results.
func (s *Scraper) Search(ctx context.Context, keywords []string) ([]*models.Listing, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if bin := s.findChromeBinary(); bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	allocCtx, cancelSilent := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelSilent()

	var all []*models.Listing
	seen := utils.NewURLSet()

	for _, keyword := range keywords {
		select {
		case <-ctx.Done():
			return all, ctx.Err()
		default:
		}

		s.limiter.Throttle(marketplace)

		var page []*models.Listing
		err := s.retry.Do(ctx, fmt.Sprintf("mercari-search %q", keyword), func() error {
			var ferr error
			page, ferr = s.searchKeyword(allocCtx, keyword)
			return ferr
		})
		if err != nil {
			s.logger.Warn("[mercari] Keyword %q failed: %v", keyword, err)
			continue
		}

		for _, l := range page {
			if seen.Add(l.Link) {
				all = append(all, l)
			}
		}
	}

	s.logger.Info("[mercari] Collected %d listings for %d keywords", len(all), len(keywords))
	return all, nil
}

func (s *Scraper) searchKeyword(allocCtx context.Context, keyword string) ([]*models.Listing, error) {
	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	ctx, cancelTimeout := context.WithTimeout(ctx, s.timeout)
	defer cancelTimeout()

	type cardData struct {
		Title string `json:"title"`
		Price string `json:"price"`
		URL   string `json:"url"`
		Image string `json:"image"`
	}

	var cards []cardData

	target := fmt.Sprintf(searchURL, url.QueryEscape(keyword))
	err := chromedp.Run(ctx,
		chromedp.Navigate(target),
		chromedp.Sleep(4*time.Second),
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight / 2)`, nil),
		chromedp.Sleep(2*time.Second),
		chromedp.Evaluate(`
			(function() {
				var results = [];
				var limit = `+strconv.Itoa(s.maxListings)+`;
				var cards = document.querySelectorAll('[data-testid="ItemContainer"], li[data-testid="SearchResults-item"]');

				// Fallback: any item link grid
				if (cards.length === 0) {
					cards = document.querySelectorAll('a[href*="/item/"]');
				}

				var seen = {};
				for (var i = 0; i < cards.length && results.length < limit; i++) {
					var card = cards[i];
					var link = card.tagName === 'A' ? card : card.querySelector('a[href*="/item/"]');
					if (!link || !link.href || seen[link.href]) continue;
					seen[link.href] = true;

					var titleEl = card.querySelector('[data-testid="ItemName"]') ||
					              card.querySelector('p, span');
					var priceEl = card.querySelector('[data-testid="ItemPrice"]') ||
					              card.querySelector('[class*="price"]');
					var imgEl = card.querySelector('img');

					results.push({
						title: titleEl ? titleEl.textContent.trim() : '',
						price: priceEl ? priceEl.textContent.trim() : '',
						url:   link.href.split('?')[0],
						image: imgEl ? (imgEl.src || imgEl.getAttribute('data-src') || '') : ''
					});
				}
				return results;
			})()
		`, &cards),
	)
	if err != nil {
		return nil, fmt.Errorf("mercari: chromedp run: %w", err)
	}

	var listings []*models.Listing
	for _, card := range cards {
		price, ok := parsePrice(card.Price)
		if !ok {
			continue
		}

		listing := &models.Listing{
			Marketplace: marketplace,
			Title:       card.Title,
			Price:       price,
			Condition:   "Good",
			Link:        card.URL,
			ImageURL:    card.Image,
			Keyword:     keyword,
			ScrapedAt:   time.Now(),
		}
		if err := listing.Validate(); err != nil {
			continue
		}
		listings = append(listings, listing)
	}

	return listings, nil
}

func (s *Scraper) findChromeBinary() string {
	if s.chromeBin != "" {
		return s.chromeBin
	}
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "google-chrome-stable"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

func parsePrice(text string) (float64, bool) {
	match := priceRegexp.FindString(strings.ReplaceAll(text, ",", ""))
	if match == "" {
		return 0, false
	}
	price, err := strconv.ParseFloat(match, 64)
	if err != nil || price <= 0 {
		return 0, false
	}
	return price, true
}
