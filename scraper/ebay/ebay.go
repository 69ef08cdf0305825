package ebay

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"flipscan/models"
	"flipscan/utils"
)

const (
	marketplace = "eBay"
	searchURL   = "https://www.ebay.com/sch/i.html?_nkw=%s&_sop=15&LH_BIN=1&_fsrp=1&LH_PrefLoc=1"

	// Listings priced outside these bounds are scraping artifacts.
	minSanePrice = 0.99
	maxSanePrice = 30000
)

var (
	// priceRegexp captures the numeric part of a price string
	priceRegexp = regexp.MustCompile(`(?:\d+,)*\d+(?:\.\d+)?`)
)

// Scraper searches eBay Buy-It-Now results and parses them into the common
// listing shape.
type Scraper struct {
	logger  *utils.Logger
	retry   *utils.RetryConfig
	limiter *utils.RateLimiter
	timeout time.Duration
	ua      string
}

// New creates a ready-to-use eBay Scraper composing the shared retry policy
// and rate limiter.
func New(logger *utils.Logger, retry *utils.RetryConfig, limiter *utils.RateLimiter, timeout time.Duration) *Scraper {
	return &Scraper{
		logger:  logger,
		retry:   retry,
		limiter: limiter,
		timeout: timeout,
		ua: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}

func (s *Scraper) Name() string { return marketplace }

// Supports is true for every subcategory; eBay is a generalist marketplace.
func (s *Scraper) Supports(string) bool { return true }

// Search runs one search per keyword and merges the results, deduplicating
// by listing link.
func (s *Scraper) Search(ctx context.Context, keywords []string) ([]*models.Listing, error) {
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
		err := s.retry.Do(ctx, fmt.Sprintf("ebay-search %q", keyword), func() error {
			var ferr error
			page, ferr = s.searchKeyword(keyword)
			return ferr
		})
		if err != nil {
			// One failed keyword doesn't sink the whole marketplace.
			s.logger.Warn("[ebay] Keyword %q failed: %v", keyword, err)
			continue
		}

		for _, l := range page {
			if seen.Add(l.Link) {
				all = append(all, l)
			}
		}
	}

	s.logger.Info("[ebay] Collected %d listings for %d keywords", len(all), len(keywords))
	return all, nil
}

func (s *Scraper) searchKeyword(keyword string) ([]*models.Listing, error) {
	var listings []*models.Listing
	var visitErr error

	c := colly.NewCollector(
		colly.UserAgent(s.ua),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(s.timeout)

	c.OnHTML("li.s-item", func(e *colly.HTMLElement) {
		title := strings.TrimSpace(e.ChildText(".s-item__title"))
		if title == "" || strings.Contains(title, "Shop on eBay") {
			return
		}

		price, ok := parsePrice(e.ChildText(".s-item__price"))
		if !ok || price < minSanePrice || price > maxSanePrice {
			return
		}

		link := e.ChildAttr("a.s-item__link", "href")
		if i := strings.Index(link, "?"); i >= 0 {
			link = link[:i]
		}
		if link == "" || !strings.Contains(link, "/itm/") {
			return
		}

		img := e.ChildAttr(".s-item__image-img", "src")
		if strings.Contains(img, "ir.ebaystatic.com") {
			// Lazy-loaded placeholder; the real URL sits in data-src.
			img = e.ChildAttr(".s-item__image-img", "data-src")
		}

		condition := strings.TrimSpace(e.ChildText(".SECONDARY_INFO"))
		if condition == "" {
			condition = "New"
		}

		shippingText := strings.ToLower(e.ChildText(".s-item__shipping"))
		freeShipping := strings.Contains(shippingText, "free")
		shippingCost := 0.0
		if !freeShipping {
			if cost, ok := parsePrice(shippingText); ok {
				shippingCost = cost
			}
		}

		listing := &models.Listing{
			Marketplace:  marketplace,
			Title:        title,
			Price:        price,
			ShippingCost: shippingCost,
			FreeShipping: freeShipping,
			Condition:    condition,
			Link:         link,
			ImageURL:     img,
			Keyword:      keyword,
			ScrapedAt:    time.Now(),
		}
		if err := listing.Validate(); err != nil {
			return
		}
		listings = append(listings, listing)
	})

	c.OnError(func(_ *colly.Response, err error) {
		visitErr = err
	})

	target := fmt.Sprintf(searchURL, url.QueryEscape(keyword))
	if err := c.Visit(target); err != nil {
		return nil, fmt.Errorf("ebay: visit: %w", err)
	}
	c.Wait()

	if visitErr != nil {
		return nil, fmt.Errorf("ebay: fetch: %w", visitErr)
	}
	return listings, nil
}

// parsePrice extracts a dollar amount from eBay's price text. Ranges like
// "$12.00 to $18.00" resolve to their average.
func parsePrice(text string) (float64, bool) {
	text = strings.ReplaceAll(text, ",", "")

	if strings.Contains(text, " to ") {
		parts := strings.SplitN(text, " to ", 2)
		lo, okLo := parsePrice(parts[0])
		hi, okHi := parsePrice(parts[1])
		if okLo && okHi {
			return (lo + hi) / 2, true
		}
		return 0, false
	}

	match := priceRegexp.FindString(text)
	if match == "" {
		return 0, false
	}
	price, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return price, true
}
