package services

import (
	"math"
	"sort"
	"strings"
	"time"

	"flipscan/models"
	"flipscan/utils"
)

const (
	// similarityGate is the de-facto "same item" threshold.
	similarityGate = 0.7
	// confidenceGate drops pairings too uncertain to act on.
	confidenceGate = 60.0
	// estimatedTaxRate approximates sales tax on the buy side.
	estimatedTaxRate = 0.08
	// DefaultTopN bounds the retained set when opportunities accumulate
	// incrementally from a streaming source.
	DefaultTopN = 10
)

// fastMovingSubcategories get a velocity bump; these resell quickly on
// every marketplace.
var fastMovingSubcategories = map[string]struct{}{
	"headphones":     {},
	"graphics cards": {},
	"consoles":       {},
	"pokemon cards":  {},
	"pokémon cards":  {},
	"sports cards":   {},
	"jordans":        {},
	"nike dunks":     {},
}

// Synthesizer pairs listings across marketplaces, applies profitability and
// confidence thresholds, computes fees and velocity, de-duplicates and ranks.
type Synthesizer struct {
	normalizer *Normalizer
	engine     *SimilarityEngine
	pool       *utils.WorkerPool
	logger     *utils.Logger
}

// NewSynthesizer creates a Synthesizer. The worker pool is optional; when
// present the cartesian matching pass runs on it so large listing sets don't
// monopolize the caller's goroutine.
func NewSynthesizer(pool *utils.WorkerPool, logger *utils.Logger) *Synthesizer {
	return &Synthesizer{
		normalizer: NewNormalizer(),
		engine:     NewSimilarityEngine(),
		pool:       pool,
		logger:     logger,
	}
}

// FindOpportunities compares listings across every ordered pair of distinct
// marketplaces and returns profitable pairings sorted by profit percentage,
// descending. Fewer than two marketplaces represented yields an empty list.
func (s *Synthesizer) FindOpportunities(listings []*models.Listing, minProfit, minProfitPercent float64) []*models.Opportunity {
	bySource := s.partition(listings)

	marketplaces := make([]string, 0, len(bySource))
	for m := range bySource {
		marketplaces = append(marketplaces, m)
	}
	sort.Strings(marketplaces)

	if len(marketplaces) < 2 {
		s.logger.Warn("[synthesizer] Only %d marketplace(s) represented, nothing to compare", len(marketplaces))
		return []*models.Opportunity{}
	}

	// Ordered pairs: fees depend on where the sell happens.
	type pair struct{ buy, sell string }
	var pairs []pair
	for _, buy := range marketplaces {
		for _, sell := range marketplaces {
			if buy != sell {
				pairs = append(pairs, pair{buy, sell})
			}
		}
	}

	// Collect per-pair so the final ordering is deterministic regardless of
	// worker scheduling.
	perPair := make([][]*models.Opportunity, len(pairs))
	run := func(i int) {
		p := pairs[i]
		perPair[i] = s.comparePair(bySource[p.buy], bySource[p.sell], minProfit, minProfitPercent)
	}

	if s.pool != nil {
		jobs := make([]func(), len(pairs))
		for i := range pairs {
			i := i
			jobs[i] = func() { run(i) }
		}
		// Run, not Submit/Wait: the pool is shared by every concurrent scan.
		s.pool.Run(jobs)
	} else {
		for i := range pairs {
			run(i)
		}
	}

	var all []*models.Opportunity
	for _, opps := range perPair {
		all = append(all, opps...)
	}

	all = dedupePairs(all)

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].ProfitPercentage > all[j].ProfitPercentage
	})

	s.logger.Info("[synthesizer] Found %d opportunities from %d listings across %d marketplaces",
		len(all), len(listings), len(marketplaces))
	return all
}

// partition groups usable listings by marketplace, filling in missing
// normalized titles on the way.
func (s *Synthesizer) partition(listings []*models.Listing) map[string][]*models.Listing {
	bySource := make(map[string][]*models.Listing)
	for _, l := range listings {
		if l == nil || !l.Usable() {
			continue
		}
		if l.NormalizedTitle == "" {
			l.NormalizedTitle = s.normalizer.Normalize(l.Title, l.Condition)
		}
		bySource[l.Marketplace] = append(bySource[l.Marketplace], l)
	}
	return bySource
}

func (s *Synthesizer) comparePair(buyListings, sellListings []*models.Listing, minProfit, minProfitPercent float64) []*models.Opportunity {
	var opps []*models.Opportunity

	for _, buy := range buyListings {
		if buy.NormalizedTitle == "" {
			continue
		}
		for _, sell := range sellListings {
			if sell.NormalizedTitle == "" {
				continue
			}
			if sell.Price <= buy.Price {
				continue
			}

			similarity := s.engine.Similarity(buy.NormalizedTitle, sell.NormalizedTitle)
			if similarity < similarityGate {
				continue
			}

			effectiveBuy := buy.EffectiveBuyPrice()
			profit := sell.Price - effectiveBuy
			if profit <= 0 {
				continue
			}
			profitPercent := profit / effectiveBuy * 100

			if profit < minProfit || profitPercent < minProfitPercent {
				continue
			}

			confidence := confidenceScore(similarity, buy.Condition, sell.Condition, profitPercent)
			if confidence < confidenceGate {
				continue
			}

			opps = append(opps, s.buildOpportunity(buy, sell, similarity, confidence, profit, profitPercent))
		}
	}

	return opps
}

func (s *Synthesizer) buildOpportunity(buy, sell *models.Listing, similarity, confidence, profit, profitPercent float64) *models.Opportunity {
	shipping := buy.ShippingCost
	if buy.FreeShipping {
		shipping = 0
	}

	platformFee, paymentFee := marketplaceFees(sell.Marketplace, sell.Price)
	tax := buy.Price * estimatedTaxRate

	totalCost := buy.Price + tax + shipping
	netProfit := sell.Price - totalCost - (platformFee + paymentFee)
	netProfitPercent := 0.0
	if totalCost > 0 {
		netProfitPercent = netProfit / totalCost * 100
	}

	velocity := velocityScore(profitPercent, confidence, sell.Marketplace, buy.Subcategory)

	return &models.Opportunity{
		BuyTitle:       buy.Title,
		BuyPrice:       buy.Price,
		BuyMarketplace: buy.Marketplace,
		BuyLink:        buy.Link,
		BuyImage:       buy.ImageURL,
		BuyCondition:   buy.Condition,

		SellTitle:       sell.Title,
		SellPrice:       sell.Price,
		SellMarketplace: sell.Marketplace,
		SellLink:        sell.Link,
		SellImage:       sell.ImageURL,
		SellCondition:   sell.Condition,

		Profit:           round2(profit),
		ProfitPercentage: round2(profitPercent),
		Similarity:       similarity,
		Confidence:       round2(confidence),

		Fees: models.FeeBreakdown{
			Platform:     round2(platformFee),
			Payment:      round2(paymentFee),
			EstimatedTax: round2(tax),
			Shipping:     round2(shipping),
		},
		NetProfit:           round2(netProfit),
		NetProfitPercentage: round2(netProfitPercent),

		VelocityScore:     velocity,
		EstimatedSellDays: estimatedSellDays(velocity),

		Subcategory: buy.Subcategory,
		FoundAt:     time.Now(),
	}
}

// confidenceScore rates how trustworthy a pairing is: a tiered base from
// similarity, a penalty when condition labels disagree, and a small bonus for
// profit headroom. Clamped to [0,100], with a floor of 90 when similarity is
// high enough that the titles are clearly the same item.
func confidenceScore(similarity float64, buyCondition, sellCondition string, profitPercent float64) float64 {
	base := similarity * 100
	switch {
	case similarity >= 0.9:
		base = 95
	case similarity >= 0.8:
		base = 85
	}

	if !strings.EqualFold(strings.TrimSpace(buyCondition), strings.TrimSpace(sellCondition)) {
		if similarity >= 0.9 {
			base -= 5
		} else {
			base -= 10
		}
	}

	base += math.Min(5, profitPercent/10)

	confidence := math.Max(0, math.Min(100, base))
	if similarity >= 0.9 && confidence < 90 {
		confidence = 90
	}
	return confidence
}

// marketplaceFees returns the platform and payment-processing fees charged
// by the sell-side marketplace.
func marketplaceFees(marketplace string, sellPrice float64) (platform, payment float64) {
	switch {
	case strings.Contains(strings.ToLower(marketplace), "ebay"):
		return sellPrice * 0.125, sellPrice*0.029 + 0.30
	case strings.Contains(strings.ToLower(marketplace), "amazon"):
		return sellPrice*0.15 + 1.80, 0
	case strings.Contains(strings.ToLower(marketplace), "stockx"):
		return sellPrice * 0.15, 0
	case strings.Contains(strings.ToLower(marketplace), "facebook"):
		return sellPrice * 0.05, 0
	default:
		return sellPrice * 0.10, sellPrice*0.029 + 0.30
	}
}

// velocityScore estimates (0-100) how quickly the item will resell.
func velocityScore(profitPercent, confidence float64, sellMarketplace, subcategory string) int {
	score := 50

	switch {
	case profitPercent >= 50:
		score += 20
	case profitPercent >= 25:
		score += 10
	}

	switch {
	case confidence >= 90:
		score += 15
	case confidence >= 80:
		score += 10
	}

	switch {
	case strings.Contains(strings.ToLower(sellMarketplace), "amazon"):
		score += 15
	case strings.Contains(strings.ToLower(sellMarketplace), "ebay"):
		score += 10
	case strings.Contains(strings.ToLower(sellMarketplace), "mercari"):
		score += 5
	case strings.Contains(strings.ToLower(sellMarketplace), "facebook"):
		score -= 5
	}

	if _, fast := fastMovingSubcategories[strings.ToLower(strings.TrimSpace(subcategory))]; fast {
		score += 10
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// estimatedSellDays maps a velocity score to an expected days-to-sell figure.
func estimatedSellDays(velocity int) int {
	switch {
	case velocity >= 80:
		return 3
	case velocity >= 60:
		return 7
	case velocity >= 40:
		return 14
	default:
		return 21
	}
}

// dedupePairs drops opportunities repeating a (buy link, sell link) pair,
// keeping the first encountered.
func dedupePairs(opps []*models.Opportunity) []*models.Opportunity {
	type linkPair struct{ buy, sell string }
	seen := make(map[linkPair]struct{}, len(opps))
	out := opps[:0]

	for _, o := range opps {
		key := linkPair{o.BuyLink, o.SellLink}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, o)
	}
	return out
}

// TopN bounds a ranked opportunity list, for callers accumulating results
// incrementally.
func TopN(opps []*models.Opportunity, n int) []*models.Opportunity {
	if n <= 0 {
		n = DefaultTopN
	}
	if len(opps) > n {
		return opps[:n]
	}
	return opps
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
