package models

import (
	"errors"
	"time"
)

// Listing is one marketplace's advertisement for an item, in the common
// shape every marketplace adapter must produce. Listings live only for the
// duration of one scan and are never persisted by the core.
type Listing struct {
	Marketplace     string    `json:"marketplace"`
	Title           string    `json:"title"`
	Price           float64   `json:"price"`
	ShippingCost    float64   `json:"shippingCost"`
	FreeShipping    bool      `json:"freeShipping"`
	Condition       string    `json:"condition"`
	Link            string    `json:"link"`
	ImageURL        string    `json:"imageUrl"`
	Keyword         string    `json:"keyword"`
	Subcategory     string    `json:"subcategory"`
	ScrapedAt       time.Time `json:"scrapedAt"`
	NormalizedTitle string    `json:"-"`
}

var (
	ErrEmptyTitle       = errors.New("listing: empty title")
	ErrInvalidPrice     = errors.New("listing: price must be greater than 0")
	ErrEmptyMarketplace = errors.New("listing: empty marketplace")
	ErrEmptyLink        = errors.New("listing: empty link")
)

// Validate fails fast on listings that would otherwise propagate silently
// as zero values. Adapters call this before handing a listing to the core.
func (l *Listing) Validate() error {
	if l.Title == "" {
		return ErrEmptyTitle
	}
	if l.Price <= 0 {
		return ErrInvalidPrice
	}
	if l.Marketplace == "" {
		return ErrEmptyMarketplace
	}
	if l.Link == "" {
		return ErrEmptyLink
	}
	return nil
}

// Usable reports whether the listing can participate in matching.
// Unusable listings are skipped silently, never raised.
func (l *Listing) Usable() bool {
	return l.Title != "" && l.Price > 0
}

// EffectiveBuyPrice is the real cost of acquiring the item: list price plus
// shipping unless the seller ships free.
func (l *Listing) EffectiveBuyPrice() float64 {
	if l.FreeShipping {
		return l.Price
	}
	return l.Price + l.ShippingCost
}
