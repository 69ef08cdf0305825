package scraper

import (
	"context"

	"flipscan/models"
)

// Marketplace is implemented by every marketplace adapter. Adapters own
// their retries, rate limiting and parsing; the core only sees the common
// listing shape.
type Marketplace interface {
	// Name is the marketplace identifier stamped on every listing.
	Name() string
	// Search fetches listings matching the given keywords. Shipping fields
	// default to zero/false when the marketplace doesn't expose them.
	Search(ctx context.Context, keywords []string) ([]*models.Listing, error)
	// Supports reports whether this marketplace is worth querying for the
	// subcategory (a sneaker-specialized marketplace only handles shoes).
	Supports(subcategory string) bool
}
