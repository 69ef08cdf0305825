package storage

import "flipscan/models"

// OpportunityWriter is the interface any archive backend must satisfy. The
// core never reads archived opportunities back; they feed external
// price-history analytics.
type OpportunityWriter interface {
	Write(opportunities []*models.Opportunity) error
	Close() error
}
