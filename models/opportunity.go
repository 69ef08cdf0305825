package models

import "time"

// FeeBreakdown itemizes the costs of selling on the target marketplace.
type FeeBreakdown struct {
	Platform     float64 `json:"platform"`
	Payment      float64 `json:"payment"`
	EstimatedTax float64 `json:"estimatedTax"`
	Shipping     float64 `json:"shipping"`
}

// Total is the sum of seller-side fees (tax and shipping are buy-side costs).
func (f FeeBreakdown) Total() float64 {
	return f.Platform + f.Payment
}

// Opportunity is a proposed buy-here/sell-there pairing of two listings from
// different marketplaces. Immutable once created.
type Opportunity struct {
	BuyTitle       string  `json:"buyTitle"`
	BuyPrice       float64 `json:"buyPrice"`
	BuyMarketplace string  `json:"buyMarketplace"`
	BuyLink        string  `json:"buyLink"`
	BuyImage       string  `json:"buyImage"`
	BuyCondition   string  `json:"buyCondition"`

	SellTitle       string  `json:"sellTitle"`
	SellPrice       float64 `json:"sellPrice"`
	SellMarketplace string  `json:"sellMarketplace"`
	SellLink        string  `json:"sellLink"`
	SellImage       string  `json:"sellImage"`
	SellCondition   string  `json:"sellCondition"`

	Profit           float64 `json:"profit"`
	ProfitPercentage float64 `json:"profitPercentage"`
	Similarity       float64 `json:"similarity"`
	Confidence       float64 `json:"confidence"`

	Fees                FeeBreakdown `json:"fees"`
	NetProfit           float64      `json:"netProfit"`
	NetProfitPercentage float64      `json:"netProfitPercentage"`

	VelocityScore     int `json:"velocityScore"`
	EstimatedSellDays int `json:"estimatedSellDays"`

	Subcategory string    `json:"subcategory"`
	FoundAt     time.Time `json:"timestamp"`
}
