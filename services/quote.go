package services

import "flipscan/models"

// ProfitQuote is the profitability breakdown for a hypothetical flip,
// computed with the same math the synthesizer applies to discovered pairs.
type ProfitQuote struct {
	Profit              float64             `json:"profit"`
	ProfitPercentage    float64             `json:"profitPercentage"`
	Fees                models.FeeBreakdown `json:"fees"`
	NetProfit           float64             `json:"netProfit"`
	NetProfitPercentage float64             `json:"netProfitPercentage"`
}

// QuoteProfit computes gross and net profitability for buying at buyPrice
// (plus shipping, unless free) and selling at sellPrice on sellMarketplace.
func QuoteProfit(buyPrice, sellPrice, shippingCost float64, freeShipping bool, sellMarketplace string) ProfitQuote {
	shipping := shippingCost
	if freeShipping {
		shipping = 0
	}

	effectiveBuy := buyPrice + shipping
	profit := sellPrice - effectiveBuy
	profitPercent := 0.0
	if effectiveBuy > 0 {
		profitPercent = profit / effectiveBuy * 100
	}

	platformFee, paymentFee := marketplaceFees(sellMarketplace, sellPrice)
	tax := buyPrice * estimatedTaxRate

	totalCost := buyPrice + tax + shipping
	netProfit := sellPrice - totalCost - (platformFee + paymentFee)
	netProfitPercent := 0.0
	if totalCost > 0 {
		netProfitPercent = netProfit / totalCost * 100
	}

	return ProfitQuote{
		Profit:           round2(profit),
		ProfitPercentage: round2(profitPercent),
		Fees: models.FeeBreakdown{
			Platform:     round2(platformFee),
			Payment:      round2(paymentFee),
			EstimatedTax: round2(tax),
			Shipping:     round2(shipping),
		},
		NetProfit:           round2(netProfit),
		NetProfitPercentage: round2(netProfitPercent),
	}
}
