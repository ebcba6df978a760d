// Package enhanceddata assembles the Level 2/3 enhanced transaction data that
// card networks require for better interchange rates on commercial cards.
package enhanceddata

import (
	"github.com/commercekit/bluesnap-service/internal/domain"
	"github.com/shopspring/decimal"
)

// Sum folds adjustment amounts into a running total. An empty list yields nil,
// which is distinct from a zero total.
func Sum(adjustments []domain.Adjustment) *decimal.Decimal {
	if len(adjustments) == 0 {
		return nil
	}
	total := decimal.Zero
	for _, adjustment := range adjustments {
		total = total.Add(adjustment.Amount)
	}
	return &total
}

// SumRates sums adjustment percentages. The moment any adjustment lacks a
// percentage the aggregated rate is undefined and nil is returned; a missing
// percentage is never treated as zero.
func SumRates(adjustments []domain.Adjustment) *decimal.Decimal {
	if len(adjustments) == 0 {
		return nil
	}
	total := decimal.Zero
	for _, adjustment := range adjustments {
		if adjustment.Percentage == nil {
			return nil
		}
		total = total.Add(*adjustment.Percentage)
	}
	return &total
}
