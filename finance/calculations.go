// Package finance contains the presentation-layer calculations for holdings
// and portfolio summaries. All values are decimal currency amounts.
package finance

import "github.com/shopspring/decimal"

var oneHundred = decimal.NewFromInt(100)

// PortfolioSummary carries the per-portfolio subscription and redemption
// amounts reported by the backend. The zero value means "no data".
type PortfolioSummary struct {
	Subscriptions decimal.Decimal
	Redemptions   decimal.Decimal
}

// Totals aggregates subscriptions and redemptions across portfolios.
type Totals struct {
	Subscriptions decimal.Decimal
	Redemptions   decimal.Decimal
}

// ChangeAmount returns current - purchase. Missing or zero inputs are
// guarded to zero rather than reporting a bogus change.
func ChangeAmount(purchase, current decimal.Decimal) decimal.Decimal {
	if purchase.IsZero() || current.IsZero() {
		return decimal.Zero
	}
	return current.Sub(purchase)
}

// ChangePercentage returns ((current / purchase) * 100) - 100 formatted to
// two decimal places, or "0" when either input is missing or zero.
func ChangePercentage(purchase, current decimal.Decimal) string {
	if purchase.IsZero() || current.IsZero() {
		return "0"
	}
	return current.Div(purchase).Mul(oneHundred).Sub(oneHundred).StringFixed(2)
}

// SummaryTotals sums subscriptions and redemptions over a list of portfolio
// summaries. Missing fields contribute zero.
func SummaryTotals(summaries []PortfolioSummary) Totals {
	totals := Totals{Subscriptions: decimal.Zero, Redemptions: decimal.Zero}
	for _, s := range summaries {
		totals.Subscriptions = totals.Subscriptions.Add(s.Subscriptions)
		totals.Redemptions = totals.Redemptions.Add(s.Redemptions)
	}
	return totals
}
