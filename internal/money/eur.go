package money

import "github.com/shopspring/decimal"

// CentsToEUR renders an integer-cents amount as a two-decimal EUR string
// for audit metadata and display payloads.
func CentsToEUR(cents int64) string {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}
