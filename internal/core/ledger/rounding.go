package ledger

import "github.com/shopspring/decimal"

// Presentation precision. Arithmetic inside the package is never rounded.
const (
	MoneyPlaces    int32 = 2
	QuantityPlaces int32 = 8
)

// RoundMoney rounds a monetary figure for display.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// RoundQuantity rounds a coin quantity for display.
func RoundQuantity(d decimal.Decimal) decimal.Decimal {
	return d.Round(QuantityPlaces)
}
