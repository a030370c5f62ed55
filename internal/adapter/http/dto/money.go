package dto

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatMoney renders an amount in the display format of an ISO 4217
// currency, e.g. "$1,234.50". It reports false for codes go-money does not
// know (crypto quote currencies such as "btc").
func FormatMoney(amount decimal.Decimal, code string) (string, bool) {
	cur := money.GetCurrency(strings.ToUpper(code))
	if cur == nil {
		return "", false
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), cur.Code).Display(), true
}
