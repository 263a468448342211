package report

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when an unknown currency code is configured.
const DefaultCurrency = money.USD

// FormatMoney renders amount in the currency's display format, rounded to
// the currency's minor unit, e.g. "$2,500.00".
func FormatMoney(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		currency = DefaultCurrency
		cur = money.GetCurrency(currency)
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, currency).Display()
}

// FormatSignedMoney is FormatMoney with a leading "+" for gains.
func FormatSignedMoney(amount decimal.Decimal, currency string) string {
	s := FormatMoney(amount, currency)
	if amount.IsPositive() {
		return "+" + s
	}
	return s
}
