package common

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatMoney renders an amount in currency (e.g. "$1,250.50"), rounded to
// the currency's minor unit.
func FormatMoney(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		cur = money.GetCurrency(money.USD)
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, cur.Code).Display()
}

// FormatUSD is FormatMoney for the settlement currency.
func FormatUSD(amount decimal.Decimal) string {
	return FormatMoney(amount, money.USD)
}
