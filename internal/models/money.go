package models

import "github.com/shopspring/decimal"

// MoneyScale is the number of fractional digits stored for money columns.
const MoneyScale = 2

// FitsMoneyScale reports whether d can be stored without rounding.
func FitsMoneyScale(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyScale))
}

// SumMoney adds amounts exactly. Money is summed in Go rather than with SQL
// SUM because SQLite keeps decimal columns as floating point.
func SumMoney(amounts []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
