package models

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of fractional digits kept for every amount.
const MoneyPlaces = 2

// FromCents converts stored minor units into a decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -MoneyPlaces)
}

// ToCents converts a decimal amount into minor units, rounding half away from zero.
func ToCents(d decimal.Decimal) int64 {
	return d.Round(MoneyPlaces).Shift(MoneyPlaces).IntPart()
}
