// Package calc holds the decimal arithmetic the ledger is built on.
package calc

import "github.com/shopspring/decimal"

func Add(a, b decimal.Decimal) decimal.Decimal {
	return a.Add(b)
}

func Subtract(a, b decimal.Decimal) decimal.Decimal {
	return a.Sub(b)
}

func Multiply(a, b decimal.Decimal) decimal.Decimal {
	return a.Mul(b)
}

// Percent returns rate percent of value. The rate is shifted rather than
// divided so the result stays exact.
func Percent(value, rate decimal.Decimal) decimal.Decimal {
	return Multiply(value, rate.Shift(-2))
}
