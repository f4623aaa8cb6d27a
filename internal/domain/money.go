package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// minorUnitScale is the number of decimal places kept for every amount.
const minorUnitScale = 2

// RoundMoney rounds d to the currency minor unit, halves rounded up.
// Amounts in this domain are never negative, so decimal's half-away-from-zero
// rounding is the same as half-up.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(minorUnitScale)
}

// ToMinorUnits converts d to an integer count of minor units (agorot, cents).
func ToMinorUnits(d decimal.Decimal) int64 {
	return RoundMoney(d).Shift(minorUnitScale).IntPart()
}

// FromMinorUnits is the inverse of ToMinorUnits.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -minorUnitScale)
}

// ParseCurrency validates an ISO 4217 code.
func ParseCurrency(code string) (currency.Unit, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return currency.Unit{}, fmt.Errorf("parse currency %q: %w", code, err)
	}
	return unit, nil
}

// FormatMoney renders d as "ILS 938.00".
func FormatMoney(unit currency.Unit, d decimal.Decimal) string {
	return unit.String() + " " + RoundMoney(d).StringFixed(minorUnitScale)
}
