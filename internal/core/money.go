// Package core provides the transaction model and the pure views derived
// from a transaction list.
//
// This file contains amount parsing and display formatting.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var displayPrinter = message.NewPrinter(language.English)

// ParseAmount parses a decimal string into a strictly positive amount.
//
// Examples:
//
//	ParseAmount("250.50") -> 250.5, nil
//	ParseAmount(" 75 ")   -> 75, nil
//	ParseAmount("0")      -> 0, ErrInvalidAmount
//	ParseAmount("-3")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders d with two decimals, digit grouping and the given
// currency symbol, e.g. "₹1,234.50" or "-₹325.50".
func FormatAmount(symbol string, d decimal.Decimal) string {
	v := d.Round(2)
	sign := ""
	if v.IsNegative() {
		sign = "-"
		v = v.Neg()
	}
	return sign + symbol + displayPrinter.Sprintf("%.2f", v.InexactFloat64())
}
