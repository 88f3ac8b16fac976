// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from form input
// and formatting them for fixed-point display.
package core

import (
	"math"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of fraction digits kept for currency amounts.
const MoneyPlaces = 2

// ParseAmount converts a decimal string into a non-negative decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. An empty
// string parses as zero so partially filled forms can still be recomputed.
// Signs, exponents and thousands separators are rejected.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,5")  -> 12.5, nil
//	ParseAmount("")      -> 0, nil
//	ParseAmount("-1")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	if s == "." {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// RoundMoney rounds half away from zero to whole cents.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// FormatMoney formats an amount as "$12.34" ("-$12.34" for losses).
func FormatMoney(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(MoneyPlaces)
	}
	return "$" + d.StringFixed(MoneyPlaces)
}

// FormatMoneyFloat is FormatMoney for aggregate figures computed in float64.
// Infinities and NaN render as "-".
func FormatMoneyFloat(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return "-"
	}
	return FormatMoney(decimal.NewFromFloat(f))
}

// FormatNullMoney renders an optional amount, using "-" when absent.
func FormatNullMoney(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return FormatMoney(d.Decimal)
}

// NullMoney wraps an amount as a present optional value.
func NullMoney(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
