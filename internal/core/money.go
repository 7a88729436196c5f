// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from raw user
// input and formatting them for reports.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

func init() {
	// Stored and synced documents carry plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// ParseDecimal converts a decimal string to an amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and spaces
// used as thousands separators ("35 000"). Signs are rejected: amounts entered
// by users are never negative.
//
// Examples:
//
//	ParseDecimal("12.34")  -> 12.34, nil
//	ParseDecimal("12,34")  -> 12.34, nil
//	ParseDecimal("35 000") -> 35000, nil
//	ParseDecimal("-1")     -> 0, ErrInvalidAmount
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return decimal.Zero, ErrInvalidAmount
	}
	digits := 0
	for _, p := range parts {
		for _, r := range p {
			if !unicode.IsDigit(r) {
				return decimal.Zero, ErrInvalidAmount
			}
			digits++
		}
	}
	if digits == 0 {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseAmount is the lenient boundary conversion used for form input: anything
// ParseDecimal rejects becomes zero.
func ParseAmount(s string) decimal.Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatAmount renders an amount with space-grouped thousands followed by the
// currency label, e.g. "-30 000 Fr". Fractions are kept to two places when present.
func FormatAmount(d decimal.Decimal, currency string) string {
	neg := d.IsNegative()
	d = d.Abs()

	var whole, frac string
	if d.Equal(d.Truncate(0)) {
		whole = d.StringFixed(0)
	} else {
		fixed := d.StringFixed(2)
		i := strings.IndexByte(fixed, '.')
		whole, frac = fixed[:i], fixed[i+1:]
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte(',')
		b.WriteString(frac)
	}
	if currency != "" {
		b.WriteByte(' ')
		b.WriteString(currency)
	}
	return b.String()
}
