// Package moneypkg formats minor-unit integer amounts for display.
//
// All monetary values in the system are stored as signed integers in minor
// units (e.g. 12345 means 123.45).
package moneypkg

import "github.com/shopspring/decimal"

// Display renders a minor-unit amount with exactly two decimal places,
// e.g. 98700 -> "987.00", -5025 -> "-50.25".
func Display(amount int64) string {
	return decimal.New(amount, -2).StringFixed(2)
}

// DisplaySigned renders a minor-unit amount with an explicit sign,
// prefixing "+" for non-negative amounts. Used by statement rows.
func DisplaySigned(amount int64) string {
	if amount >= 0 {
		return "+" + Display(amount)
	}

	return Display(amount)
}
