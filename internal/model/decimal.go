package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseOptionalDecimal parses a spreadsheet cell.
// Blank cells are absent (ok == false, err == nil). Thousands separators are
// stripped. Anything else that is not a number is an error.
func ParseOptionalDecimal(cell string) (d decimal.Decimal, ok bool, err error) {
	s := strings.TrimSpace(strings.ReplaceAll(cell, ",", ""))
	if s == "" {
		return decimal.Zero, false, nil
	}
	d, err = decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("parse decimal %q: %w", cell, err)
	}
	return d, true, nil
}
