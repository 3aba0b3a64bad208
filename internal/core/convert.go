package core

// convert.go turns cleaned cell text into typed values.
//
// Spreadsheet data arrives messy:
//   - several date layouts (ISO, US, EU, spelled months)
//   - thousands separators and unit suffixes in quantities
//   - localized yes/no tokens
//   - Excel formula prefixes (="value") and stray quotes
//
// The Pg* helpers return pgtype values with Valid=false for empty input so
// optional columns land as NULL.

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

var (
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
	minInt64 = decimal.NewFromInt(math.MinInt64)
)

// numericRegex validates a number after cleanup: integers, decimals, exponents.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted. Years that
// would land more than this many years in the future are moved back a century.
var TwoDigitYearPivot = 20

var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "2.1.06", "02.01.06",
	}
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"1/2/2006", "01/02/2006",
		"2.1.2006", "02.01.2006",
		"Jan 2, 2006", "2 Jan 2006", "02-Jan-2006",
		"20060102",
	}
	dateTimeLayouts = []string{
		"2006-01-02 15:04",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
		"2006-01-02T15:04:05",
		time.RFC3339,
		"01/02/2006 15:04",
		"02.01.2006 15:04",
	}
)

// boolTokens holds accepted yes/no spellings, lowercased.
var boolTokens = map[string]bool{
	"true": true, "t": true, "yes": true, "y": true, "1": true, "x": true,
	"ja": true, "j": true, "si": true, "sí": true, "oui": true,
	"false": false, "f": false, "no": false, "n": false, "0": false,
	"nein": false, "non": false,
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// surrounding whitespace (including non-breaking spaces and BOM), the Excel
// formula prefix (="...") and surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// ParseDate parses a calendar date. Two-digit years use TwoDigitYearPivot.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, nil
		}
	}

	// A date-time is acceptable where a date is expected; the time is dropped.
	if t, err := ParseDateTime(s); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", s)
}

// ParseDateTime parses a date with an optional HH:MM time.
func ParseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD HH:MM)", s)
}

// ParseDecimal parses a quantity, tolerating thousands separators, a trailing
// unit (kg, pal) and accounting negatives "(12.5)".
func ParseDecimal(s string) (decimal.Decimal, error) {
	raw := s
	s = strings.TrimSpace(s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	lower := strings.ToLower(s)
	for _, unit := range []string{"kgs", "kg", "pallets", "pal", "plt"} {
		if strings.HasSuffix(lower, unit) {
			s = strings.TrimSpace(s[:len(s)-len(unit)])
			break
		}
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if negative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return decimal.Decimal{}, fmt.Errorf("invalid number %q", raw)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid number %q", raw)
	}
	return d, nil
}

// ParseInt parses a whole number. "12.0" is accepted, "12.5" is not.
func ParseInt(s string) (int64, error) {
	d, err := ParseDecimal(s)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("invalid number %q (whole number expected)", s)
	}
	if d.GreaterThan(maxInt64) || d.LessThan(minInt64) {
		return 0, fmt.Errorf("invalid number %q (too large)", s)
	}
	return d.IntPart(), nil
}

// ParseBool recognises localized yes/no tokens.
func ParseBool(s string) (value, ok bool) {
	value, ok = boolTokens[strings.ToLower(strings.TrimSpace(s))]
	return value, ok
}

// ToPgText converts a string to pgtype.Text, invalid when blank.
func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgDate parses s into a pgtype.Date, invalid when blank or unparseable.
func ToPgDate(s string) pgtype.Date {
	if strings.TrimSpace(s) == "" {
		return pgtype.Date{Valid: false}
	}
	t, err := ParseDate(s)
	if err != nil {
		return pgtype.Date{Valid: false}
	}
	return pgtype.Date{Time: t, Valid: true}
}

// ToPgTimestamp parses s into a pgtype.Timestamp, invalid when blank or unparseable.
func ToPgTimestamp(s string) pgtype.Timestamp {
	if strings.TrimSpace(s) == "" {
		return pgtype.Timestamp{Valid: false}
	}
	t, err := ParseDateTime(s)
	if err != nil {
		return pgtype.Timestamp{Valid: false}
	}
	return pgtype.Timestamp{Time: t, Valid: true}
}
