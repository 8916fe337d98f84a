package dataset

// convert.go turns raw CSV cells into Values.
//
// Raw exports are messy: spreadsheet formula prefixes, stray quotes,
// thousands separators and a handful of date layouts all show up. Every
// parser here returns ok=false rather than an error so callers decide whether
// a bad cell is fatal (join keys) or just null (measures).

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// numberPattern matches integers, decimals and scientific notation after cleanup.
var numberPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// dateLayouts are tried in order. ISO first since every dataset we ingest uses it.
var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"2006.01.02",
	"1/2/2006",
	"01/02/2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"20060102",
}

// CleanCell strips whitespace, spreadsheet formula wrappers (="...") and
// surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}
	return strings.Trim(s, `"'`)
}

// ParseNumber parses a numeric cell. Thousands separators are dropped and
// accounting negatives "(12.5)" are accepted.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	s = strings.ReplaceAll(s, ",", "")
	if !numberPattern.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}

// ParseDate parses a date cell using the known layouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseCell converts a raw cell for the named column. Empty cells are null.
// The date column must parse as a date; ok is false otherwise. Other columns
// become numbers when they look numeric and strings when they do not.
func ParseCell(column, raw string) (Value, bool) {
	s := CleanCell(raw)
	if s == "" {
		return Null(), true
	}
	if column == ColDate {
		t, ok := ParseDate(s)
		if !ok {
			return Null(), false
		}
		return Date(t), true
	}
	if column == ColLocation {
		return String(s), true
	}
	if f, ok := ParseNumber(s); ok {
		return Number(f), true
	}
	return String(s), true
}
