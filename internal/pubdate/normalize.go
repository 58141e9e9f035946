// Package pubdate normalizes heterogeneous date strings and reconciles
// publication dates.
//
// All normalized dates use the MM/DD/YYYY layout. Partial dates are widened
// with a fixed policy: a year-month maps to the first of that month and a
// bare year maps to December 31 of that year, so that a year-only
// publication date reads as "published by year end".
package pubdate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/matsen/rxivlink/internal/record"
)

// Layout is the canonical output layout (MM/DD/YYYY).
const Layout = "01/02/2006"

// Accepted input layouts. Single-digit months and days are accepted since
// Crossref date-parts are joined without padding.
const (
	slashLayout = "1/2/2006"
	dashLayout  = "2006-1-2"
)

// Normalize converts a date string to MM/DD/YYYY. It accepts M/D/YYYY
// (zero-padded on output), YYYY-MM-DD, YYYY-MM and YYYY. Anything else,
// including blank input, yields the empty string.
func Normalize(raw string) string {
	if record.IsBlank(raw) {
		return ""
	}
	s := strings.TrimSpace(raw)

	if t, err := time.Parse(slashLayout, s); err == nil {
		return t.Format(Layout)
	}

	parts := strings.Split(s, "-")
	switch len(parts) {
	case 3:
		t, err := time.Parse(dashLayout, s)
		if err != nil {
			return ""
		}
		return t.Format(Layout)

	case 2:
		if !isYear(parts[0]) {
			return ""
		}
		month, err := strconv.Atoi(parts[1])
		if err != nil || month < 1 || month > 12 {
			return ""
		}
		return fmt.Sprintf("%02d/01/%s", month, parts[0])

	case 1:
		if !isYear(s) {
			return ""
		}
		return "12/31/" + s
	}

	return ""
}

// Parse normalizes a date string and returns it as a UTC midnight time.
func Parse(raw string) (time.Time, bool) {
	s := Normalize(raw)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(slashLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// isYear reports whether s is exactly four ASCII digits.
func isYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
