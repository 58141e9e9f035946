// Package status classifies preprints by publication status.
//
// The status is a three-state machine. A record starts as Published when the
// preprint server already carries a published DOI, otherwise as PreprintOnly.
// After the fuzzy linkage round a PreprintOnly record with a plausible
// publisher match moves to GrayZone. No other transition exists, so a status
// never regresses and Published is never downgraded.
package status

import (
	"fmt"
	"strings"
)

// Status is the publication status of a preprint.
type Status string

const (
	PreprintOnly Status = "preprint only" // No known publisher record
	GrayZone     Status = "gray zone"     // Fuzzy publisher match, no authoritative DOI
	Published    Status = "published"     // Published DOI present at ingestion
)

// All lists every status in pipeline order.
var All = []Status{PreprintOnly, GrayZone, Published}

// Initial assigns the ingestion status: Published when the preprint server
// supplied a non-empty published DOI, PreprintOnly otherwise.
func Initial(hasPublishedDOI bool) Status {
	if hasPublishedDOI {
		return Published
	}
	return PreprintOnly
}

// Transition is the total transition function applied after the linkage
// round. Only PreprintOnly moves, and only when a match was found.
func Transition(s Status, matchFound bool) Status {
	if s.Normalize() == PreprintOnly && matchFound {
		return GrayZone
	}
	return s.Normalize()
}

// Normalize maps the empty status to PreprintOnly.
func (s Status) Normalize() Status {
	if s == "" {
		return PreprintOnly
	}
	return s
}

// Qualifies reports whether the record has a meaningful publication date,
// i.e. it is GrayZone or Published.
func (s Status) Qualifies() bool {
	return s == GrayZone || s == Published
}

// Valid reports whether s is one of the defined statuses.
func (s Status) Valid() bool {
	switch s {
	case PreprintOnly, GrayZone, Published:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s.Normalize())
}

// Parse parses a status value case-insensitively.
// Empty input is treated as PreprintOnly.
func Parse(s string) (Status, error) {
	v := Status(strings.ToLower(strings.TrimSpace(s)))
	if v == "" {
		return PreprintOnly, nil
	}
	if !v.Valid() {
		return "", fmt.Errorf("unknown status %q (valid: %v)", s, All)
	}
	return v, nil
}

// UnmarshalText lets a Status decode from JSON and other text formats.
func (s *Status) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// MarshalText writes the normalized status.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.Normalize()), nil
}

