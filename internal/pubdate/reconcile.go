package pubdate

import (
	"strings"

	"github.com/matsen/rxivlink/internal/record"
	"github.com/matsen/rxivlink/internal/status"
)

// Publication type tags.
const (
	TypeOnline = "online published"
	TypeIssue  = "issue"
)

const secondsPerDay = 24 * 60 * 60

// Reconcile chooses the canonical publication date from the online and
// issue dates. The online date wins when present; the issue date is the
// fallback. Both return values are empty when neither date exists.
func Reconcile(online, issue string) (date, pubType string) {
	if !record.IsBlank(online) {
		return strings.TrimSpace(online), TypeOnline
	}
	if !record.IsBlank(issue) {
		return strings.TrimSpace(issue), TypeIssue
	}
	return "", ""
}

// DaysBetween returns the whole days from one date to another, or nil when
// either date cannot be parsed.
func DaysBetween(from, to string) *int {
	f, ok := Parse(from)
	if !ok {
		return nil
	}
	t, ok := Parse(to)
	if !ok {
		return nil
	}
	days := int((t.Unix() - f.Unix()) / secondsPerDay)
	return &days
}

// VersionSpan returns the days between the first and last submission.
// It applies to every record regardless of status.
func VersionSpan(firstSubmission, lastSubmission string) *int {
	return DaysBetween(firstSubmission, lastSubmission)
}

// SubmissionToPublication returns the days between the last submission and
// the canonical publication date. Only gray zone and published records
// qualify; every other record yields nil.
func SubmissionToPublication(s status.Status, lastSubmission, publication string) *int {
	if !s.Qualifies() {
		return nil
	}
	return DaysBetween(lastSubmission, publication)
}
