// Package version collapses preprint revisions into first/last pivoted records.
package version

import (
	"math"
	"strconv"
	"strings"

	"github.com/matsen/rxivlink/internal/record"
)

// Group holds all revisions sharing one identifier, in input order.
type Group struct {
	Identifier string
	Revisions  []record.Revision
}

// Stats counts what the reducer kept and dropped.
type Stats struct {
	Revisions          int `json:"revisions"`
	Groups             int `json:"groups"`
	Kept               int `json:"kept"`
	DroppedNoFirst     int `json:"dropped_no_first"`    // Groups without a version-1 revision
	BlankIdentifier    int `json:"blank_identifier"`    // Rows skipped for a blank identifier
	UnparsableVersions int `json:"unparsable_versions"` // Rows whose version was treated as missing
}

// ParseVersion coerces a raw version value to a positive integer.
// Integral float text ("2.0") is accepted; anything else is missing.
func ParseVersion(raw string) (int, bool) {
	if record.IsBlank(raw) {
		return 0, false
	}
	s := strings.TrimSpace(raw)

	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return 0, false
		}
		return n, true
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f != math.Trunc(f) || f < 1 || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// GroupByIdentifier groups revisions by identifier. Groups are returned in
// the order their identifier first appears; rows with a blank identifier are
// skipped and counted in the returned total.
func GroupByIdentifier(revs []record.Revision) ([]Group, int) {
	index := make(map[string]int)
	var groups []Group
	skipped := 0

	for _, rev := range revs {
		id := record.Clean(rev.Identifier)
		if id == "" {
			skipped++
			continue
		}
		i, ok := index[id]
		if !ok {
			i = len(groups)
			index[id] = i
			groups = append(groups, Group{Identifier: id})
		}
		groups[i].Revisions = append(groups[i].Revisions, rev)
	}

	return groups, skipped
}

// FirstAndLast selects the significant revisions of a group: the first-seen
// revision with version 1, and the first-seen revision carrying the maximum
// version. It returns false when the group has no version-1 revision.
func FirstAndLast(g Group) (first, last record.Revision, lastVersion int, ok bool) {
	firstIdx, lastIdx := -1, -1
	maxVersion := 0

	for i, rev := range g.Revisions {
		v, valid := ParseVersion(rev.Version)
		if !valid {
			continue
		}
		if v == 1 && firstIdx < 0 {
			firstIdx = i
		}
		// Strictly greater keeps the first-seen revision on ties
		if v > maxVersion {
			maxVersion = v
			lastIdx = i
		}
	}

	if firstIdx < 0 {
		return record.Revision{}, record.Revision{}, 0, false
	}
	return g.Revisions[firstIdx], g.Revisions[lastIdx], maxVersion, true
}

// Pivot combines the first and last revision into one record.
func Pivot(identifier string, first, last record.Revision, lastVersion int) record.Pivoted {
	return record.Pivoted{
		Identifier: identifier,

		TitleFirst:          first.Title,
		TitleLast:           last.Title,
		AuthorsFirst:        first.Authors,
		AuthorsLast:         last.Authors,
		CorrespondingFirst:  first.CorrespondingAuthor,
		CorrespondingLast:   last.CorrespondingAuthor,
		SubmissionDateFirst: first.SubmissionDate,
		SubmissionDateLast:  last.SubmissionDate,
		AbstractFirst:       first.Abstract,
		AbstractLast:        last.Abstract,

		VersionLast:              lastVersion,
		CorrespondingInstitution: last.CorrespondingInstitution,
		Type:                     last.Type,
		License:                  last.License,
		Category:                 last.Category,
		ExternalLink:             last.ExternalLink,
		PublishedDOI:             record.Clean(last.PublishedDOI),
	}
}

// Reduce collapses revisions into one pivoted record per identifier that has
// a version-1 revision. Output order is the first-appearance order of the
// identifier in the input.
func Reduce(revs []record.Revision) ([]record.Pivoted, Stats) {
	stats := Stats{Revisions: len(revs)}
	for _, rev := range revs {
		if _, ok := ParseVersion(rev.Version); !ok {
			stats.UnparsableVersions++
		}
	}

	groups, skipped := GroupByIdentifier(revs)
	stats.Groups = len(groups)
	stats.BlankIdentifier = skipped

	out := make([]record.Pivoted, 0, len(groups))
	for _, g := range groups {
		first, last, lastVersion, ok := FirstAndLast(g)
		if !ok {
			stats.DroppedNoFirst++
			continue
		}
		out = append(out, Pivot(g.Identifier, first, last, lastVersion))
	}
	stats.Kept = len(out)

	return out, stats
}
