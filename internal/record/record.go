// Package record defines the core domain types for preprint linkage.
package record

import (
	"strings"

	"github.com/matsen/rxivlink/internal/status"
)

// Revision represents one observed revision of a preprint.
type Revision struct {
	Identifier               string `json:"identifier"` // Shared across revisions of the same work
	Version                  string `json:"version"`    // Raw version text, coerced by the reducer
	Title                    string `json:"title"`
	Authors                  string `json:"authors"` // Semicolon-delimited free text
	CorrespondingAuthor      string `json:"corresponding_author"`
	CorrespondingInstitution string `json:"corresponding_author_institution"`
	SubmissionDate           string `json:"submission_date"`
	Type                     string `json:"type"`
	License                  string `json:"license"`
	Category                 string `json:"category"`
	ExternalLink             string `json:"external_link"` // bioRxiv JATS XML link
	Abstract                 string `json:"abstract"`
	PublishedDOI             string `json:"published_doi"` // Assigned by the preprint server
}

// Pivoted holds the first and last revision of one version group side by side.
type Pivoted struct {
	Identifier string `json:"identifier"`

	// Paired first/last values
	TitleFirst          string `json:"title_first"`
	TitleLast           string `json:"title_last"`
	AuthorsFirst        string `json:"authors_first"`
	AuthorsLast         string `json:"authors_last"`
	CorrespondingFirst  string `json:"corresponding_author_first"`
	CorrespondingLast   string `json:"corresponding_author_last"`
	SubmissionDateFirst string `json:"submission_date_first"`
	SubmissionDateLast  string `json:"submission_date_last"`
	AbstractFirst       string `json:"abstract_first"`
	AbstractLast        string `json:"abstract_last"`

	// Last-only values
	VersionLast              int    `json:"version_last"`
	CorrespondingInstitution string `json:"corresponding_author_institution"`
	Type                     string `json:"type"`
	License                  string `json:"license"`
	Category                 string `json:"category"`
	ExternalLink             string `json:"external_link"`
	PublishedDOI             string `json:"published_doi"`
}

// QueryTitle returns the title used to search the publisher index:
// the last title, falling back to the first.
func (p Pivoted) QueryTitle() string {
	if t := strings.TrimSpace(p.TitleLast); t != "" {
		return t
	}
	return strings.TrimSpace(p.TitleFirst)
}

// Match is the publisher-side metadata attached to a record, either from a
// direct DOI lookup or from the best fuzzy title candidate.
type Match struct {
	Title      string   `json:"matched_title"`
	Journal    string   `json:"matched_journal"`
	Authors    string   `json:"matched_authors"` // "Family, Given; Family, Given"
	OnlineDate string   `json:"matched_online_date"`
	IssueDate  string   `json:"matched_issue_date"`
	DOI        string   `json:"matched_doi"`
	TitleScore *float64 `json:"title_match_score"` // Set only for fuzzy matches
}

// Found reports whether the match carries a title or a DOI.
func (m Match) Found() bool {
	return strings.TrimSpace(m.Title) != "" || !IsBlank(m.DOI)
}

// Linked is one output row: the pivoted record plus everything the pipeline
// derives for it.
type Linked struct {
	Pivoted
	Status status.Status `json:"status"`
	Match

	AuthorMatchScore float64 `json:"author_match_score"`
	AuthorCountDiff  int     `json:"author_count_diff"`

	PublicationDate             string `json:"canonical_publication_date"` // MM/DD/YYYY or empty
	PublicationType             string `json:"publication_type"`           // "online published", "issue" or empty
	VersionSpanDays             *int   `json:"version_span_days"`
	SubmissionToPublicationDays *int   `json:"submission_to_publication_days"`
}
