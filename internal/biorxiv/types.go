package biorxiv

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/matsen/rxivlink/internal/record"
)

// FlexibleString can unmarshal from either string or number JSON values.
// The details endpoint reports counts as numbers on some pages and strings
// on others.
type FlexibleString string

func (f *FlexibleString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexibleString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexibleString(n.String())
		return nil
	}

	return fmt.Errorf("cannot unmarshal %s into FlexibleString", string(data))
}

func (f FlexibleString) String() string {
	return string(f)
}

// Int parses the value as an integer, returning 0 when it is not one.
func (f FlexibleString) Int() int {
	n, err := strconv.Atoi(strings.TrimSpace(string(f)))
	if err != nil {
		return 0
	}
	return n
}

// Message is the paging metadata of a details response.
type Message struct {
	Status         string         `json:"status"`
	Interval       string         `json:"interval"`
	Cursor         FlexibleString `json:"cursor"`
	Count          FlexibleString `json:"count"`
	CountNewPapers FlexibleString `json:"count_new_papers"`
	Total          FlexibleString `json:"total"`
}

// Preprint is one revision as returned by the details endpoint.
type Preprint struct {
	DOI                            string         `json:"doi"`
	Title                          string         `json:"title"`
	Authors                        string         `json:"authors"`
	AuthorCorresponding            string         `json:"author_corresponding"`
	AuthorCorrespondingInstitution string         `json:"author_corresponding_institution"`
	Date                           string         `json:"date"`
	Version                        FlexibleString `json:"version"`
	Type                           string         `json:"type"`
	License                        string         `json:"license"`
	Category                       string         `json:"category"`
	JATSXML                        string         `json:"jatsxml"`
	Abstract                       string         `json:"abstract"`
	Published                      string         `json:"published"`
	Server                         string         `json:"server"`
}

// DetailsResponse is one page of the details endpoint.
type DetailsResponse struct {
	Messages   []Message  `json:"messages"`
	Collection []Preprint `json:"collection"`
}

// Total returns the number of revisions in the requested interval, or 0
// when the response carries no paging metadata.
func (r *DetailsResponse) Total() int {
	if len(r.Messages) == 0 {
		return 0
	}
	m := r.Messages[0]
	if n := m.Total.Int(); n > 0 {
		return n
	}
	return m.CountNewPapers.Int()
}

// ToRevision converts a details record to a preprint revision. A published
// value of "NA" is carried through and treated as blank downstream.
func ToRevision(p Preprint) record.Revision {
	return record.Revision{
		Identifier:               strings.TrimSpace(p.DOI),
		Version:                  p.Version.String(),
		Title:                    p.Title,
		Authors:                  p.Authors,
		CorrespondingAuthor:      p.AuthorCorresponding,
		CorrespondingInstitution: p.AuthorCorrespondingInstitution,
		SubmissionDate:           p.Date,
		Type:                     p.Type,
		License:                  p.License,
		Category:                 p.Category,
		ExternalLink:             p.JATSXML,
		Abstract:                 p.Abstract,
		PublishedDOI:             p.Published,
	}
}
