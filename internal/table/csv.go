package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/matsen/rxivlink/internal/record"
)

// ReadRevisions reads a revision table with a header row. Header names
// are matched case-insensitively and raw bioRxiv field names are accepted
// as aliases. Missing optional columns read as empty. A table without an
// identifier or version column fails with *SchemaError before any row is
// returned.
func ReadRevisions(r io.Reader) ([]record.Revision, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &SchemaError{Missing: RequiredColumns}
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	idx := columnIndex(header)
	if err := checkRequired(idx); err != nil {
		return nil, err
	}

	var revs []record.Revision
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(revs)+2, err)
		}

		get := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		revs = append(revs, record.Revision{
			Identifier:               get(ColIdentifier),
			Version:                  get(ColVersion),
			Title:                    get(ColTitle),
			Authors:                  get(ColAuthors),
			CorrespondingAuthor:      get(ColCorrespondingAuthor),
			CorrespondingInstitution: get(ColCorrespondingInstitution),
			SubmissionDate:           get(ColSubmissionDate),
			Type:                     get(ColType),
			License:                  get(ColLicense),
			Category:                 get(ColCategory),
			ExternalLink:             get(ColExternalLink),
			Abstract:                 get(ColAbstract),
			PublishedDOI:             get(ColPublishedDOI),
		})
	}

	return revs, nil
}

// RevisionWriter streams revisions as CSV in RevisionColumns order.
type RevisionWriter struct {
	w *csv.Writer
}

// NewRevisionWriter writes the header row and returns a writer for rows.
func NewRevisionWriter(w io.Writer) (*RevisionWriter, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(RevisionColumns); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	return &RevisionWriter{w: cw}, nil
}

// Write appends revisions.
func (rw *RevisionWriter) Write(revs []record.Revision) error {
	for _, r := range revs {
		row := []string{
			r.Identifier,
			r.Version,
			r.Title,
			r.Authors,
			r.CorrespondingAuthor,
			r.CorrespondingInstitution,
			r.SubmissionDate,
			r.Type,
			r.License,
			r.Category,
			r.ExternalLink,
			r.Abstract,
			r.PublishedDOI,
		}
		if err := rw.w.Write(row); err != nil {
			return fmt.Errorf("writing %s: %w", r.Identifier, err)
		}
	}
	return nil
}

// Flush flushes buffered rows and reports any write error.
func (rw *RevisionWriter) Flush() error {
	rw.w.Flush()
	return rw.w.Error()
}

// WriteRevisions writes a complete revision table.
func WriteRevisions(w io.Writer, revs []record.Revision) error {
	rw, err := NewRevisionWriter(w)
	if err != nil {
		return err
	}
	if err := rw.Write(revs); err != nil {
		return err
	}
	return rw.Flush()
}

// LinkedColumns is the column order of the linked output table.
var LinkedColumns = []string{
	"identifier",
	"title_first",
	"title_last",
	"authors_first",
	"authors_last",
	"corresponding_author_first",
	"corresponding_author_last",
	"submission_date_first",
	"submission_date_last",
	"abstract_first",
	"abstract_last",
	"version_last",
	"corresponding_author_institution",
	"type",
	"license",
	"category",
	"external_link",
	"published_doi",
	"status",
	"matched_title",
	"matched_journal",
	"matched_authors",
	"matched_online_date",
	"matched_issue_date",
	"matched_doi",
	"title_match_score",
	"author_match_score",
	"author_count_diff",
	"canonical_publication_date",
	"publication_type",
	"version_span_days",
	"submission_to_publication_days",
}

// WriteLinked writes the linked output table. Absent scores and day counts
// are written as empty cells.
func WriteLinked(w io.Writer, recs []record.Linked) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(LinkedColumns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, r := range recs {
		row := []string{
			r.Identifier,
			r.TitleFirst,
			r.TitleLast,
			r.AuthorsFirst,
			r.AuthorsLast,
			r.CorrespondingFirst,
			r.CorrespondingLast,
			r.SubmissionDateFirst,
			r.SubmissionDateLast,
			r.AbstractFirst,
			r.AbstractLast,
			strconv.Itoa(r.VersionLast),
			r.CorrespondingInstitution,
			r.Type,
			r.License,
			r.Category,
			r.ExternalLink,
			r.PublishedDOI,
			string(r.Status.Normalize()),
			r.Match.Title,
			r.Journal,
			r.Match.Authors,
			r.OnlineDate,
			r.IssueDate,
			r.DOI,
			formatFloat(r.TitleScore),
			strconv.FormatFloat(r.AuthorMatchScore, 'f', -1, 64),
			strconv.Itoa(r.AuthorCountDiff),
			r.PublicationDate,
			r.PublicationType,
			formatInt(r.VersionSpanDays),
			formatInt(r.SubmissionToPublicationDays),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing %s: %w", r.Identifier, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func formatInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
