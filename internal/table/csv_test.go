package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/matsen/rxivlink/internal/record"
	"github.com/matsen/rxivlink/internal/status"
)

func TestReadRevisions(t *testing.T) {
	input := "identifier,version,title,authors,submission_date,published_doi\n" +
		"10.1101/001,1,Foo,\"Smith, J; Doe, A\",2020-01-01,NA\n" +
		"10.1101/001,3,Foo v3,\"Smith, J; Doe, A\",2020-02-01,\n"

	revs, err := ReadRevisions(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadRevisions() error = %v", err)
	}
	if len(revs) != 2 {
		t.Fatalf("got %d revisions, want 2", len(revs))
	}
	want := record.Revision{
		Identifier:     "10.1101/001",
		Version:        "1",
		Title:          "Foo",
		Authors:        "Smith, J; Doe, A",
		SubmissionDate: "2020-01-01",
		PublishedDOI:   "NA",
	}
	if !reflect.DeepEqual(revs[0], want) {
		t.Errorf("revs[0] = %+v, want %+v", revs[0], want)
	}
	if revs[1].Version != "3" || revs[1].Title != "Foo v3" {
		t.Errorf("revs[1] = %+v", revs[1])
	}
}

func TestReadRevisions_BioRxivAliases(t *testing.T) {
	input := "\ufeffdoi,title,authors,author_corresponding,author_corresponding_institution,date,version,type,license,category,jatsxml,abstract,published,server\n" +
		"10.1101/002,Bar,\"Lee, K\",Kim Lee,Uni,2019-07-04,2,new results,cc_by,genomics,https://x/y.xml,An abstract,10.1234/bar,biorxiv\n"

	revs, err := ReadRevisions(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadRevisions() error = %v", err)
	}
	r := revs[0]
	if r.Identifier != "10.1101/002" || r.Version != "2" {
		t.Errorf("identifier/version = %q/%q", r.Identifier, r.Version)
	}
	if r.SubmissionDate != "2019-07-04" || r.CorrespondingAuthor != "Kim Lee" || r.CorrespondingInstitution != "Uni" {
		t.Errorf("aliased fields = %+v", r)
	}
	if r.ExternalLink != "https://x/y.xml" || r.PublishedDOI != "10.1234/bar" {
		t.Errorf("link/doi = %q/%q", r.ExternalLink, r.PublishedDOI)
	}
}

func TestReadRevisions_CanonicalBeatsAlias(t *testing.T) {
	input := "doi,identifier,version\nalias,canonical,1\n"
	revs, err := ReadRevisions(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadRevisions() error = %v", err)
	}
	if revs[0].Identifier != "canonical" {
		t.Errorf("Identifier = %q, want canonical", revs[0].Identifier)
	}
}

func TestReadRevisions_SchemaError(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantMissing []string
	}{
		{"no version", "identifier,title\nx,Foo\n", []string{"version"}},
		{"no identifier", "version,title\n1,Foo\n", []string{"identifier"}},
		{"neither", "title\nFoo\n", []string{"identifier", "version"}},
		{"empty input", "", []string{"identifier", "version"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			revs, err := ReadRevisions(strings.NewReader(tt.input))
			if revs != nil {
				t.Errorf("got %d revisions on schema error", len(revs))
			}
			var schemaErr *SchemaError
			if !errors.As(err, &schemaErr) {
				t.Fatalf("error = %v, want *SchemaError", err)
			}
			if !reflect.DeepEqual(schemaErr.Missing, tt.wantMissing) {
				t.Errorf("Missing = %v, want %v", schemaErr.Missing, tt.wantMissing)
			}
		})
	}
}

func TestReadRevisions_RaggedRows(t *testing.T) {
	input := "identifier,version,title\nx,1\ny,2,Bar,extra\n"
	revs, err := ReadRevisions(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadRevisions() error = %v", err)
	}
	if len(revs) != 2 || revs[0].Title != "" || revs[1].Title != "Bar" {
		t.Errorf("revs = %+v", revs)
	}
}

func TestWriteRevisions_RoundTrip(t *testing.T) {
	in := []record.Revision{
		{Identifier: "a", Version: "1", Title: "Has, comma", Authors: "Smith, J", PublishedDOI: "NA"},
		{Identifier: "a", Version: "2", Title: "Quote \"here\"", Abstract: "line\nbreak"},
	}
	var buf bytes.Buffer
	if err := WriteRevisions(&buf, in); err != nil {
		t.Fatalf("WriteRevisions() error = %v", err)
	}
	out, err := ReadRevisions(&buf)
	if err != nil {
		t.Fatalf("ReadRevisions() error = %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestWriteLinked(t *testing.T) {
	score := 1.0
	span, toPub := 31, 43
	recs := []record.Linked{
		{
			Pivoted: record.Pivoted{Identifier: "a", TitleLast: "Foo v3", VersionLast: 3},
			Status:  status.GrayZone,
			Match:   record.Match{Title: "Foo v3", DOI: "10.1/foo", OnlineDate: "2020-3-15", TitleScore: &score},

			AuthorMatchScore:            0.5,
			AuthorCountDiff:             1,
			PublicationDate:             "03/15/2020",
			PublicationType:             "online published",
			VersionSpanDays:             &span,
			SubmissionToPublicationDays: &toPub,
		},
		{Pivoted: record.Pivoted{Identifier: "b", VersionLast: 1}},
	}

	var buf bytes.Buffer
	if err := WriteLinked(&buf, recs); err != nil {
		t.Fatalf("WriteLinked() error = %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if !reflect.DeepEqual(rows[0], LinkedColumns) {
		t.Errorf("header = %v", rows[0])
	}

	col := func(row []string, name string) string {
		for i, c := range LinkedColumns {
			if c == name {
				return row[i]
			}
		}
		t.Fatalf("no column %q", name)
		return ""
	}

	first := rows[1]
	checks := map[string]string{
		"status":                         "gray zone",
		"matched_doi":                    "10.1/foo",
		"title_match_score":              "1",
		"author_match_score":             "0.5",
		"canonical_publication_date":     "03/15/2020",
		"version_span_days":              "31",
		"submission_to_publication_days": "43",
		"version_last":                   "3",
	}
	for name, want := range checks {
		if got := col(first, name); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}

	second := rows[2]
	if got := col(second, "status"); got != "preprint only" {
		t.Errorf("empty status written as %q", got)
	}
	for _, name := range []string{"title_match_score", "version_span_days", "submission_to_publication_days"} {
		if got := col(second, name); got != "" {
			t.Errorf("%s = %q, want empty", name, got)
		}
	}
}
