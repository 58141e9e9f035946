package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/matsen/rxivlink/internal/crossref"
	"github.com/matsen/rxivlink/internal/linkage"
	"github.com/matsen/rxivlink/internal/record"
	"github.com/matsen/rxivlink/internal/status"
	"github.com/matsen/rxivlink/internal/storage"
)

type fakeSearcher struct {
	byTitle map[string][]crossref.Work
	err     error
	calls   int
}

func (f *fakeSearcher) SearchByTitle(ctx context.Context, title string, rows int) ([]crossref.Work, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.byTitle[title], nil
}

type fakeLookuper struct {
	works map[string]*crossref.Work
	calls int
}

func (f *fakeLookuper) GetWork(ctx context.Context, doi string) (*crossref.Work, error) {
	f.calls++
	if w, ok := f.works[doi]; ok {
		return w, nil
	}
	return nil, crossref.ErrNotFound
}

// cancelingSearcher simulates an interrupt arriving during a search.
type cancelingSearcher struct {
	cancel context.CancelFunc
	calls  int
}

func (f *cancelingSearcher) SearchByTitle(ctx context.Context, title string, rows int) ([]crossref.Work, error) {
	f.calls++
	f.cancel()
	return nil, ctx.Err()
}

func intp(n int) *int { return &n }

func fooRevisions() []record.Revision {
	return []record.Revision{
		{Identifier: "10.1101/foo", Version: "1", Title: "Foo", Authors: "Smith, J; Doe, A", SubmissionDate: "2020-01-01"},
		{Identifier: "10.1101/foo", Version: "3", Title: "Foo v3", Authors: "Smith, J; Doe, A", SubmissionDate: "2020-02-01"},
	}
}

func fooSearcher() *fakeSearcher {
	return &fakeSearcher{byTitle: map[string][]crossref.Work{
		"Foo v3": {{
			DOI:             "10.1234/foo.v3",
			Type:            "journal-article",
			Title:           []string{"Foo v3"},
			ContainerTitle:  []string{"Journal of Foo"},
			Author:          []crossref.Author{{Given: "John", Family: "Smith"}, {Given: "Anna", Family: "Doe"}},
			PublishedOnline: &crossref.DateParts{DateParts: [][]*int{{intp(2020), intp(3), intp(15)}}},
		}},
	}}
}

func TestRun_EndToEndScenario(t *testing.T) {
	l := &linkage.Linker{Search: fooSearcher()}

	recs, summary, err := Run(context.Background(), fooRevisions(), Options{Linker: l})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}

	rec := recs[0]
	if rec.Status != status.GrayZone {
		t.Errorf("Status = %q, want gray zone", rec.Status)
	}
	if rec.PublicationDate != "03/15/2020" {
		t.Errorf("PublicationDate = %q, want 03/15/2020", rec.PublicationDate)
	}
	if rec.PublicationType != "online published" {
		t.Errorf("PublicationType = %q, want online published", rec.PublicationType)
	}
	if rec.VersionSpanDays == nil || *rec.VersionSpanDays != 31 {
		t.Errorf("VersionSpanDays = %v, want 31", rec.VersionSpanDays)
	}
	if rec.SubmissionToPublicationDays == nil || *rec.SubmissionToPublicationDays != 43 {
		t.Errorf("SubmissionToPublicationDays = %v, want 43", rec.SubmissionToPublicationDays)
	}
	if rec.Match.DOI != "10.1234/foo.v3" || rec.Match.TitleScore == nil || *rec.Match.TitleScore != 1.0 {
		t.Errorf("Match = %+v", rec.Match)
	}
	if rec.AuthorMatchScore != 1.0 || rec.AuthorCountDiff != 0 {
		t.Errorf("author score = %v, diff = %d", rec.AuthorMatchScore, rec.AuthorCountDiff)
	}
	if rec.TitleFirst != "Foo" || rec.TitleLast != "Foo v3" || rec.VersionLast != 3 {
		t.Errorf("pivot = %+v", rec.Pivoted)
	}

	if summary.TitleMatched != 1 || summary.Statuses[status.GrayZone] != 1 || summary.Records != 1 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestRun_PublishedNeverGrayZone(t *testing.T) {
	revs := []record.Revision{
		{Identifier: "p", Version: "1", Title: "Foo v3", SubmissionDate: "2020-01-01", PublishedDOI: "10.1234/pub"},
	}
	search := fooSearcher()
	lookup := &fakeLookuper{works: map[string]*crossref.Work{
		"10.1234/pub": {
			DOI:            "10.1234/pub",
			Type:           "journal-article",
			Title:          []string{"Foo v3"},
			PublishedPrint: &crossref.DateParts{DateParts: [][]*int{{intp(2020), intp(6)}}},
		},
	}}
	l := &linkage.Linker{Search: search, Lookup: lookup}

	recs, summary, err := Run(context.Background(), revs, Options{Linker: l})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	rec := recs[0]
	if rec.Status != status.Published {
		t.Errorf("Status = %q, want published", rec.Status)
	}
	if search.calls != 0 {
		t.Errorf("title search ran %d times for a published record", search.calls)
	}
	if lookup.calls != 1 || summary.Enriched != 1 {
		t.Errorf("lookup calls = %d, enriched = %d", lookup.calls, summary.Enriched)
	}
	if rec.PublicationDate != "06/01/2020" || rec.PublicationType != "issue" {
		t.Errorf("publication = %q (%q), want 06/01/2020 (issue)", rec.PublicationDate, rec.PublicationType)
	}
	if rec.SubmissionToPublicationDays == nil || *rec.SubmissionToPublicationDays != 152 {
		t.Errorf("SubmissionToPublicationDays = %v, want 152", rec.SubmissionToPublicationDays)
	}
}

func TestRun_PreprintOnlyHasNoPublicationMetric(t *testing.T) {
	search := &fakeSearcher{err: errors.New("search unavailable")}
	l := &linkage.Linker{Search: search}

	recs, _, err := Run(context.Background(), fooRevisions(), Options{Linker: l})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	rec := recs[0]
	if rec.Status != status.PreprintOnly {
		t.Errorf("Status = %q, want preprint only", rec.Status)
	}
	if rec.SubmissionToPublicationDays != nil {
		t.Errorf("SubmissionToPublicationDays = %d, want nil", *rec.SubmissionToPublicationDays)
	}
	if rec.VersionSpanDays == nil || *rec.VersionSpanDays != 31 {
		t.Errorf("VersionSpanDays = %v, want 31", rec.VersionSpanDays)
	}
	if rec.PublicationDate != "" || rec.PublicationType != "" {
		t.Errorf("publication = %q/%q, want empty", rec.PublicationDate, rec.PublicationType)
	}
}

func TestRun_Offline(t *testing.T) {
	revs := append(fooRevisions(),
		record.Revision{Identifier: "p", Version: "1", Title: "Bar", PublishedDOI: "10.1/bar"},
		record.Revision{Identifier: "orphan", Version: "2", Title: "No first version"},
	)

	recs, summary, err := Run(context.Background(), revs, Options{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].Identifier != "10.1101/foo" || recs[1].Identifier != "p" {
		t.Errorf("order = %q, %q", recs[0].Identifier, recs[1].Identifier)
	}
	if recs[0].Status != status.PreprintOnly || recs[1].Status != status.Published {
		t.Errorf("statuses = %q, %q", recs[0].Status, recs[1].Status)
	}
	if summary.Reduce.DroppedNoFirst != 1 {
		t.Errorf("DroppedNoFirst = %d, want 1", summary.Reduce.DroppedNoFirst)
	}
}

func TestFinalize_Idempotent(t *testing.T) {
	recs, _, err := Run(context.Background(), fooRevisions(), Options{Linker: &linkage.Linker{Search: fooSearcher()}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	once := recs[0]
	twice := once
	Finalize(&twice)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Finalize changed a finalized record:\n once  %+v\n twice %+v", once, twice)
	}
}

func TestRun_Checkpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.jsonl")

	search := fooSearcher()
	first, _, err := Run(context.Background(), fooRevisions(), Options{
		Linker:     &linkage.Linker{Search: search},
		Checkpoint: path,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if search.calls != 1 {
		t.Fatalf("first run searched %d times, want 1", search.calls)
	}

	stored, err := storage.ReadAllLinked(path)
	if err != nil || len(stored) != 1 {
		t.Fatalf("checkpoint = %d records, %v", len(stored), err)
	}

	// Resume with a searcher that would fail; the checkpoint answers.
	failing := &fakeSearcher{err: errors.New("offline")}
	second, summary, err := Run(context.Background(), fooRevisions(), Options{
		Linker:     &linkage.Linker{Search: failing},
		Checkpoint: path,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if failing.calls != 0 {
		t.Errorf("resumed run searched %d times, want 0", failing.calls)
	}
	if summary.FromCheckpoint != 1 {
		t.Errorf("FromCheckpoint = %d, want 1", summary.FromCheckpoint)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("resumed output differs:\n first  %+v\n second %+v", first[0], second[0])
	}
}

func TestRun_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Run(ctx, fooRevisions(), Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestRun_FailedSearchNotCheckpointed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.jsonl")

	failing := &fakeSearcher{err: errors.New("503 service unavailable")}
	recs, summary, err := Run(context.Background(), fooRevisions(), Options{
		Linker:     &linkage.Linker{Search: failing},
		Checkpoint: path,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if recs[0].Status != status.PreprintOnly {
		t.Errorf("Status = %q, want preprint only", recs[0].Status)
	}
	if summary.LinkFailures != 1 {
		t.Errorf("LinkFailures = %d, want 1", summary.LinkFailures)
	}

	stored, err := storage.ReadAllLinked(path)
	if err != nil {
		t.Fatalf("ReadAllLinked() error = %v", err)
	}
	if len(stored) != 0 {
		t.Fatalf("checkpoint holds %d records after a failed search, want 0", len(stored))
	}

	search := fooSearcher()
	recs, summary, err = Run(context.Background(), fooRevisions(), Options{
		Linker:     &linkage.Linker{Search: search},
		Checkpoint: path,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if search.calls != 1 || summary.FromCheckpoint != 0 {
		t.Errorf("resumed run: calls = %d, from checkpoint = %d; want 1, 0", search.calls, summary.FromCheckpoint)
	}
	if recs[0].Status != status.GrayZone {
		t.Errorf("Status = %q, want gray zone", recs[0].Status)
	}
}

func TestRun_InterruptedDuringLastRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.jsonl")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	search := &cancelingSearcher{cancel: cancel}
	_, _, err := Run(ctx, fooRevisions(), Options{
		Linker:     &linkage.Linker{Search: search},
		Checkpoint: path,
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}

	stored, err := storage.ReadAllLinked(path)
	if err != nil {
		t.Fatalf("ReadAllLinked() error = %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("checkpoint holds %d records after interrupt, want 0", len(stored))
	}

	resumed := fooSearcher()
	recs, _, err := Run(context.Background(), fooRevisions(), Options{
		Linker:     &linkage.Linker{Search: resumed},
		Checkpoint: path,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if resumed.calls != 1 || recs[0].Status != status.GrayZone {
		t.Errorf("resumed: calls = %d, status = %q; want 1, gray zone", resumed.calls, recs[0].Status)
	}
}
