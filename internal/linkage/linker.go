// Package linkage attaches publisher metadata to pivoted preprint records,
// either by direct DOI lookup or by fuzzy title search.
package linkage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/matsen/rxivlink/internal/author"
	"github.com/matsen/rxivlink/internal/crossref"
	"github.com/matsen/rxivlink/internal/logging"
	"github.com/matsen/rxivlink/internal/record"
	"github.com/matsen/rxivlink/internal/status"
	"github.com/matsen/rxivlink/internal/title"
)

// Searcher runs a publisher title search.
type Searcher interface {
	SearchByTitle(ctx context.Context, title string, rows int) ([]crossref.Work, error)
}

// Lookuper fetches a publisher record by DOI.
type Lookuper interface {
	GetWork(ctx context.Context, doi string) (*crossref.Work, error)
}

// Linker runs the linkage steps. A nil Search or Lookup disables the
// corresponding step.
type Linker struct {
	Search Searcher
	Lookup Lookuper
	Rows   int // search result rows, crossref.DefaultRows when zero
	Logger *zap.Logger
}

func (l *Linker) logger() *zap.Logger {
	return logging.OrNop(l.Logger)
}

// Enrich fills the match columns of a published record from its published
// DOI. It reports whether metadata was attached. A DOI the publisher does
// not know leaves the record unmatched without error; any other lookup
// failure is logged and returned so the caller can retry the record later.
func (l *Linker) Enrich(ctx context.Context, rec *record.Linked) (bool, error) {
	if l.Lookup == nil || rec.Status.Normalize() != status.Published || record.IsBlank(rec.PublishedDOI) {
		return false, nil
	}

	doi := record.Clean(rec.PublishedDOI)
	work, err := l.Lookup.GetWork(ctx, doi)
	if err != nil {
		if crossref.IsNotFound(err) {
			l.logger().Debug("published DOI not registered",
				zap.String("identifier", rec.Identifier),
				zap.String("doi", doi))
			return false, nil
		}
		l.logger().Warn("DOI lookup failed",
			zap.String("identifier", rec.Identifier),
			zap.String("doi", doi),
			zap.Error(err))
		return false, fmt.Errorf("looking up %s: %w", doi, err)
	}
	if work == nil {
		return false, nil
	}

	rec.Match = crossref.ToMatch(*work)
	return true, nil
}

// FindMissing searches by title for a publisher record of a preprint only
// record. The last title is the query, falling back to the first. It
// reports whether a match was attached. Candidates below the threshold
// leave the record unmatched without error; a failed search leaves it
// unmatched and returns the error.
func (l *Linker) FindMissing(ctx context.Context, rec *record.Linked) (bool, error) {
	if l.Search == nil || rec.Status.Normalize() != status.PreprintOnly {
		return false, nil
	}

	query := rec.QueryTitle()
	if query == "" {
		return false, nil
	}

	rows := l.Rows
	if rows <= 0 {
		rows = crossref.DefaultRows
	}

	works, err := l.Search.SearchByTitle(ctx, query, rows)
	if err != nil {
		l.logger().Warn("title search failed",
			zap.String("identifier", rec.Identifier),
			zap.Error(err))
		return false, fmt.Errorf("searching title of %s: %w", rec.Identifier, err)
	}

	candidates := make([]title.Candidate, len(works))
	for i, w := range works {
		candidates[i] = crossref.ToCandidate(w)
	}

	best, ok := title.Best(query, candidates)
	if !ok {
		l.logger().Debug("no title match",
			zap.String("identifier", rec.Identifier),
			zap.Int("candidates", len(works)))
		return false, nil
	}

	m := crossref.ToMatch(works[best.Index])
	score := title.Round2(best.Score)
	m.TitleScore = &score
	rec.Match = m

	l.logger().Debug("title match",
		zap.String("identifier", rec.Identifier),
		zap.String("doi", m.DOI),
		zap.Float64("score", score))
	return true, nil
}

// ScoreAuthors compares the matched publisher authors against the
// preprint's last-version authors. Records without a match score zero.
func ScoreAuthors(rec *record.Linked) {
	if !rec.Match.Found() {
		rec.AuthorMatchScore = 0
		rec.AuthorCountDiff = 0
		return
	}
	s := author.Overlap(rec.Match.Authors, rec.AuthorsLast)
	rec.AuthorMatchScore = s.Score
	rec.AuthorCountDiff = s.CountDiff
}
