// Package pipeline runs the linkage stages over a batch of preprint
// revisions in a fixed order:
//
//	reduce → initial status → DOI enrichment → title search →
//	author scoring → status transition → date normalization →
//	reconciliation → day metrics
//
// Records keep the first-appearance order of their identifiers.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/matsen/rxivlink/internal/linkage"
	"github.com/matsen/rxivlink/internal/logging"
	"github.com/matsen/rxivlink/internal/pubdate"
	"github.com/matsen/rxivlink/internal/record"
	"github.com/matsen/rxivlink/internal/status"
	"github.com/matsen/rxivlink/internal/storage"
	"github.com/matsen/rxivlink/internal/version"
)

// Options configures a run.
type Options struct {
	// Linker queries the publisher. Nil runs offline: no record gains a
	// match and statuses come from published DOIs alone.
	Linker *linkage.Linker

	// Checkpoint is an optional JSONL path. Records found there by
	// identifier reuse their stored match instead of querying the
	// publisher, and each newly linked record is appended to it. Records
	// whose publisher call failed are not appended, so a resumed run
	// queries them again.
	Checkpoint string

	Logger *zap.Logger
}

// Summary counts what a run did.
type Summary struct {
	Reduce              version.Stats         `json:"reduce"`
	Records             int                   `json:"records"`
	FromCheckpoint      int                   `json:"from_checkpoint"`
	Enriched            int                   `json:"enriched"`
	TitleMatched        int                   `json:"title_matched"`
	LinkFailures        int                   `json:"link_failures"` // Left unmatched after a publisher error
	WithPublicationDate int                   `json:"with_publication_date"`
	Statuses            map[status.Status]int `json:"statuses"`
}

// Run links and classifies revs. Collaborator failures never fail the run;
// an error is returned only for checkpoint I/O problems or a canceled
// context.
func Run(ctx context.Context, revs []record.Revision, opts Options) ([]record.Linked, Summary, error) {
	log := logging.OrNop(opts.Logger)

	pivoted, reduceStats := version.Reduce(revs)
	summary := Summary{
		Reduce:   reduceStats,
		Statuses: make(map[status.Status]int, len(status.All)),
	}
	for _, s := range status.All {
		summary.Statuses[s] = 0
	}
	log.Info("reduced revisions",
		zap.Int("revisions", reduceStats.Revisions),
		zap.Int("groups", reduceStats.Groups),
		zap.Int("kept", reduceStats.Kept),
		zap.Int("dropped_no_first", reduceStats.DroppedNoFirst))

	var cached map[string]record.Linked
	if opts.Checkpoint != "" {
		recs, err := storage.ReadAllLinked(opts.Checkpoint)
		if err != nil {
			return nil, summary, fmt.Errorf("loading checkpoint: %w", err)
		}
		cached = storage.IndexByIdentifier(recs)
		log.Info("loaded checkpoint",
			zap.String("path", opts.Checkpoint),
			zap.Int("records", len(cached)))
	}

	out := make([]record.Linked, 0, len(pivoted))
	for i, p := range pivoted {
		if err := ctx.Err(); err != nil {
			return out, summary, err
		}

		rec := record.Linked{
			Pivoted: p,
			Status:  status.Initial(!record.IsBlank(p.PublishedDOI)),
		}

		if prev, ok := cached[p.Identifier]; ok {
			rec.Match = prev.Match
			summary.FromCheckpoint++
		} else if opts.Linker != nil {
			enriched, matched, linkErr := link(ctx, opts.Linker, &rec)
			if err := ctx.Err(); err != nil {
				return out, summary, err
			}
			if enriched {
				summary.Enriched++
			}
			if matched {
				summary.TitleMatched++
			}
			if linkErr != nil {
				summary.LinkFailures++
			} else if opts.Checkpoint != "" {
				if err := storage.AppendLinked(opts.Checkpoint, rec); err != nil {
					return out, summary, fmt.Errorf("writing checkpoint: %w", err)
				}
			}
		}

		Finalize(&rec)

		summary.Statuses[rec.Status]++
		if rec.PublicationDate != "" {
			summary.WithPublicationDate++
		}
		out = append(out, rec)

		if (i+1)%100 == 0 {
			log.Debug("progress", zap.Int("records", i+1), zap.Int("total", len(pivoted)))
		}
	}

	summary.Records = len(out)
	log.Info("pipeline complete",
		zap.Int("records", summary.Records),
		zap.Int("from_checkpoint", summary.FromCheckpoint),
		zap.Int("enriched", summary.Enriched),
		zap.Int("title_matched", summary.TitleMatched),
		zap.Int("link_failures", summary.LinkFailures),
		zap.Int("preprint_only", summary.Statuses[status.PreprintOnly]),
		zap.Int("gray_zone", summary.Statuses[status.GrayZone]),
		zap.Int("published", summary.Statuses[status.Published]))

	return out, summary, nil
}

// link runs the collaborator stages: DOI enrichment for published records
// and title search for preprint only records. The error is the first
// publisher failure; the record is left unmatched by it.
func link(ctx context.Context, l *linkage.Linker, rec *record.Linked) (enriched, matched bool, err error) {
	enriched, err = l.Enrich(ctx, rec)
	if err != nil {
		return false, false, err
	}
	matched, err = l.FindMissing(ctx, rec)
	return enriched, matched, err
}

// Finalize runs the stages after linkage on one record: author scoring,
// the status transition, date normalization, reconciliation and the day
// metrics. It is idempotent.
func Finalize(rec *record.Linked) {
	linkage.ScoreAuthors(rec)

	rec.Status = status.Transition(rec.Status, rec.Match.Found())

	rec.Match.OnlineDate = pubdate.Normalize(rec.Match.OnlineDate)
	rec.Match.IssueDate = pubdate.Normalize(rec.Match.IssueDate)

	rec.PublicationDate, rec.PublicationType = pubdate.Reconcile(rec.Match.OnlineDate, rec.Match.IssueDate)
	rec.VersionSpanDays = pubdate.VersionSpan(rec.SubmissionDateFirst, rec.SubmissionDateLast)
	rec.SubmissionToPublicationDays = pubdate.SubmissionToPublication(rec.Status, rec.SubmissionDateLast, rec.PublicationDate)
}
