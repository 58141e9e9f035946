package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/rxivlink/internal/crossref"
	"github.com/matsen/rxivlink/internal/linkage"
	"github.com/matsen/rxivlink/internal/pipeline"
	"github.com/matsen/rxivlink/internal/record"
	"github.com/matsen/rxivlink/internal/storage"
	"github.com/matsen/rxivlink/internal/table"
)

var (
	runInput      string
	runOutput     string
	runJSONL      string
	runCheckpoint string
	runOffline    bool
)

func init() {
	runCmd.Flags().StringVarP(&runInput, "input", "i", "", "Revision CSV to read (required)")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "Linked CSV to write (required)")
	runCmd.Flags().StringVar(&runJSONL, "jsonl", "", "Also write linked records as JSONL")
	runCmd.Flags().StringVar(&runCheckpoint, "checkpoint", "", "JSONL checkpoint to resume from and append to")
	runCmd.Flags().BoolVar(&runOffline, "offline", false, "Skip Crossref lookups and title search")
	runCmd.MarkFlagRequired("input")
	runCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Link preprint revisions to publisher records",
	Long: `Run the linkage pipeline over a revision CSV.

Stages:
  1. Keep the first and latest version of each preprint
  2. Look up the published DOI on Crossref
  3. Search Crossref by title for preprints without a DOI
  4. Score author overlap and classify (preprint only, gray zone, published)
  5. Reconcile publication dates and compute day metrics

Crossref failures are logged and the affected record is left unmatched.
With --checkpoint, records already linked in an earlier run are not queried
again, so an interrupted run can be restarted with the same flags.

Examples:
  rxl run -i revisions.csv -o linked.csv
  rxl run -i revisions.csv -o linked.csv --jsonl linked.jsonl --checkpoint ck.jsonl
  rxl run -i revisions.csv -o linked.csv --offline`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

// RunResponse is the response for the run command.
type RunResponse struct {
	Output string `json:"output"`
	JSONL  string `json:"jsonl,omitempty"`
	pipeline.Summary
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	log := mustNewLogger()
	defer log.Sync()

	revs := mustReadRevisions(runInput)

	opts := pipeline.Options{
		Checkpoint: runCheckpoint,
		Logger:     log,
	}
	if !runOffline {
		client := crossref.NewClient(
			crossref.WithMailto(cfg.CrossrefMailto),
			crossref.WithBaseURL(cfg.CrossrefBaseURL),
			crossref.WithHTTPClient(&http.Client{Timeout: cfg.Timeout()}),
			crossref.WithRateLimit(cfg.RequestsPerSecond),
		)
		if cfg.CrossrefMailto == "" {
			log.Warn("crossref_mailto is not set; requests will not use the polite pool")
		}
		opts.Linker = &linkage.Linker{
			Search: client,
			Lookup: client,
			Rows:   cfg.SearchRows,
			Logger: log,
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	recs, summary, err := pipeline.Run(ctx, revs, opts)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			exitWithError(ExitError, "interrupted: %v", err)
		}
		exitWithError(ExitDataError, "running pipeline: %v", err)
	}

	if err := writeLinkedCSV(runOutput, recs); err != nil {
		exitWithError(ExitDataError, "writing %s: %v", runOutput, err)
	}
	if runJSONL != "" {
		if err := storage.WriteAllLinked(runJSONL, recs); err != nil {
			exitWithError(ExitDataError, "writing %s: %v", runJSONL, err)
		}
	}
	log.Info("wrote linked records",
		zap.String("output", runOutput),
		zap.Int("records", len(recs)))

	if humanOutput {
		printSummaryHuman(summary)
		return nil
	}
	return outputJSON(RunResponse{Output: runOutput, JSONL: runJSONL, Summary: summary})
}

// mustReadRevisions reads a revision CSV, exits on error.
// Missing required columns exit with ExitSchemaError.
func mustReadRevisions(path string) []record.Revision {
	f, err := os.Open(path)
	if err != nil {
		exitWithError(ExitDataError, "opening input: %v", err)
	}
	defer f.Close()

	revs, err := table.ReadRevisions(f)
	if err != nil {
		var schemaErr *table.SchemaError
		if errors.As(err, &schemaErr) {
			exitWithError(ExitSchemaError, "%s: %v", path, err)
		}
		exitWithError(ExitDataError, "reading %s: %v", path, err)
	}
	return revs
}

func writeLinkedCSV(path string, recs []record.Linked) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := table.WriteLinked(f, recs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printSummaryHuman(s pipeline.Summary) {
	fmt.Printf("Revisions:       %d\n", s.Reduce.Revisions)
	fmt.Printf("Preprints:       %d (%d dropped without a first version)\n", s.Records, s.Reduce.DroppedNoFirst)
	fmt.Printf("From checkpoint: %d\n", s.FromCheckpoint)
	fmt.Printf("DOI enriched:    %d\n", s.Enriched)
	fmt.Printf("Title matched:   %d\n", s.TitleMatched)
	fmt.Printf("Link failures:   %d (retried on resume)\n", s.LinkFailures)
	fmt.Printf("With pub date:   %d\n", s.WithPublicationDate)
	fmt.Println("Statuses:")
	printStatusCounts(s.Statuses)
}
