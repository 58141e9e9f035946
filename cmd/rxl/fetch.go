package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/rxivlink/internal/biorxiv"
	"github.com/matsen/rxivlink/internal/record"
	"github.com/matsen/rxivlink/internal/table"
)

var (
	fetchServer string
	fetchFrom   string
	fetchTo     string
	fetchOutput string
)

func init() {
	fetchCmd.Flags().StringVar(&fetchServer, "server", "biorxiv", "Preprint server ("+strings.Join(biorxiv.Servers, ", ")+")")
	fetchCmd.Flags().StringVar(&fetchFrom, "from", "", "First posting date, YYYY-MM-DD (required)")
	fetchCmd.Flags().StringVar(&fetchTo, "to", "", "Last posting date, YYYY-MM-DD (required)")
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "", "Revision CSV to write (required)")
	fetchCmd.MarkFlagRequired("from")
	fetchCmd.MarkFlagRequired("to")
	fetchCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download preprint revisions from the bioRxiv API",
	Long: `Download every revision posted in a date range and write them as a
revision CSV ready for 'rxl run'.

Pages that fail after the first are logged and skipped; the summary lists
their cursors so the range can be fetched again.

Examples:
  rxl fetch --from 2020-01-01 --to 2020-01-31 -o revisions.csv
  rxl fetch --server medrxiv --from 2021-06-01 --to 2021-06-30 -o med.csv`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

// FetchResponse is the response for the fetch command.
type FetchResponse struct {
	Output string `json:"output"`
	biorxiv.FetchStats
}

func runFetch(cmd *cobra.Command, args []string) error {
	if err := biorxiv.ValidateRange(fetchServer, fetchFrom, fetchTo); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	cfg := mustLoadConfig()
	log := mustNewLogger()
	defer log.Sync()

	client := biorxiv.NewClient(
		biorxiv.WithBaseURL(cfg.BiorxivBaseURL),
		biorxiv.WithHTTPClient(&http.Client{Timeout: cfg.Timeout()}),
		biorxiv.WithRateLimit(cfg.RequestsPerSecond),
		biorxiv.WithLogger(log),
	)

	f, err := os.Create(fetchOutput)
	if err != nil {
		exitWithError(ExitDataError, "creating output: %v", err)
	}
	defer f.Close()

	w, err := table.NewRevisionWriter(f)
	if err != nil {
		exitWithError(ExitDataError, "writing header: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stats, err := client.FetchAll(ctx, fetchServer, fetchFrom, fetchTo, func(revs []record.Revision) error {
		log.Debug("fetched page", zap.Int("revisions", len(revs)))
		return w.Write(revs)
	})
	if flushErr := w.Flush(); flushErr != nil && err == nil {
		exitWithError(ExitDataError, "writing %s: %v", fetchOutput, flushErr)
	}
	if err != nil {
		if errors.Is(err, biorxiv.ErrAPIError) || errors.Is(err, biorxiv.ErrNetworkError) || errors.Is(err, biorxiv.ErrInvalidResponse) {
			exitWithError(ExitAPIError, "fetching revisions: %v", err)
		}
		exitWithError(ExitError, "fetching revisions: %v", err)
	}

	log.Info("fetch complete",
		zap.String("server", fetchServer),
		zap.Int("revisions", stats.Revisions),
		zap.Int("failed_pages", stats.FailedPages))

	if humanOutput {
		fmt.Printf("Wrote %d revisions to %s (%d pages", stats.Revisions, fetchOutput, stats.Pages)
		if stats.FailedPages > 0 {
			fmt.Printf(", %d skipped at cursors %v", stats.FailedPages, stats.FailedCursors)
		}
		fmt.Println(")")
		return nil
	}
	return outputJSON(FetchResponse{Output: fetchOutput, FetchStats: stats})
}
