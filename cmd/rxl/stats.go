package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/rxivlink/internal/status"
	"github.com/matsen/rxivlink/internal/storage"
)

var statsDB string

func init() {
	statsCmd.Flags().StringVar(&statsDB, "db", "", "SQLite database built by 'rxl export' (required)")
	statsCmd.MarkFlagRequired("db")
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize linkage outcomes",
	Long: `Report status counts and publication metrics for a linked database.

Example:
  rxl stats --db linked.db --human`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

// StatsResponse is the response for the stats command.
type StatsResponse struct {
	Statuses map[status.Status]int `json:"statuses"`
	storage.LinkageStats
}

func runStats(cmd *cobra.Command, args []string) error {
	db := mustOpenDatabase(statsDB)
	defer db.Close()

	counts, err := db.CountByStatus()
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	stats, err := db.Stats()
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		fmt.Printf("Records:           %d\n", stats.Total)
		fmt.Printf("With pub date:     %d\n", stats.WithPublicationDate)
		fmt.Printf("Mean days to pub:  %s\n", formatOptFloat(stats.MeanSubmissionToPublication))
		fmt.Printf("Mean title score:  %s\n", formatOptFloat(stats.MeanTitleScore))
		fmt.Println("Statuses:")
		printStatusCounts(counts)
		return nil
	}
	return outputJSON(StatsResponse{Statuses: counts, LinkageStats: stats})
}
