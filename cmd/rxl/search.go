package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/rxivlink/internal/record"
	"github.com/matsen/rxivlink/internal/status"
)

var (
	searchDB     string
	searchField  string
	searchStatus string
	searchID     string
	searchLimit  int
)

func init() {
	searchCmd.Flags().StringVar(&searchDB, "db", "", "SQLite database built by 'rxl export' (required)")
	searchCmd.Flags().StringVar(&searchField, "field", "", "Restrict the query to one field (title, author)")
	searchCmd.Flags().StringVar(&searchStatus, "status", "", "List records with a status instead of searching")
	searchCmd.Flags().StringVar(&searchID, "id", "", "Look up one record by identifier")
	searchCmd.Flags().IntVar(&searchLimit, "limit", DefaultSearchLimit, "Maximum results to return")
	searchCmd.MarkFlagRequired("db")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search linked records",
	Long: `Search linked records in a database built by 'rxl export'.

A plain query matches preprint titles, matched titles and authors.

Examples:
  rxl search --db linked.db "spike protein"
  rxl search --db linked.db --field author "Bloom"
  rxl search --db linked.db --status "gray zone"
  rxl search --db linked.db --id 10.1101/2020.01.01.000001`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	db := mustOpenDatabase(searchDB)
	defer db.Close()

	var recs []record.Linked
	var err error

	switch {
	case searchID != "":
		var rec *record.Linked
		rec, err = db.GetByIdentifier(searchID)
		if err == nil && rec == nil {
			exitWithError(ExitDataError, "record not found: %s", searchID)
		}
		if rec != nil {
			recs = []record.Linked{*rec}
		}
	case searchStatus != "":
		s, parseErr := status.Parse(searchStatus)
		if parseErr != nil {
			exitWithError(ExitError, "%v", parseErr)
		}
		recs, err = db.ListByStatus(s, searchLimit)
	case len(args) == 0:
		exitWithError(ExitError, "must specify a query, --status or --id")
	case searchField != "":
		recs, err = db.SearchField(searchField, args[0], searchLimit)
	default:
		recs, err = db.Search(args[0], searchLimit)
	}
	if err != nil {
		exitWithError(ExitError, "searching: %v", err)
	}

	results := toSearchResults(recs)
	if humanOutput {
		if len(results) == 0 {
			fmt.Println("No records found")
			return nil
		}
		fmt.Printf("Found %d records:\n\n", len(results))
		printSearchResultsHuman(results)
		return nil
	}
	return outputJSON(results)
}
