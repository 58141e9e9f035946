package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/matsen/rxivlink/internal/record"
	"github.com/matsen/rxivlink/internal/status"
)

// Constants for output formatting.
const (
	DefaultSearchLimit = 50 // Default limit for search/list commands
	SearchTitleMaxLen  = 70 // Title truncation in search results
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SearchResult is one record in search output.
type SearchResult struct {
	Identifier string        `json:"identifier"`
	Title      string        `json:"title"`
	Status     status.Status `json:"status"`
	MatchedDOI string        `json:"matched_doi,omitempty"`
	Journal    string        `json:"matched_journal,omitempty"`
	TitleScore *float64      `json:"title_match_score,omitempty"`
}

func toSearchResults(recs []record.Linked) []SearchResult {
	results := make([]SearchResult, 0, len(recs))
	for _, r := range recs {
		results = append(results, SearchResult{
			Identifier: r.Identifier,
			Title:      r.QueryTitle(),
			Status:     r.Status,
			MatchedDOI: r.Match.DOI,
			Journal:    r.Journal,
			TitleScore: r.TitleScore,
		})
	}
	return results
}

func printSearchResultsHuman(results []SearchResult) {
	for i, r := range results {
		fmt.Printf("%d. %s [%s]\n", i+1, r.Identifier, r.Status)
		fmt.Printf("   %s\n", truncateString(r.Title, SearchTitleMaxLen))
		if r.MatchedDOI != "" {
			line := "   -> " + r.MatchedDOI
			if r.Journal != "" {
				line += " (" + r.Journal + ")"
			}
			if r.TitleScore != nil {
				line += fmt.Sprintf(" score %.2f", *r.TitleScore)
			}
			fmt.Println(line)
		}
		fmt.Println()
	}
}

// printStatusCounts prints counts in pipeline status order, followed by
// any status the pipeline does not know about.
func printStatusCounts(counts map[status.Status]int) {
	for _, s := range status.All {
		fmt.Printf("  %-14s %d\n", s+":", counts[s])
	}
	var extra []string
	for s := range counts {
		if !s.Valid() {
			extra = append(extra, string(s))
		}
	}
	sort.Strings(extra)
	for _, s := range extra {
		fmt.Printf("  %-14s %d\n", s+":", counts[status.Status(s)])
	}
}

// truncateString truncates a string to maxLen runes, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= maxLen {
		return string(r)
	}
	return string(r[:maxLen-3]) + "..."
}

func formatOptFloat(f *float64) string {
	if f == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *f)
}
