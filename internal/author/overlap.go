// Package author tokenizes author lists and scores how well two lists agree.
package author

import (
	"math"
	"regexp"
	"strings"
)

// wordPattern matches unicode word tokens. Punctuation and whitespace are
// separators.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Score is the result of comparing two author lists.
type Score struct {
	Score     float64 `json:"author_match_score"`
	CountDiff int     `json:"author_count_diff"`
}

// Tokenize splits a semicolon-delimited author list into per-author token
// sets. Tokens are lower-cased. Invalid UTF-8 is treated as a separator and
// authors without any tokens are dropped.
//
// Examples:
//   - "Smith, J; Doe, A"        → [[smith j] [doe a]]
//   - "García-López, M.; ;"     → [[garcía lópez m]]
func Tokenize(list string) [][]string {
	list = strings.ToValidUTF8(list, " ")
	var authors [][]string
	for _, name := range strings.Split(list, ";") {
		tokens := wordPattern.FindAllString(strings.ToLower(name), -1)
		if len(tokens) == 0 {
			continue
		}
		authors = append(authors, tokens)
	}
	return authors
}

// Overlap scores a reference author list against a candidate list.
//
// Each reference author, in order, claims the first unclaimed candidate
// author that shares at least one token with it. The score is the number of
// claimed pairs divided by the longer list length, rounded to three
// decimals. Either list being empty yields a score of 0.
func Overlap(reference, candidate string) Score {
	ref := Tokenize(reference)
	cand := Tokenize(candidate)

	diff := len(ref) - len(cand)
	if diff < 0 {
		diff = -diff
	}
	if len(ref) == 0 || len(cand) == 0 {
		return Score{CountDiff: diff}
	}

	candSets := make([]map[string]bool, len(cand))
	for i, tokens := range cand {
		candSets[i] = toSet(tokens)
	}

	claimed := make([]bool, len(cand))
	matched := 0
	for _, tokens := range ref {
		for j, set := range candSets {
			if claimed[j] || !intersects(tokens, set) {
				continue
			}
			claimed[j] = true
			matched++
			break
		}
	}

	total := max(len(ref), len(cand))
	return Score{
		Score:     math.Round(float64(matched)/float64(total)*1000) / 1000,
		CountDiff: diff,
	}
}

func toSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

func intersects(tokens []string, set map[string]bool) bool {
	for _, t := range tokens {
		if set[t] {
			return true
		}
	}
	return false
}
