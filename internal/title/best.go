package title

// Candidate is one search result as seen by the matcher.
type Candidate struct {
	Title string
	Type  string
}

// Result identifies the selected candidate and its raw similarity score.
type Result struct {
	Index int
	Score float64
}

// Best scans candidates in result order and returns the one with the
// highest similarity to query. A candidate is considered only if its type is
// allowed and its score is at least Threshold. Ties keep the first candidate
// seen. The second return value is false when nothing qualifies.
func Best(query string, candidates []Candidate) (Result, bool) {
	best := Result{Index: -1}
	for i, c := range candidates {
		if !Allowed(c.Type) {
			continue
		}
		score := Similarity(query, c.Title)
		if score < Threshold {
			continue
		}
		if best.Index < 0 || score > best.Score {
			best = Result{Index: i, Score: score}
		}
	}
	if best.Index < 0 {
		return Result{}, false
	}
	return best, true
}
