package title

import (
	"math"
	"testing"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "Foo v3", "Foo v3", 1.0},
		{"case insensitive", "Deep Mutational Scanning", "deep mutational scanning", 1.0},
		{"disjoint", "abc", "xyz", 0.0},
		{"half", "abcd", "ab", 2.0 * 2 / 6},
		{"unicode runes", "Überblick", "überblick", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilarity_Range(t *testing.T) {
	pairs := [][2]string{
		{"", ""},
		{"", "x"},
		{"A phylogenetic model", "Phylogenetic models"},
		{"\xff\xfe", "ok"},
	}
	for _, p := range pairs {
		got := Similarity(p[0], p[1])
		if got < 0 || got > 1 {
			t.Errorf("Similarity(%q, %q) = %v, out of range", p[0], p[1], got)
		}
	}
}

func TestAllowed(t *testing.T) {
	tests := []struct {
		workType string
		want     bool
	}{
		{"journal-article", true},
		{"proceedings-article", true},
		{"Journal-Article", true},
		{"book-chapter", false},
		{"posted-content", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := Allowed(tt.workType); got != tt.want {
			t.Errorf("Allowed(%q) = %v, want %v", tt.workType, got, tt.want)
		}
	}
}

func TestBest(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		candidates []Candidate
		wantIndex  int
		wantOK     bool
	}{
		{
			name:       "identical allowed title selected",
			query:      "Foo v3",
			candidates: []Candidate{{Title: "Foo v3", Type: "journal-article"}},
			wantIndex:  0,
			wantOK:     true,
		},
		{
			name:       "disallowed perfect match never selected",
			query:      "Foo v3",
			candidates: []Candidate{{Title: "Foo v3", Type: "posted-content"}},
			wantOK:     false,
		},
		{
			name:  "disallowed perfect match skipped for allowed one",
			query: "Mapping escape mutations",
			candidates: []Candidate{
				{Title: "Mapping escape mutations", Type: "book-chapter"},
				{Title: "Mapping escape mutation", Type: "journal-article"},
			},
			wantIndex: 1,
			wantOK:    true,
		},
		{
			name:       "below threshold",
			query:      "Foo v3",
			candidates: []Candidate{{Title: "Completely different", Type: "journal-article"}},
			wantOK:     false,
		},
		{
			name:  "higher score wins",
			query: "Viral evolution in hosts",
			candidates: []Candidate{
				{Title: "Viral evolution in host", Type: "journal-article"},
				{Title: "Viral evolution in hosts", Type: "proceedings-article"},
			},
			wantIndex: 1,
			wantOK:    true,
		},
		{
			name:  "first seen wins ties",
			query: "Foo v3",
			candidates: []Candidate{
				{Title: "Foo v3", Type: "journal-article"},
				{Title: "foo V3", Type: "journal-article"},
			},
			wantIndex: 0,
			wantOK:    true,
		},
		{
			name:   "no candidates",
			query:  "Foo",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Best(tt.query, tt.candidates)
			if ok != tt.wantOK {
				t.Fatalf("Best() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.Index != tt.wantIndex {
				t.Errorf("Best() index = %d, want %d", got.Index, tt.wantIndex)
			}
			if ok && got.Score < Threshold {
				t.Errorf("Best() score = %v, below threshold", got.Score)
			}
		})
	}
}

func TestRound2(t *testing.T) {
	if got := Round2(0.8666666); got != 0.87 {
		t.Errorf("Round2(0.8666666) = %v, want 0.87", got)
	}
	if got := Round2(1); got != 1 {
		t.Errorf("Round2(1) = %v, want 1", got)
	}
}
