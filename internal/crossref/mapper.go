package crossref

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/matsen/rxivlink/internal/record"
	"github.com/matsen/rxivlink/internal/title"
)

// FirstTitle returns the work's first title, or "".
func (w Work) FirstTitle() string {
	if len(w.Title) == 0 {
		return ""
	}
	return w.Title[0]
}

// Journal returns the work's first container title, or "".
func (w Work) Journal() string {
	if len(w.ContainerTitle) == 0 {
		return ""
	}
	return w.ContainerTitle[0]
}

// OnlineDate returns the published-online date-parts joined with "-".
func (w Work) OnlineDate() string {
	return w.PublishedOnline.String()
}

// IssueDate returns the published-print date-parts joined with "-".
func (w Work) IssueDate() string {
	return w.PublishedPrint.String()
}

// String joins the first date-parts entry with "-" (e.g. "2020-3-15").
// Parts are not zero padded. A null part ends the date.
func (d *DateParts) String() string {
	if d == nil || len(d.DateParts) == 0 {
		return ""
	}
	var parts []string
	for _, p := range d.DateParts[0] {
		if p == nil {
			break
		}
		parts = append(parts, strconv.Itoa(*p))
	}
	return strings.Join(parts, "-")
}

// FormatAuthors renders authors as "Family, Given; Family, Given".
// Names are NFKD normalized with combining marks removed and whitespace
// collapsed. An author with only one name part is rendered with that part.
func FormatAuthors(authors []Author) string {
	var names []string
	for _, a := range authors {
		given := foldName(a.Given)
		family := foldName(a.Family)
		switch {
		case family != "" && given != "":
			names = append(names, family+", "+given)
		case family != "":
			names = append(names, family)
		case given != "":
			names = append(names, given)
		}
	}
	return strings.Join(names, "; ")
}

// foldName strips diacritics ("José" becomes "Jose") and collapses runs of
// whitespace.
func foldName(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(folded), " ")
}

// ToCandidate converts a work to the title matcher's view of it.
func ToCandidate(w Work) title.Candidate {
	return title.Candidate{
		Title: w.FirstTitle(),
		Type:  w.Type,
	}
}

// ToMatch converts a work to linkage columns. The title score is left
// unset; callers that matched by title fill it in.
func ToMatch(w Work) record.Match {
	return record.Match{
		Title:      w.FirstTitle(),
		Journal:    w.Journal(),
		Authors:    FormatAuthors(w.Author),
		OnlineDate: w.OnlineDate(),
		IssueDate:  w.IssueDate(),
		DOI:        w.DOI,
	}
}
