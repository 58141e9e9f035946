// Package table reads and writes the flat CSV records at the pipeline
// boundary.
package table

import (
	"fmt"
	"strings"
)

// Input column names.
const (
	ColIdentifier               = "identifier"
	ColVersion                  = "version"
	ColTitle                    = "title"
	ColAuthors                  = "authors"
	ColCorrespondingAuthor      = "corresponding_author"
	ColCorrespondingInstitution = "corresponding_author_institution"
	ColSubmissionDate           = "submission_date"
	ColType                     = "type"
	ColLicense                  = "license"
	ColCategory                 = "category"
	ColExternalLink             = "external_link"
	ColAbstract                 = "abstract"
	ColPublishedDOI             = "published_doi"
)

// RevisionColumns is the canonical column order of a revision table.
var RevisionColumns = []string{
	ColIdentifier,
	ColVersion,
	ColTitle,
	ColAuthors,
	ColCorrespondingAuthor,
	ColCorrespondingInstitution,
	ColSubmissionDate,
	ColType,
	ColLicense,
	ColCategory,
	ColExternalLink,
	ColAbstract,
	ColPublishedDOI,
}

// RequiredColumns must be present in every revision table.
var RequiredColumns = []string{ColIdentifier, ColVersion}

// aliases maps raw bioRxiv details field names to canonical columns.
var aliases = map[string]string{
	"doi":                              ColIdentifier,
	"date":                             ColSubmissionDate,
	"author_corresponding":             ColCorrespondingAuthor,
	"author_corresponding_institution": ColCorrespondingInstitution,
	"jatsxml":                          ColExternalLink,
	"published":                        ColPublishedDOI,
}

// SchemaError reports a table that is structurally unusable.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: missing required column(s): %s", strings.Join(e.Missing, ", "))
}

// columnIndex maps canonical column names to header positions. A canonical
// header wins over an alias for the same column.
func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		name := strings.ToLower(strings.TrimSpace(h))
		if _, ok := idx[name]; !ok {
			idx[name] = i
		}
	}
	for alias, canonical := range aliases {
		if i, ok := idx[alias]; ok {
			if _, exists := idx[canonical]; !exists {
				idx[canonical] = i
			}
		}
	}
	return idx
}

func checkRequired(idx map[string]int) error {
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}
