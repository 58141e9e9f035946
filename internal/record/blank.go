package record

import "strings"

// missingMarkers are the literal values tabular exports use for a missing cell.
var missingMarkers = map[string]bool{
	"na":   true,
	"n/a":  true,
	"nan":  true,
	"null": true,
	"none": true,
}

// IsBlank reports whether a cell value should be treated as absent.
// Whitespace-only strings and the usual missing markers ("NA", "NaN", ...)
// count as blank. bioRxiv reports an unpublished preprint's DOI as "NA".
func IsBlank(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	return missingMarkers[strings.ToLower(s)]
}

// Clean trims a value and maps blank values to the empty string.
func Clean(s string) string {
	if IsBlank(s) {
		return ""
	}
	return strings.TrimSpace(s)
}
