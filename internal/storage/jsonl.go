// Package storage handles persistence of linked records in JSONL and
// SQLite formats.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/matsen/rxivlink/internal/record"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines
// (1MB per line). Abstracts make some records long.
const MaxJSONLLineCapacity = 1024 * 1024

// ReadAllLinked reads all linked records from a JSONL file. A missing file
// reads as empty.
func ReadAllLinked(path string) ([]record.Linked, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening records file: %w", err)
	}
	defer f.Close()

	var recs []record.Linked
	scanner := bufio.NewScanner(f)

	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec record.Linked
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		recs = append(recs, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading records file: %w", err)
	}

	return recs, nil
}

// AppendLinked adds a record to the end of a JSONL file.
func AppendLinked(path string, rec record.Linked) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening records file for append: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record %s: %w", rec.Identifier, err)
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing record %s: %w", rec.Identifier, err)
	}

	return nil
}

// WriteAllLinked writes all records to a JSONL file, replacing existing
// content.
func WriteAllLinked(path string, recs []record.Linked) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating records file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i, rec := range recs {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encoding record %d: %w", i, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("writing record %d: %w", i, err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing newline: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing records file: %w", err)
	}
	return nil
}

// FindByIdentifier searches for a record by identifier.
func FindByIdentifier(recs []record.Linked, id string) (int, bool) {
	if id == "" {
		return -1, false
	}
	for i, rec := range recs {
		if rec.Identifier == id {
			return i, true
		}
	}
	return -1, false
}

// IndexByIdentifier maps identifiers to records. When an identifier
// appears more than once the last occurrence wins, so an appended
// checkpoint entry supersedes earlier ones.
func IndexByIdentifier(recs []record.Linked) map[string]record.Linked {
	idx := make(map[string]record.Linked, len(recs))
	for _, rec := range recs {
		if rec.Identifier != "" {
			idx[rec.Identifier] = rec
		}
	}
	return idx
}
