package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/matsen/rxivlink/internal/record"
	"github.com/matsen/rxivlink/internal/status"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		-- One row per linked record; record_json holds the full row
		CREATE TABLE IF NOT EXISTS linked (
			identifier TEXT PRIMARY KEY,
			title_last TEXT,
			version_last INTEGER NOT NULL,
			category TEXT,
			status TEXT NOT NULL,
			published_doi TEXT,
			matched_doi TEXT,
			matched_journal TEXT,
			title_match_score REAL,
			author_match_score REAL NOT NULL,
			canonical_publication_date TEXT,
			publication_type TEXT,
			version_span_days INTEGER,
			submission_to_publication_days INTEGER,
			record_json TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_linked_status ON linked(status);
		CREATE INDEX IF NOT EXISTS idx_linked_matched_doi ON linked(matched_doi) WHERE matched_doi IS NOT NULL;

		-- Full-text search over preprint and publisher titles
		CREATE VIRTUAL TABLE IF NOT EXISTS linked_fts USING fts5(
			identifier,
			title_first,
			title_last,
			matched_title,
			authors_text
		);
	`

	_, err := db.Exec(schema)
	return err
}

// RebuildFromJSONL clears the database and rebuilds it from a JSONL file.
func (d *DB) RebuildFromJSONL(jsonlPath string) (int, error) {
	recs, err := ReadAllLinked(jsonlPath)
	if err != nil {
		return 0, fmt.Errorf("reading JSONL: %w", err)
	}
	return d.RebuildFromLinked(recs)
}

// RebuildFromLinked clears the database and loads recs in one transaction.
// A repeated identifier replaces the earlier row.
func (d *DB) RebuildFromLinked(recs []record.Linked) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM linked"); err != nil {
		return 0, fmt.Errorf("clearing linked table: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM linked_fts"); err != nil {
		return 0, fmt.Errorf("clearing linked_fts table: %w", err)
	}

	linkedStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO linked (
			identifier, title_last, version_last, category,
			status, published_doi, matched_doi, matched_journal,
			title_match_score, author_match_score,
			canonical_publication_date, publication_type,
			version_span_days, submission_to_publication_days,
			record_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing linked insert: %w", err)
	}
	defer linkedStmt.Close()

	ftsDelete, err := tx.Prepare(`DELETE FROM linked_fts WHERE identifier = ?`)
	if err != nil {
		return 0, fmt.Errorf("preparing fts delete: %w", err)
	}
	defer ftsDelete.Close()

	ftsStmt, err := tx.Prepare(`
		INSERT INTO linked_fts (identifier, title_first, title_last, matched_title, authors_text)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	seen := make(map[string]bool, len(recs))
	for _, rec := range recs {
		if rec.Identifier == "" {
			continue
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return 0, fmt.Errorf("marshaling record %s: %w", rec.Identifier, err)
		}

		_, err = linkedStmt.Exec(
			rec.Identifier, rec.TitleLast, rec.VersionLast, nullableStringValue(rec.Category),
			string(rec.Status.Normalize()), nullableStringValue(record.Clean(rec.PublishedDOI)),
			nullableStringValue(rec.DOI), nullableStringValue(rec.Journal),
			nullableFloat(rec.TitleScore), rec.AuthorMatchScore,
			nullableStringValue(rec.PublicationDate), nullableStringValue(rec.PublicationType),
			nullableInt(rec.VersionSpanDays), nullableInt(rec.SubmissionToPublicationDays),
			string(data),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting record %s: %w", rec.Identifier, err)
		}

		if seen[rec.Identifier] {
			if _, err := ftsDelete.Exec(rec.Identifier); err != nil {
				return 0, fmt.Errorf("replacing fts for %s: %w", rec.Identifier, err)
			}
		}
		seen[rec.Identifier] = true

		authorsText := strings.Join([]string{rec.AuthorsLast, rec.Match.Authors}, "; ")
		if _, err := ftsStmt.Exec(rec.Identifier, rec.TitleFirst, rec.TitleLast, rec.Match.Title, authorsText); err != nil {
			return 0, fmt.Errorf("inserting fts for %s: %w", rec.Identifier, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return len(seen), nil
}

// GetByIdentifier retrieves a record by identifier. It returns nil, nil
// when no record exists.
func (d *DB) GetByIdentifier(id string) (*record.Linked, error) {
	row := d.db.QueryRow(`SELECT record_json FROM linked WHERE identifier = ?`, id)
	return scanLinked(row)
}

// Search performs a full-text search over titles and authors.
func (d *DB) Search(query string, limit int) ([]record.Linked, error) {
	ftsQuery := prepareFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}

	rows, err := d.db.Query(`
		SELECT record_json
		FROM linked
		WHERE identifier IN (SELECT identifier FROM linked_fts WHERE linked_fts MATCH ?)
		ORDER BY identifier
		LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	return scanLinkedRows(rows)
}

// SearchField performs a search restricted to titles or authors.
func (d *DB) SearchField(field, value string, limit int) ([]record.Linked, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	var ftsQuery string

	switch field {
	case "author":
		ftsQuery = "authors_text:(" + prepareFTSQuery(value) + ")"
	case "title":
		ftsQuery = "{title_first title_last matched_title}:(" + prepareFTSQuery(value) + ")"
	default:
		return nil, fmt.Errorf("unknown search field: %s", field)
	}

	rows, err := d.db.Query(`
		SELECT record_json
		FROM linked
		WHERE identifier IN (SELECT identifier FROM linked_fts WHERE linked_fts MATCH ?)
		ORDER BY identifier
		LIMIT ?
	`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", field, err)
	}
	defer rows.Close()

	return scanLinkedRows(rows)
}

// ListByStatus returns records with the given status, ordered by
// identifier. A non-positive limit returns all of them.
func (d *DB) ListByStatus(s status.Status, limit int) ([]record.Linked, error) {
	query := `SELECT record_json FROM linked WHERE status = ? ORDER BY identifier`
	args := []interface{}{string(s.Normalize())}

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing %s records: %w", s, err)
	}
	defer rows.Close()

	return scanLinkedRows(rows)
}

// Count returns the total number of records.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM linked").Scan(&count)
	return count, err
}

// CountByStatus returns the number of records per status. Every status is
// present in the result, zero counts included.
func (d *DB) CountByStatus() (map[status.Status]int, error) {
	counts := make(map[status.Status]int, len(status.All))
	for _, s := range status.All {
		counts[s] = 0
	}

	rows, err := d.db.Query("SELECT status, COUNT(*) FROM linked GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("counting by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var raw string
		var n int
		if err := rows.Scan(&raw, &n); err != nil {
			return nil, err
		}
		s, err := status.Parse(raw)
		if err != nil {
			return nil, err
		}
		counts[s] += n
	}
	return counts, rows.Err()
}

// LinkageStats summarizes the publication metrics of stored records.
type LinkageStats struct {
	Total                       int      `json:"total"`
	WithPublicationDate         int      `json:"with_publication_date"`
	MeanSubmissionToPublication *float64 `json:"mean_submission_to_publication_days"`
	MeanTitleScore              *float64 `json:"mean_title_match_score"`
}

// Stats returns aggregate metrics across all records.
func (d *DB) Stats() (LinkageStats, error) {
	var stats LinkageStats
	var meanDays, meanScore sql.NullFloat64
	err := d.db.QueryRow(`
		SELECT
			COUNT(*),
			COUNT(canonical_publication_date),
			AVG(submission_to_publication_days),
			AVG(title_match_score)
		FROM linked
	`).Scan(&stats.Total, &stats.WithPublicationDate, &meanDays, &meanScore)
	if err != nil {
		return stats, fmt.Errorf("computing stats: %w", err)
	}
	if meanDays.Valid {
		stats.MeanSubmissionToPublication = &meanDays.Float64
	}
	if meanScore.Valid {
		stats.MeanTitleScore = &meanScore.Float64
	}
	return stats, nil
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanLinked(s scanner) (*record.Linked, error) {
	var data string
	if err := s.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var rec record.Linked
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("parsing record JSON: %w", err)
	}
	return &rec, nil
}

func scanLinkedRows(rows *sql.Rows) ([]record.Linked, error) {
	var recs []record.Linked
	for rows.Next() {
		rec, err := scanLinked(rows)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			recs = append(recs, *rec)
		}
	}
	return recs, rows.Err()
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullableInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func nullableFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// prepareFTSQuery escapes special characters for FTS5 queries.
func prepareFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	// FTS5 uses double quotes for phrase matching
	if strings.ContainsAny(query, "\"'*+-:(){}[]^~.,/") {
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	return query
}
