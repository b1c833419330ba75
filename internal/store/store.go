// Package store persists report records in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"incidentsum/internal/report"
	"incidentsum/pkg/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	id            TEXT PRIMARY KEY,
	source        TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	incident_type TEXT NOT NULL,
	summary       TEXT NOT NULL DEFAULT '',
	report_json   TEXT NOT NULL,
	tags_json     TEXT NOT NULL DEFAULT '',
	received_at   DATETIME NOT NULL,
	processed_at  DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_received_at ON reports(received_at);
CREATE INDEX IF NOT EXISTS idx_reports_incident_type ON reports(incident_type);
`

// Store is a SQLite-backed report history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// WriteRecords inserts or replaces a batch of records in one transaction.
func (s *Store) WriteRecords(records []*models.ReportRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO reports (id, source, status, incident_type, summary, report_json, tags_json, received_at, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		body, err := report.Encode(rec.Report)
		if err != nil {
			return fmt.Errorf("encode report %s: %w", rec.ID, err)
		}
		var tags string
		if len(rec.Tags) > 0 {
			raw, err := json.Marshal(rec.Tags)
			if err != nil {
				return fmt.Errorf("encode tags %s: %w", rec.ID, err)
			}
			tags = string(raw)
		}
		_, err = stmt.Exec(
			rec.ID, rec.Source, rec.Report.Status, rec.Report.IncidentType, rec.Report.Summary,
			string(body), tags, rec.ReceivedAt.UTC(), rec.ProcessedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("insert report %s: %w", rec.ID, err)
		}
	}
	return tx.Commit()
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(limit int) ([]*models.ReportRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, source, report_json, tags_json, received_at, processed_at
		 FROM reports ORDER BY received_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.ReportRecord
	for rows.Next() {
		var rec models.ReportRecord
		var body, tags string
		if err := rows.Scan(&rec.ID, &rec.Source, &body, &tags, &rec.ReceivedAt, &rec.ProcessedAt); err != nil {
			return nil, err
		}
		rep, err := report.Decode([]byte(body))
		if err != nil {
			return nil, fmt.Errorf("decode report %s: %w", rec.ID, err)
		}
		rec.Report = rep
		if tags != "" {
			if err := json.Unmarshal([]byte(tags), &rec.Tags); err != nil {
				return nil, fmt.Errorf("decode tags %s: %w", rec.ID, err)
			}
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// CountByCategory counts reports received at or after since, keyed by incident type.
func (s *Store) CountByCategory(since time.Time) (map[string]int, error) {
	rows, err := s.db.Query(
		`SELECT incident_type, COUNT(*) FROM reports WHERE received_at >= ? GROUP BY incident_type`,
		since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, err
		}
		out[category] = n
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
