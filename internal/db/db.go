// Package db stores render diagnostics in sqlite for operators.
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/banshee-data/venus.report/internal/monitoring"
	_ "modernc.org/sqlite"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type DB struct {
	*sql.DB
	path string
}

// NewDB opens (or creates) the diagnostics database at path and brings its
// schema up to date.
func NewDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open diagnostics db: %w", err)
	}
	// modernc sqlite serialises writers; one connection avoids SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec(`PRAGMA busy_timeout = 5000; PRAGMA journal_mode = WAL;`); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	db := &DB{DB: sqlDB, path: path}
	if err := db.MigrateUp(MigrationsFS()); err != nil {
		sqlDB.Close()
		return nil, err
	}

	monitoring.Logf("opened diagnostics database %s", path)
	return db, nil
}

// Path returns the file the database was opened from.
func (db *DB) Path() string {
	return db.path
}

// RecordDiagnostic inserts d and returns its id. A zero CreatedAt is stamped
// with the current time.
func (db *DB) RecordDiagnostic(d monitoring.Diagnostic) (int64, error) {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	res, err := db.Exec(`
		INSERT INTO render_diagnostics (render_id, kind, message, input_bytes, created_unix_nanos)
		VALUES (?, ?, ?, ?, ?)`,
		d.RenderID, d.Kind, d.Message, d.InputBytes, d.CreatedAt.UnixNano(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record diagnostic: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read diagnostic id: %w", err)
	}
	return id, nil
}

// Report implements monitoring.Reporter.
func (db *DB) Report(d monitoring.Diagnostic) error {
	_, err := db.RecordDiagnostic(d)
	return err
}

// DiagnosticRow is a stored diagnostic.
type DiagnosticRow struct {
	ID int64 `json:"id"`
	monitoring.Diagnostic
}

// ListRecentDiagnostics returns up to limit diagnostics, newest first.
// Limits outside 1..100 fall back to 20.
func (db *DB) ListRecentDiagnostics(limit int) ([]DiagnosticRow, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	rows, err := db.Query(`
		SELECT diagnostic_id, render_id, kind, message, input_bytes, created_unix_nanos
		FROM render_diagnostics
		ORDER BY created_unix_nanos DESC, diagnostic_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query diagnostics: %w", err)
	}
	defer rows.Close()

	out := []DiagnosticRow{}
	for rows.Next() {
		var r DiagnosticRow
		var nanos int64
		if err := rows.Scan(&r.ID, &r.RenderID, &r.Kind, &r.Message, &r.InputBytes, &nanos); err != nil {
			return nil, fmt.Errorf("failed to scan diagnostic: %w", err)
		}
		r.CreatedAt = time.Unix(0, nanos).UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate diagnostics: %w", err)
	}
	return out, nil
}

// KindCounts returns the number of stored diagnostics per kind.
func (db *DB) KindCounts() (map[string]int, error) {
	rows, err := db.Query(`SELECT kind, COUNT(*) FROM render_diagnostics GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to count diagnostics: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("failed to scan diagnostic count: %w", err)
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}

// PruneBefore deletes diagnostics older than cutoff and returns how many were removed.
func (db *DB) PruneBefore(cutoff time.Time) (int64, error) {
	res, err := db.Exec(`DELETE FROM render_diagnostics WHERE created_unix_nanos < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune diagnostics: %w", err)
	}
	return res.RowsAffected()
}
