// Package store handles SQLite persistence of treatment history.
package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/mrcode/oref-go/internal/models"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for cached treatment history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS treatments (
			id INTEGER PRIMARY KEY,
			kind TEXT NOT NULL,
			insulin REAL NOT NULL,
			rate REAL NOT NULL,
			duration REAL NOT NULL,
			carbs REAL NOT NULL,
			carb_source TEXT NOT NULL,
			date INTEGER NOT NULL,
			timestamp TEXT NOT NULL,
			started_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_treatments_date ON treatments(date);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_treatments_identity
			ON treatments(kind, date, insulin, rate, duration, carbs);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertTreatments stores a batch of treatments. Records already present
// (same kind, date and amounts) are skipped, so repeated fetches of
// overlapping windows stay idempotent.
func (s *Store) InsertTreatments(ctx context.Context, treatments []models.Treatment) (err error) {
	if len(treatments) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO treatments (kind, insulin, rate, duration, carbs, carb_source, date, timestamp, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()

	for i := range treatments {
		t := &treatments[i]
		if _, err = stmt.ExecContext(ctx,
			string(t.Kind), t.Insulin, t.Rate, t.Duration, t.Carbs, string(t.CarbSource),
			t.EffectiveDate(), t.Timestamp, t.StartedAt,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListTreatments returns treatments with dates inside [from, to], ordered
// ascending by date.
func (s *Store) ListTreatments(ctx context.Context, from, to time.Time) ([]models.Treatment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, insulin, rate, duration, carbs, carb_source, date, timestamp, started_at
		 FROM treatments
		 WHERE date >= ? AND date <= ?
		 ORDER BY date ASC`,
		from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var treatments []models.Treatment
	for rows.Next() {
		var t models.Treatment
		var kind, carbSource string
		if err := rows.Scan(&kind, &t.Insulin, &t.Rate, &t.Duration, &t.Carbs, &carbSource, &t.Date, &t.Timestamp, &t.StartedAt); err != nil {
			return nil, err
		}
		t.Kind = models.TreatmentKind(kind)
		t.CarbSource = models.CarbSource(carbSource)
		treatments = append(treatments, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return treatments, nil
}
