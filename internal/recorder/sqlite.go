// Package recorder persists a trace of completed forecast requests for the
// dashboard's history view.
package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"Kronos/internal/domain/models"
	"Kronos/internal/domain/repository"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder stores prediction records in a local SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLite opens (or creates) the database and runs migrations.
func NewSQLite(dbPath string) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create recorder dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS predictions (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at      INTEGER NOT NULL,
			symbol          TEXT NOT NULL,
			horizon         INTEGER NOT NULL,
			source          TEXT,
			last_close      REAL,
			predicted_close REAL,
			change_percent  REAL,
			duration_ms     INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_symbol ON predictions(symbol, created_at)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Record appends one prediction record.
func (r *SQLiteRecorder) Record(ctx context.Context, rec *models.PredictionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO predictions
			(created_at, symbol, horizon, source, last_close, predicted_close, change_percent, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		created.Unix(), rec.Symbol, rec.Horizon, rec.Source,
		rec.LastClose, rec.PredictedClose, rec.ChangePercent, rec.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("insert prediction record: %w", err)
	}
	return nil
}

// Recent returns the latest records for a symbol, newest first.
func (r *SQLiteRecorder) Recent(ctx context.Context, symbol string, limit int) ([]models.PredictionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, created_at, symbol, horizon, source, last_close, predicted_close, change_percent, duration_ms
		 FROM predictions WHERE symbol = ? ORDER BY created_at DESC LIMIT ?`,
		symbol, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query prediction records: %w", err)
	}
	defer rows.Close()

	var out []models.PredictionRecord
	for rows.Next() {
		var rec models.PredictionRecord
		var created int64
		if err := rows.Scan(&rec.ID, &created, &rec.Symbol, &rec.Horizon, &rec.Source,
			&rec.LastClose, &rec.PredictedClose, &rec.ChangePercent, &rec.DurationMS); err != nil {
			return nil, fmt.Errorf("scan prediction record: %w", err)
		}
		rec.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the database.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}

var _ repository.HistoryRecorder = (*SQLiteRecorder)(nil)
