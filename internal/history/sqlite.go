package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/sweeney/thermoshield/internal/store"
)

const createDutyTable = `CREATE TABLE IF NOT EXISTS duty_cycle (
	channel            INTEGER NOT NULL,
	logged_at          TEXT    NOT NULL,
	temperature        REAL    NOT NULL,
	duty_percent       INTEGER NOT NULL,
	toggles            INTEGER NOT NULL,
	checkpoints_active INTEGER NOT NULL,
	checkpoints_total  INTEGER NOT NULL
)`

// SQLite stores duty-cycle records in a local database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed creates) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(createDutyTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create duty_cycle table: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Record inserts the batch in one transaction.
func (s *SQLite) Record(ctx context.Context, records []store.DutyRecord) (retErr error) {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO duty_cycle
		(channel, logged_at, temperature, duty_percent, toggles, checkpoints_active, checkpoints_total)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Channel+1, r.Time.UTC().Format(time.RFC3339),
			r.Temperature, r.DutyPercent, r.Toggles, r.CheckpointsActive, r.CheckpointsTotal); err != nil {
			return fmt.Errorf("insert channel %d: %w", r.Channel+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first. A channel of 0 selects
// all channels, otherwise channels are 1-based.
func (s *SQLite) Recent(ctx context.Context, channel, limit int) ([]store.DutyRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT channel, logged_at, temperature, duty_percent,
		toggles, checkpoints_active, checkpoints_total
		FROM duty_cycle WHERE ? = 0 OR channel = ?
		ORDER BY logged_at DESC, channel ASC LIMIT ?`, channel, channel, limit)
	if err != nil {
		return nil, fmt.Errorf("select duty_cycle: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []store.DutyRecord
	for rows.Next() {
		var (
			r        store.DutyRecord
			loggedAt string
		)
		if err := rows.Scan(&r.Channel, &loggedAt, &r.Temperature, &r.DutyPercent,
			&r.Toggles, &r.CheckpointsActive, &r.CheckpointsTotal); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		r.Channel--
		if r.Time, err = time.Parse(time.RFC3339, loggedAt); err != nil {
			return nil, fmt.Errorf("parse logged_at %q: %w", loggedAt, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
