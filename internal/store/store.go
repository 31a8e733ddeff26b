// Package store persists processing runs in SQLite. A new run replaces the
// previous one; the apply and report actions only ever see the latest batch.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go, no CGO)

	"github.com/chanmap/chanmap/internal/types"
)

// ErrNoRun is returned when no processing pass has been persisted yet.
var ErrNoRun = errors.New("store: no processed run found")

// Store provides SQLite persistence for change batches.
type Store struct {
	db *sql.DB
}

// Open initializes the store at dbPath and runs migrations. WAL mode and a
// busy timeout avoid "database locked" errors under concurrent readers.
func Open(dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		processed_at TEXT NOT NULL,
		total_channels INTEGER NOT NULL,
		renamed INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		station_hits INTEGER NOT NULL,
		premium_hits INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS changes (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		channel_id INTEGER NOT NULL,
		channel_number TEXT NOT NULL DEFAULT '',
		channel_group TEXT NOT NULL DEFAULT '',
		current_name TEXT NOT NULL,
		new_name TEXT NOT NULL,
		status TEXT NOT NULL,
		matcher TEXT NOT NULL DEFAULT '',
		match_method TEXT NOT NULL DEFAULT '',
		reason TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (run_id, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_changes_status ON changes(run_id, status);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ReplaceRun atomically replaces the persisted batch with a new run and its
// change records.
func (s *Store) ReplaceRun(ctx context.Context, run types.Run, changes []types.ChangeRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM changes`); err != nil {
		return fmt.Errorf("clear changes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM runs`); err != nil {
		return fmt.Errorf("clear runs: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, processed_at, total_channels, renamed, skipped, station_hits, premium_hits)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.ProcessedAt.UTC().Format(time.RFC3339), run.TotalChannels,
		run.Renamed, run.Skipped, run.StationHits, run.PremiumHits); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO changes (run_id, seq, channel_id, channel_number, channel_group,
		                      current_name, new_name, status, matcher, match_method, reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, ch := range changes {
		if _, err := stmt.ExecContext(ctx, run.ID, i, ch.ChannelID, ch.ChannelNumber,
			ch.ChannelGroup, ch.CurrentName, ch.NewName, ch.Status, ch.Matcher,
			ch.MatchMethod, ch.Reason); err != nil {
			return fmt.Errorf("insert change %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// LatestRun returns the most recent run summary.
func (s *Store) LatestRun(ctx context.Context) (types.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, processed_at, total_channels, renamed, skipped, station_hits, premium_hits
		 FROM runs ORDER BY processed_at DESC LIMIT 1`)

	var run types.Run
	var processedAt string
	err := row.Scan(&run.ID, &processedAt, &run.TotalChannels, &run.Renamed,
		&run.Skipped, &run.StationHits, &run.PremiumHits)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Run{}, ErrNoRun
	}
	if err != nil {
		return types.Run{}, fmt.Errorf("scan run: %w", err)
	}
	if t, perr := time.Parse(time.RFC3339, processedAt); perr == nil {
		run.ProcessedAt = t
	}
	return run, nil
}

// Changes returns the latest batch in original processing order, optionally
// filtered by status ("" = all).
func (s *Store) Changes(ctx context.Context, status string) ([]types.ChangeRecord, error) {
	run, err := s.LatestRun(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT channel_id, channel_number, channel_group, current_name, new_name,
	                 status, matcher, match_method, reason
	          FROM changes WHERE run_id = ?`
	args := []any{run.ID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query changes: %w", err)
	}
	defer rows.Close()

	var out []types.ChangeRecord
	for rows.Next() {
		var ch types.ChangeRecord
		if err := rows.Scan(&ch.ChannelID, &ch.ChannelNumber, &ch.ChannelGroup,
			&ch.CurrentName, &ch.NewName, &ch.Status, &ch.Matcher,
			&ch.MatchMethod, &ch.Reason); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}
