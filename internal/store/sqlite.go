// Package store keeps the run history in SQLite: runs, per-building dataset
// summaries and per-building model performance.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jonboulle/clockwork"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DefaultFileName is the history database inside the output directory.
const DefaultFileName = "history.db"

type Store struct {
	db     *sql.DB
	logger *slog.Logger
	clock  clockwork.Clock
}

// Open opens the database at path for a single writer.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")
	return db, nil
}

func New(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger, clock: clockwork.NewRealClock()}
}

// SetClock replaces the clock used for migration bookkeeping.
func (s *Store) SetClock(c clockwork.Clock) {
	s.clock = c
}

// exec retries while the database is busy or locked. Other errors are
// returned immediately.
func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	operation := func() error {
		r, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			if isBusy(err) {
				s.logger.Debug("database busy, retrying", "error", err)
				return err
			}
			return backoff.Permanent(err)
		}
		res = r
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxElapsedTime = 10 * time.Second
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return res, nil
}

func isBusy(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}
