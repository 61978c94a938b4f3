// Package store persists named option values in SQLite.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	stderrs "errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Station-Manager/errors"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const (
	errMsgOpen    = "Failed to open option store."
	errMsgPragma  = "Failed to configure option store."
	errMsgSchema  = "Failed to create option store schema."
	errMsgGet     = "Failed to read option."
	errMsgSet     = "Failed to write option."
	errMsgDelete  = "Failed to delete option."
	errMsgNoName  = "Option name is empty."
	errMsgNoStore = "Option store is not open."
)

// Store is an option store backed by a single SQLite table.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the database at path, creating its directory.
func Open(ctx context.Context, path string) (*Store, error) {
	const op errors.Op = "store.Open"
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.New(op).Err(err).Msg(errMsgOpen)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.New(op).Err(err).Msg(errMsgOpen)
	}
	// pragmas below are per connection
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, errors.New(op).Err(execErr).Msg(errMsgPragma)
		}
	}

	if _, err = db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, errors.New(op).Err(err).Msg(errMsgSchema)
	}

	return &Store{db: db, path: path}, nil
}

// Path is the database file.
func (s *Store) Path() string {
	return s.path
}

// GetOption returns the stored value and whether the option exists.
func (s *Store) GetOption(ctx context.Context, name string) ([]byte, bool, error) {
	const op errors.Op = "store.Store.GetOption"
	if err := s.check(op, name); err != nil {
		return nil, false, err
	}

	var value []byte
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, "SELECT option_value FROM options WHERE option_name = ?", name).Scan(&value)
	})
	if stderrs.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.New(op).Err(err).Msg(errMsgGet)
	}
	return value, true, nil
}

// SetOption inserts or replaces the value of name.
func (s *Store) SetOption(ctx context.Context, name string, value []byte) error {
	const op errors.Op = "store.Store.SetOption"
	if err := s.check(op, name); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}

	err := retryOnBusy(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx, `INSERT INTO options (option_name, option_value, updated_at)
			VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
			ON CONFLICT(option_name) DO UPDATE SET
				option_value = excluded.option_value,
				updated_at = excluded.updated_at`, name, value)
		return execErr
	})
	if err != nil {
		return errors.New(op).Err(err).Msg(errMsgSet)
	}
	return nil
}

// DeleteOption removes name and reports whether it existed.
func (s *Store) DeleteOption(ctx context.Context, name string) (bool, error) {
	const op errors.Op = "store.Store.DeleteOption"
	if err := s.check(op, name); err != nil {
		return false, err
	}

	var affected int64
	err := retryOnBusy(ctx, func() error {
		res, execErr := s.db.ExecContext(ctx, "DELETE FROM options WHERE option_name = ?", name)
		if execErr != nil {
			return execErr
		}
		affected, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		return false, errors.New(op).Err(err).Msg(errMsgDelete)
	}
	return affected > 0, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) check(op errors.Op, name string) error {
	if s == nil || s.db == nil {
		return errors.New(op).Msg(errMsgNoStore)
	}
	if strings.TrimSpace(name) == "" {
		return errors.New(op).Msg(errMsgNoName)
	}
	return nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if stderrs.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
