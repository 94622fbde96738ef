// Package session persists the authenticated session and a small cache of
// prediction runs in a local SQLite database, the client-side durable
// storage the dashboard reads at startup.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"niftydesk/internal/api"
)

const schema = `
CREATE TABLE IF NOT EXISTS session (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS runs (
	pos     INTEGER PRIMARY KEY,
	id      TEXT NOT NULL,
	payload TEXT NOT NULL
);
`

// Store is the client's durable local storage.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dbPath, creating parent
// directories as needed.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating session dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening session db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating session db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSession persists the token and serialized profile.
func (s *Store) SaveSession(ctx context.Context, sess *api.Session) error {
	user, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for key, value := range map[string]string{"token": sess.Token, "user": string(user)} {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO session (key, value) VALUES (?, ?)`, key, value); err != nil {
			return fmt.Errorf("saving session %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// LoadSession returns the persisted session, or nil when none is stored.
func (s *Store) LoadSession(ctx context.Context) (*api.Session, error) {
	var token string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM session WHERE key = 'token'`).Scan(&token)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session token: %w", err)
	}

	sess := &api.Session{Token: token}
	var user string
	err = s.db.QueryRowContext(ctx,
		`SELECT value FROM session WHERE key = 'user'`).Scan(&user)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("loading session profile: %w", err)
	}
	if err == nil {
		if uerr := json.Unmarshal([]byte(user), &sess.User); uerr != nil {
			return nil, &api.ParseError{Op: "load session profile", Err: uerr}
		}
	}
	return sess, nil
}

// ClearSession removes any persisted session. The logout path.
func (s *Store) ClearSession(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session`)
	return err
}

// SaveRuns replaces the cached run history, preserving server order.
func (s *Store) SaveRuns(ctx context.Context, runs []api.HistoryRun) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs`); err != nil {
		return fmt.Errorf("clearing runs cache: %w", err)
	}
	for i, run := range runs {
		payload, err := json.Marshal(run)
		if err != nil {
			return fmt.Errorf("encoding run %s: %w", run.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO runs (pos, id, payload) VALUES (?, ?, ?)`, i, run.ID, string(payload)); err != nil {
			return fmt.Errorf("saving run %s: %w", run.ID, err)
		}
	}
	return tx.Commit()
}

// LoadRuns returns the cached run history in stored order; empty slice when
// nothing is cached.
func (s *Store) LoadRuns(ctx context.Context) ([]api.HistoryRun, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM runs ORDER BY pos`)
	if err != nil {
		return nil, fmt.Errorf("loading runs cache: %w", err)
	}
	defer rows.Close()

	runs := []api.HistoryRun{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var run api.HistoryRun
		if err := json.Unmarshal([]byte(payload), &run); err != nil {
			return nil, &api.ParseError{Op: "load runs cache", Err: err}
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
