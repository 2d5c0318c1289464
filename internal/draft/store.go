// Package draft persists a session's modification set locally so a browser
// refresh or editor restart does not lose unsubmitted work. This is the only
// persistence the module owns; the catalogs stay in the remote tabular
// service.
package draft

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store keeps per-session modification drafts in a local sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the draft database at path and runs pending
// migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open draft database: %w", err)
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure migrations: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate draft database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts the session's current modification set.
func (s *Store) Save(ctx context.Context, sessionID string, mods map[string]string) error {
	payload, err := json.Marshal(mods)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO drafts (session_id, modifications, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (session_id) DO UPDATE SET
			modifications = excluded.modifications,
			updated_at    = excluded.updated_at`,
		sessionID, string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save draft for %s: %w", sessionID, err)
	}
	return nil
}

// Load returns the session's saved modification set, or nil when the session
// has no draft.
func (s *Store) Load(ctx context.Context, sessionID string) (map[string]string, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT modifications FROM drafts WHERE session_id = ?`, sessionID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load draft for %s: %w", sessionID, err)
	}

	var mods map[string]string
	if err := json.Unmarshal([]byte(payload), &mods); err != nil {
		return nil, fmt.Errorf("decode draft for %s: %w", sessionID, err)
	}
	return mods, nil
}

// Delete removes the session's draft. Removing a missing draft is a no-op.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM drafts WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("delete draft for %s: %w", sessionID, err)
	}
	return nil
}
