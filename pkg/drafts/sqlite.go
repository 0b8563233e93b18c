// Package drafts persists editor form state in SQLite so sessions survive
// restarts.
package drafts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goliatone/go-rwadmin/components/editor"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS drafts (
	id         TEXT PRIMARY KEY,
	state      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// SQLiteStore implements editor.FormStore on a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path. ":memory:" keeps drafts in
// memory for the lifetime of the store.
func Open(path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("drafts: create directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("drafts: open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("drafts: connect: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("drafts: create schema: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load implements editor.FormStore.
func (s *SQLiteStore) Load(ctx context.Context, id string) (editor.FormState, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM drafts WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("drafts: load %s: %w", id, err)
	}
	var state editor.FormState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, false, fmt.Errorf("drafts: decode %s: %w", id, err)
	}
	return state, true, nil
}

// Save implements editor.FormStore.
func (s *SQLiteStore) Save(ctx context.Context, id string, state editor.FormState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("drafts: encode %s: %w", id, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO drafts (id, state, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		id, string(raw), s.now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("drafts: save %s: %w", id, err)
	}
	return nil
}

// Delete implements editor.FormStore.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("drafts: delete %s: %w", id, err)
	}
	return nil
}

// Prune removes drafts not saved since before cutoff and reports how many
// were removed.
func (s *SQLiteStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE updated_at < ?`, cutoff.UTC().Unix())
	if err != nil {
		return 0, fmt.Errorf("drafts: prune: %w", err)
	}
	return res.RowsAffected()
}
