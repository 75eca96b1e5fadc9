package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	perr "ghrepostats/internal/platform/errors"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	owner      TEXT NOT NULL,
	name       TEXT NOT NULL,
	kind       TEXT NOT NULL,
	body       BLOB NOT NULL,
	updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
	PRIMARY KEY (owner, name, kind)
)`

// SQLiteStore keeps every snapshot as a row in a single-file database
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at dsn and applies the schema
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dsn); dsn != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, perr.Storagef(err, "create sqlite dir")
		}
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, perr.Storagef(err, "open sqlite")
	}
	db.SetMaxOpenConns(1)
	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		sqliteSchema,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, perr.Storagef(err, "prepare sqlite")
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Load reads the document for key, nil when absent
func (s *SQLiteStore) Load(ctx context.Context, key Key) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM snapshots WHERE owner = ? AND name = ? AND kind = ?`,
		key.Owner, key.Name, string(key.Kind),
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, perr.Storagef(err, "load snapshot %s", key)
	}
	return body, nil
}

// Save upserts the document for key
func (s *SQLiteStore) Save(ctx context.Context, key Key, doc []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (owner, name, kind, body) VALUES (?, ?, ?, ?)
		ON CONFLICT (owner, name, kind) DO UPDATE SET
			body = excluded.body,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`,
		key.Owner, key.Name, string(key.Kind), doc,
	)
	if err != nil {
		return perr.Storagef(err, "save snapshot %s", key)
	}
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error { return s.db.Close() }
