package snapshot

import (
	"context"
	"errors"

	perr "ghrepostats/internal/platform/errors"
	"ghrepostats/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS ghrepostats_snapshots (
	owner      text        NOT NULL,
	name       text        NOT NULL,
	kind       text        NOT NULL,
	body       jsonb       NOT NULL,
	updated_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (owner, name, kind)
)`

// PostgresStore keeps snapshots as jsonb rows, for shared caches
type PostgresStore struct {
	pg *pg.PG
}

// NewPostgresStore applies the schema on client and takes ownership of it
func NewPostgresStore(ctx context.Context, client *pg.PG) (*PostgresStore, error) {
	if _, err := client.Exec(ctx, pgSchema); err != nil {
		client.Close()
		return nil, perr.FromPostgresf(err, "create snapshot table")
	}
	return &PostgresStore{pg: client}, nil
}

// Load reads the document for key, nil when absent
func (s *PostgresStore) Load(ctx context.Context, key Key) ([]byte, error) {
	var body []byte
	err := s.pg.QueryRow(ctx,
		`SELECT body::text FROM ghrepostats_snapshots WHERE owner = $1 AND name = $2 AND kind = $3`,
		key.Owner, key.Name, string(key.Kind),
	).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, perr.FromPostgresf(err, "load snapshot %s", key)
	}
	return body, nil
}

// Save upserts the document for key
func (s *PostgresStore) Save(ctx context.Context, key Key, doc []byte) error {
	_, err := s.pg.Exec(ctx, `
		INSERT INTO ghrepostats_snapshots (owner, name, kind, body) VALUES ($1, $2, $3, $4::jsonb)
		ON CONFLICT (owner, name, kind) DO UPDATE SET body = EXCLUDED.body, updated_at = now()`,
		key.Owner, key.Name, string(key.Kind), string(doc),
	)
	if err != nil {
		return perr.FromPostgresf(err, "save snapshot %s", key)
	}
	return nil
}

// Close releases the pool
func (s *PostgresStore) Close() error {
	s.pg.Close()
	return nil
}
