package snapshot

import (
	"context"

	"ghrepostats/internal/platform/config"
	perr "ghrepostats/internal/platform/errors"
	"ghrepostats/internal/platform/logger"
	"ghrepostats/internal/platform/store/pg"

	"github.com/rs/zerolog"
)

// Store moves encoded snapshot documents in and out of durable storage.
// Load returns nil, nil when nothing was saved under key.
type Store interface {
	Load(ctx context.Context, key Key) ([]byte, error)
	Save(ctx context.Context, key Key, doc []byte) error
	Close() error
}

// Open builds the backend selected by settings
func Open(ctx context.Context, s config.Settings) (Store, error) {
	switch s.CacheBackend {
	case config.BackendFile, "":
		return NewFileStore(s.CacheDir), nil
	case config.BackendSQLite:
		st, err := OpenSQLite(ctx, s.CacheDSN)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.BackendPostgres:
		var tracer pg.QueryTracer
		if logger.Get().GetLevel() <= zerolog.DebugLevel {
			tracer = pg.Tracer(*logger.Named("snapshot"))
		}
		client, err := pg.Open(ctx, pg.Config{URL: s.CacheDSN, MaxConns: 4, SlowMs: 250}, tracer, nil)
		if err != nil {
			return nil, err
		}
		st, err := NewPostgresStore(ctx, client)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, perr.Configf("unknown cache backend %q", s.CacheBackend)
	}
}
