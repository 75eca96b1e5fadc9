// Package pg provides a pgxpool client whose queries are timed and optionally traced
package pg

import (
	"context"
	"time"

	perr "ghrepostats/internal/platform/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config configures pgxpool for pg
type Config struct {
	URL      string
	MaxConns int32
	SlowMs   int
}

// PG is a postgres client with pool and optional tracer
type PG struct {
	Pool   *pgxpool.Pool
	Tracer QueryTracer
	SlowMs int
}

var newPool = pgxpool.NewWithConfig

// Open parses cfg, applies the optional pool mutator and connects
func Open(ctx context.Context, cfg Config, tracer QueryTracer, poolCfgMut func(*pgxpool.Config)) (*PG, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeConfig, "invalid postgres dsn")
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if poolCfgMut != nil {
		poolCfgMut(pcfg)
	}
	pool, err := newPool(ctx, pcfg)
	if err != nil {
		return nil, perr.FromPostgresf(err, "connect postgres")
	}
	return &PG{Pool: pool, Tracer: tracer, SlowMs: cfg.SlowMs}, nil
}

// Close closes the pool
func (p *PG) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}

// Exec runs a statement and reports it to the tracer
func (p *PG) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	start := time.Now()
	ct, err := p.Pool.Exec(ctx, sql, args...)
	p.emit(ctx, sql, args, start, err)
	return ct, err
}

// QueryRow runs a single-row query; the trace event fires once Scan returns
func (p *PG) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	start := time.Now()
	return row{
		r: p.Pool.QueryRow(ctx, sql, args...),
		after: func(err error) {
			p.emit(ctx, sql, args, start, err)
		},
	}
}

// Ping checks the connection with a trivial round trip
func (p *PG) Ping(ctx context.Context) error {
	var one int
	return p.QueryRow(ctx, "SELECT 1").Scan(&one)
}

type row struct {
	r     pgx.Row
	after func(error)
}

func (r row) Scan(dest ...any) error {
	err := r.r.Scan(dest...)
	r.after(err)
	return err
}

func (p *PG) emit(ctx context.Context, sql string, args []any, start time.Time, err error) {
	if p.Tracer == nil {
		return
	}
	us := time.Since(start).Microseconds()
	p.Tracer.OnQuery(ctx, QueryEvent{
		SQL:       sql,
		Args:      args,
		ElapsedUS: us,
		Err:       err,
		Slow:      p.SlowMs > 0 && us >= int64(p.SlowMs)*1000,
	})
}
