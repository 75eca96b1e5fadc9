//go:build integration_pg

package pg

import (
	"context"
	"testing"
	"time"

	"ghrepostats/internal/platform/store/pg/pgtest"

	"github.com/jackc/pgx/v5/pgxpool"
)

func TestOpenExecQueryRow_Integration(t *testing.T) {
	dsn := pgtest.Start(t)

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	rec := &recTracer{}
	p, err := Open(ctx, Config{URL: dsn, MaxConns: 2}, rec, func(pc *pgxpool.Config) {
		pc.ConnConfig.RuntimeParams["application_name"] = "ghrepostats-pg-integration"
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(p.Close)

	if err := p.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if _, err := p.Exec(ctx, `CREATE TABLE kv (k text PRIMARY KEY, v text NOT NULL)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := p.Exec(ctx, `INSERT INTO kv (k, v) VALUES ($1, $2)`, "octo/cat", "Stars"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	var v, app string
	if err := p.QueryRow(ctx, `SELECT v FROM kv WHERE k = $1`, "octo/cat").Scan(&v); err != nil || v != "Stars" {
		t.Fatalf("select = %q, %v", v, err)
	}
	if err := p.QueryRow(ctx, `SELECT current_setting('application_name')`).Scan(&app); err != nil || app != "ghrepostats-pg-integration" {
		t.Fatalf("application_name = %q, %v", app, err)
	}
	if len(rec.events) < 5 {
		t.Fatalf("expected traced statements, got %d", len(rec.events))
	}
}
