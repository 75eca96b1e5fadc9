// Package module wires the stats service for the CLI and the API
package module

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ghrepostats/internal/adapters/github"
	"ghrepostats/internal/adapters/snapshot"
	"ghrepostats/internal/core/version"
	"ghrepostats/internal/platform/config"
	"ghrepostats/internal/platform/config/credentials"
	phttp "ghrepostats/internal/platform/net/http"
	"ghrepostats/internal/services/stats/docs"
	statshttp "ghrepostats/internal/services/stats/http"
	"ghrepostats/internal/services/stats/service"
)

// Options holds what the module needs to build its adapters
type Options struct {
	Settings config.Settings
	// Credentials enable the GitHub client; nil builds a cache-only module for the API
	Credentials *credentials.Credentials
	Now         func() time.Time
}

// Module owns the snapshot store and the service built on it
type Module struct {
	name     string
	prefix   string
	store    snapshot.Store
	svc      *service.Svc
	withDocs bool
}

// openStore is swapped in tests
var openStore = snapshot.Open

// New opens the configured snapshot store and constructs the service
func New(ctx context.Context, opts Options) (*Module, error) {
	store, err := openStore(ctx, opts.Settings)
	if err != nil {
		return nil, err
	}
	cfg := service.Config{Now: opts.Now}
	cache := snapshot.NewCache(store)

	m := &Module{name: "stats", prefix: "/v1", store: store, withDocs: opts.Settings.APIDocs}
	if opts.Credentials != nil {
		client := github.NewClient(github.OptionsFrom(opts.Settings.GitHub, *opts.Credentials))
		m.svc = service.New(client, cache, cfg)
	} else {
		m.svc = service.New(nil, cache, cfg)
	}
	return m, nil
}

// Service returns the stats service
func (m *Module) Service() service.Service { return m.svc }

// Name returns the module name
func (m *Module) Name() string { return m.name }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return m.prefix }

// Health is the body of the health check
type Health struct {
	Status string            `json:"status"`
	Build  version.BuildInfo `json:"build"`
}

// healthz godoc
// @Summary Health check
// @Description Reports liveness and the build that is serving
// @Tags Meta
// @Produce json
// @Success 200 {object} phttp.Envelope{data=module.Health} "ok"
// @Router /healthz [get]
func healthz(*stdhttp.Request) phttp.Response {
	return phttp.OK(Health{Status: "ok", Build: version.Info("ghrepostats-api")})
}

// MountRoutes mounts the read-only routes, the health check and the docs under Prefix
func (m *Module) MountRoutes(r chi.Router) {
	r.Route(m.prefix, func(rr chi.Router) {
		rr.Get("/healthz", phttp.Handle(healthz))
		statshttp.Register(rr, m.svc)
		phttp.MountSwagger(rr, phttp.SwaggerOptions{
			Enabled:   m.withDocs,
			Doc:       docs.SwaggerInfo.ReadDoc,
			ServerURL: m.prefix,
		})
	})
}

// Close releases the snapshot store
func (m *Module) Close() error { return m.store.Close() }
