// @title         ghrepostats API
// @version       0.1.0
// @description   Read only series computed from cached GitHub repository snapshots
// @BasePath      /v1

// Command ghrepostats-api serves series computed from cached snapshots
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"ghrepostats/internal/platform/config"
	"ghrepostats/internal/platform/logger"
	phttp "ghrepostats/internal/platform/net/http"
	"ghrepostats/internal/platform/net/middleware"
	statsmod "ghrepostats/internal/services/stats/module"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l := logger.Get()

	settings, err := config.Load(config.New())
	if err != nil {
		l.Fatal().Err(err).Msg("config load failed")
	}

	// no credentials: the API never talks to github
	mod, err := statsmod.New(ctx, statsmod.Options{Settings: settings})
	if err != nil {
		l.Fatal().Err(err).Msg("stats module init failed")
	}
	defer func() {
		if err := mod.Close(); err != nil {
			l.Error().Err(err).Msg("failed to close snapshot store")
		}
	}()

	srv := phttp.NewServer(settings.APIAddr, func(m *chi.Mux) {
		m.Use(
			middleware.RequestID,
			middleware.AccessLog(middleware.AccessLogOptions{Slow: 2 * time.Second}),
			middleware.RecoverJSON,
			middleware.CORS(middleware.CORSOptions{AllowedOrigins: settings.CORSOrigins, MaxAge: 300}),
		)
		mod.MountRoutes(m)
	})

	if err := srv.Run(ctx); err != nil {
		l.Error().Err(err).Msg("http server stopped")
	}
}
