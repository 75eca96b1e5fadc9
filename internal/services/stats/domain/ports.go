package domain

import (
	"context"

	"ghrepostats/internal/adapters/github"
	"ghrepostats/internal/adapters/snapshot"
	"ghrepostats/internal/core/reconcile"
	"ghrepostats/internal/core/series"
)

// ServicePort is consumed by the CLI and the HTTP handlers
type ServicePort interface {
	// Run reconciles against GitHub, persists changed snapshots and builds the series
	Run(ctx context.Context, in Request) (Result, error)
	// Cached builds a series from stored snapshots only, without network calls
	Cached(ctx context.Context, in SeriesQuery) (Result, error)
}

// GitHubPort is the remote side; *github.Client satisfies it
type GitHubPort interface {
	StarSource(ctx context.Context, full string) (reconcile.StarSource, error)
	IssueSource(ctx context.Context, full string) reconcile.IssueSource
	CommitActivity(ctx context.Context, full string) ([]series.WeekCount, error)
	CodeFrequency(ctx context.Context, full string) ([]series.WeekDelta, error)
	Dependents(ctx context.Context, full string, opt github.DependentsOptions) (github.Dependents, error)
}

// SnapshotPort is the typed cache; *snapshot.Cache satisfies it
type SnapshotPort interface {
	Stars(ctx context.Context, key snapshot.Key) (snapshot.Stars, error)
	SaveStars(ctx context.Context, key snapshot.Key, s snapshot.Stars) error
	Issues(ctx context.Context, key snapshot.Key) (snapshot.Issues, error)
	SaveIssues(ctx context.Context, key snapshot.Key, s snapshot.Issues) error
}
