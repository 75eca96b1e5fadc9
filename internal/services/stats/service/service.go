// Package service contains the stats workflows: reconcile, persist, aggregate
package service

import (
	"context"
	"iter"
	"time"

	"ghrepostats/internal/adapters/github"
	"ghrepostats/internal/adapters/snapshot"
	"ghrepostats/internal/core/reconcile"
	"ghrepostats/internal/core/series"
	perr "ghrepostats/internal/platform/errors"
	"ghrepostats/internal/platform/logger"
	"ghrepostats/internal/platform/validate"
	"ghrepostats/internal/services/stats/domain"
)

// Service defines the stats service contract
type Service interface {
	domain.ServicePort
}

// Config tunes the service
type Config struct {
	// Now is the clock used for watermarks and lifetime series
	Now func() time.Time
}

// Svc implements the stats service
type Svc struct {
	gh    domain.GitHubPort
	cache domain.SnapshotPort
	now   func() time.Time
}

// New constructs a stats service; gh may be nil for cache-only use
func New(gh domain.GitHubPort, cache domain.SnapshotPort, cfg Config) *Svc {
	if cache == nil {
		panic("stats.Service requires a non nil snapshot cache")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Svc{gh: gh, cache: cache, now: cfg.Now}
}

// Run computes one statistic against GitHub
func (s *Svc) Run(ctx context.Context, in domain.Request) (domain.Result, error) {
	if err := validate.Struct(in); err != nil {
		return domain.Result{}, err
	}
	if s.gh == nil {
		return domain.Result{}, perr.Configf("stats service has no GitHub client")
	}
	ctx = logger.WithRepo(ctx, in.Repo, string(in.Kind))
	res := domain.Result{Repo: in.Repo, Kind: in.Kind, Title: in.Kind.Title()}

	var err error
	switch in.Kind {
	case domain.KindStars:
		res.Points, res.Stats, err = s.stars(ctx, in.Repo)
	case domain.KindIssues, domain.KindPRs, domain.KindIssueLifetime, domain.KindPRLifetime:
		res.Points, res.Stats, err = s.issues(ctx, in.Repo, in.Kind)
	case domain.KindCommits:
		var weeks []series.WeekCount
		if weeks, err = s.gh.CommitActivity(ctx, in.Repo); err == nil {
			res.Points = series.Weekly(weeks)
		}
	case domain.KindCodeFrequency:
		var weeks []series.WeekDelta
		if weeks, err = s.gh.CodeFrequency(ctx, in.Repo); err == nil {
			res.Points = series.CodeSize(weeks)
		}
	case domain.KindDependents:
		return s.dependents(ctx, in, res)
	}
	if err != nil {
		return domain.Result{}, err
	}
	if len(res.Points) == 0 {
		return domain.Result{}, perr.ErrNoData
	}
	return res, nil
}

// Cached builds a series from stored snapshots without touching GitHub
func (s *Svc) Cached(ctx context.Context, in domain.SeriesQuery) (domain.Result, error) {
	if err := validate.Struct(in); err != nil {
		return domain.Result{}, err
	}
	ctx = logger.WithRepo(ctx, in.Repo, string(in.Kind))
	res := domain.Result{Repo: in.Repo, Kind: in.Kind, Title: in.Kind.Title()}

	if in.Kind == domain.KindStars {
		key, err := snapshot.ParseKey(in.Repo, snapshot.KindStars)
		if err != nil {
			return domain.Result{}, perr.InvalidArgf("%v", err)
		}
		snap, err := s.cache.Stars(ctx, key)
		if err != nil {
			return domain.Result{}, err
		}
		res.Points = starSeries(snap.Stars)
	} else {
		key, err := snapshot.ParseKey(in.Repo, snapshot.KindIssues)
		if err != nil {
			return domain.Result{}, perr.InvalidArgf("%v", err)
		}
		snap, err := s.cache.Issues(ctx, key)
		if err != nil {
			return domain.Result{}, err
		}
		res.Points = s.issueSeries(snap.Issues, in.Kind)
	}
	if len(res.Points) == 0 {
		return domain.Result{}, perr.ErrNoData
	}
	return res, nil
}

func (s *Svc) stars(ctx context.Context, repo string) ([]series.Point, domain.RunStats, error) {
	key, err := snapshot.ParseKey(repo, snapshot.KindStars)
	if err != nil {
		return nil, domain.RunStats{}, perr.InvalidArgf("%v", err)
	}
	cached, err := s.cache.Stars(ctx, key)
	if err != nil {
		return nil, domain.RunStats{}, err
	}
	src, err := s.gh.StarSource(ctx, repo)
	if err != nil {
		return nil, domain.RunStats{}, err
	}
	src.Stars = traceStars(ctx, src.Stars)

	rr, err := reconcile.Stars(cached.Stars, src)
	if err != nil {
		return nil, domain.RunStats{}, err
	}
	st := domain.RunStats{Added: rr.Added, Removed: rr.Removed, Scanned: rr.Scanned, Replayed: rr.Replayed}
	log := logger.C(ctx)
	log.Info().Int("cached", len(cached.Stars)).Int("total", src.Total).Int("added", rr.Added).
		Int("removed", rr.Removed).Int("scanned", rr.Scanned).Bool("replayed", rr.Replayed).Msg("stars reconciled")

	if rr.Changed() {
		now := s.now().UTC()
		st.CacheWritten = s.save(ctx, key, func() error {
			return s.cache.SaveStars(ctx, key, snapshot.Stars{Since: &now, Stars: rr.Stars})
		})
	}
	return starSeries(rr.Stars), st, nil
}

func (s *Svc) issues(ctx context.Context, repo string, kind domain.Kind) ([]series.Point, domain.RunStats, error) {
	key, err := snapshot.ParseKey(repo, snapshot.KindIssues)
	if err != nil {
		return nil, domain.RunStats{}, perr.InvalidArgf("%v", err)
	}
	cached, err := s.cache.Issues(ctx, key)
	if err != nil {
		return nil, domain.RunStats{}, err
	}
	startedAt := s.now().UTC()
	fetch := s.gh.IssueSource(ctx, repo)
	rr, err := reconcile.Issues(cached.Issues, cached.Since, startedAt, func(since *time.Time) iter.Seq2[reconcile.Issue, error] {
		return traceIssues(ctx, fetch(since))
	})
	if err != nil {
		return nil, domain.RunStats{}, err
	}
	st := domain.RunStats{Added: rr.Added, Updated: rr.Updated, Scanned: rr.Fetched}
	logger.C(ctx).Info().Int("cached", len(cached.Issues)).Int("fetched", rr.Fetched).Int("added", rr.Added).
		Int("updated", rr.Updated).Msg("issues reconciled")

	if rr.Changed() {
		st.CacheWritten = s.save(ctx, key, func() error {
			return s.cache.SaveIssues(ctx, key, snapshot.Issues{Since: rr.Since, Issues: rr.Issues})
		})
	}
	return s.issueSeries(rr.Issues, kind), st, nil
}

func (s *Svc) dependents(ctx context.Context, in domain.Request, res domain.Result) (domain.Result, error) {
	kind, err := github.ParseDependentKind(in.Dependents.Kind)
	if err != nil {
		return domain.Result{}, err
	}
	deps, err := s.gh.Dependents(ctx, in.Repo, github.DependentsOptions{
		Kind:     kind,
		MinStars: in.Dependents.MinStars,
		MaxPages: in.Dependents.MaxPages,
	})
	if err != nil {
		return domain.Result{}, err
	}
	logger.C(ctx).Info().Int("repositories", deps.Repositories).Int("packages", deps.Packages).
		Int("listed", len(deps.Items)).Int("pages", deps.Pages).Bool("truncated", deps.Truncated).Msg("dependents scraped")
	if len(deps.Items) == 0 && deps.Repositories == 0 && deps.Packages == 0 {
		return domain.Result{}, perr.ErrNoData
	}
	res.Dependents = &deps
	return res, nil
}

// save writes a snapshot; failures are logged, the computed series is still valid
func (s *Svc) save(ctx context.Context, key snapshot.Key, write func() error) bool {
	if err := write(); err != nil {
		logger.C(ctx).Warn().Err(err).Str("key", key.String()).Msg("could not write cache")
		return false
	}
	return true
}

func (s *Svc) issueSeries(all []reconcile.Issue, kind domain.Kind) []series.Point {
	kept := reconcile.Filter(all, kind.Pulls())
	spans := make([]series.Span, len(kept))
	for i, is := range kept {
		spans[i] = series.Span{Opened: is.CreatedAt, Closed: is.ClosedAt}
	}
	switch kind {
	case domain.KindIssueLifetime, domain.KindPRLifetime:
		return series.WeeklyLifetime(spans, s.now().UTC())
	default:
		return series.OpenCount(spans)
	}
}

func starSeries(stars []reconcile.Star) []series.Point {
	times := make([]time.Time, len(stars))
	for i, st := range stars {
		times[i] = st.StarredAt
	}
	return series.Cumulative(times)
}

// traceStars logs every remote star read at debug level
func traceStars(ctx context.Context, in iter.Seq2[reconcile.Star, error]) iter.Seq2[reconcile.Star, error] {
	return func(yield func(reconcile.Star, error) bool) {
		log := logger.C(ctx)
		for st, err := range in {
			if err == nil {
				log.Debug().Time("starred_at", st.StarredAt).Int64("user_id", st.UserID).Str("login", st.Login).Msg("star")
			}
			if !yield(st, err) {
				return
			}
		}
	}
}

// traceIssues logs every remote issue read at debug level
func traceIssues(ctx context.Context, in iter.Seq2[reconcile.Issue, error]) iter.Seq2[reconcile.Issue, error] {
	return func(yield func(reconcile.Issue, error) bool) {
		log := logger.C(ctx)
		for is, err := range in {
			if err == nil {
				ev := log.Debug().Int("number", is.Number).Time("created_at", is.CreatedAt).Bool("pr", is.IsPR)
				if is.ClosedAt != nil {
					ev = ev.Time("closed_at", *is.ClosedAt)
				}
				ev.Msg("issue")
			}
			if !yield(is, err) {
				return
			}
		}
	}
}
