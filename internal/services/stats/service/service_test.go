package service

import (
	"context"
	"errors"
	"iter"
	"testing"
	"time"

	"ghrepostats/internal/adapters/github"
	"ghrepostats/internal/adapters/snapshot"
	"ghrepostats/internal/core/reconcile"
	"ghrepostats/internal/core/series"
	perr "ghrepostats/internal/platform/errors"
	kit "ghrepostats/internal/platform/testkit"
	"ghrepostats/internal/services/stats/domain"
)

// fakeGH serves canned remote data and counts star reads
type fakeGH struct {
	stars  []reconcile.Star // most recent first
	reads  int
	issues []reconcile.Issue
	sinces []*time.Time
	weeks  []series.WeekCount
	deltas []series.WeekDelta
	deps   github.Dependents
	err    error
}

func (f *fakeGH) StarSource(_ context.Context, _ string) (reconcile.StarSource, error) {
	if f.err != nil {
		return reconcile.StarSource{}, f.err
	}
	return reconcile.StarSource{Total: len(f.stars), Stars: func(yield func(reconcile.Star, error) bool) {
		for _, s := range f.stars {
			f.reads++
			if !yield(s, nil) {
				return
			}
		}
	}}, nil
}

func (f *fakeGH) IssueSource(_ context.Context, _ string) reconcile.IssueSource {
	return func(since *time.Time) iter.Seq2[reconcile.Issue, error] {
		f.sinces = append(f.sinces, since)
		return func(yield func(reconcile.Issue, error) bool) {
			if f.err != nil {
				yield(reconcile.Issue{}, f.err)
				return
			}
			for _, is := range f.issues {
				if !yield(is, nil) {
					return
				}
			}
		}
	}
}

func (f *fakeGH) CommitActivity(context.Context, string) ([]series.WeekCount, error) {
	return f.weeks, f.err
}

func (f *fakeGH) CodeFrequency(context.Context, string) ([]series.WeekDelta, error) {
	return f.deltas, f.err
}

func (f *fakeGH) Dependents(_ context.Context, _ string, opt github.DependentsOptions) (github.Dependents, error) {
	if opt.Kind != github.DependentPackages {
		return github.Dependents{}, errors.New("unexpected dependents kind")
	}
	return f.deps, f.err
}

// failingSave wraps a cache and rejects every write
type failingSave struct{ domain.SnapshotPort }

func (failingSave) SaveStars(context.Context, snapshot.Key, snapshot.Stars) error {
	return perr.Storagef(errors.New("read-only"), "cannot write")
}

func (failingSave) SaveIssues(context.Context, snapshot.Key, snapshot.Issues) error {
	return perr.Storagef(errors.New("read-only"), "cannot write")
}

func newCache(t *testing.T) *snapshot.Cache {
	t.Helper()
	return snapshot.NewCache(snapshot.NewFileStore(t.TempDir()))
}

func fixedNow() time.Time { return kit.Day(2020, 3, 1) }

func star(day int, id int64) reconcile.Star {
	return reconcile.Star{StarredAt: kit.Day(2020, 1, day), UserID: id, Login: "u"}
}

var starKey = snapshot.Key{Owner: "o", Name: "r", Kind: snapshot.KindStars}

func TestRunStarsAddsOnlyNewStar(t *testing.T) {
	ctx := context.Background()
	cache := newCache(t)
	if err := cache.SaveStars(ctx, starKey, snapshot.Stars{Stars: []reconcile.Star{star(1, 1), star(2, 2)}}); err != nil {
		t.Fatal(err)
	}
	gh := &fakeGH{stars: []reconcile.Star{star(3, 3), star(2, 2), star(1, 1)}}
	svc := New(gh, cache, Config{Now: fixedNow})

	res, err := svc.Run(ctx, domain.Request{Repo: "o/r", Kind: domain.KindStars})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if gh.reads != 2 || res.Stats.Added != 1 || res.Stats.Removed != 0 || !res.Stats.CacheWritten {
		t.Fatalf("reads=%d stats=%+v", gh.reads, res.Stats)
	}
	if len(res.Points) != 3 || res.Points[2].Value != 3 || !res.Points[2].At.Equal(kit.Day(2020, 1, 3)) {
		t.Fatalf("points = %+v", res.Points)
	}
	if res.Title != "Number of stargazers over time" {
		t.Fatalf("title = %q", res.Title)
	}

	snap, err := cache.Stars(ctx, starKey)
	if err != nil || len(snap.Stars) != 3 || snap.Stars[2].UserID != 3 {
		t.Fatalf("snapshot = %+v, %v", snap, err)
	}
}

func TestRunStarsSecondRunReadsOneAndWritesNothing(t *testing.T) {
	ctx := context.Background()
	cache := newCache(t)
	gh := &fakeGH{stars: []reconcile.Star{star(3, 3), star(2, 2), star(1, 1)}}
	svc := New(gh, cache, Config{Now: fixedNow})

	if _, err := svc.Run(ctx, domain.Request{Repo: "o/r", Kind: domain.KindStars}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	gh.reads = 0
	res, err := svc.Run(ctx, domain.Request{Repo: "o/r", Kind: domain.KindStars})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if gh.reads != 1 || res.Stats.CacheWritten || res.Stats.Added != 0 {
		t.Fatalf("reads=%d stats=%+v", gh.reads, res.Stats)
	}
}

func TestRunStarsCacheWriteFailureIsNotFatal(t *testing.T) {
	gh := &fakeGH{stars: []reconcile.Star{star(1, 1)}}
	svc := New(gh, failingSave{newCache(t)}, Config{Now: fixedNow})
	res, err := svc.Run(context.Background(), domain.Request{Repo: "o/r", Kind: domain.KindStars})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Stats.CacheWritten || len(res.Points) != 1 {
		t.Fatalf("res = %+v", res)
	}
}

func TestRunIssuesReplacesClosedIssue(t *testing.T) {
	ctx := context.Background()
	cache := newCache(t)
	since := kit.Day(2020, 1, 10)
	key := snapshot.Key{Owner: "o", Name: "r", Kind: snapshot.KindIssues}
	cached := []reconcile.Issue{
		{Number: 1, CreatedAt: kit.Day(2020, 1, 1), State: "open"},
		{Number: 3, CreatedAt: kit.Day(2020, 1, 3), State: "open"},
	}
	if err := cache.SaveIssues(ctx, key, snapshot.Issues{Since: &since, Issues: cached}); err != nil {
		t.Fatal(err)
	}
	closed := kit.Day(2020, 1, 20)
	gh := &fakeGH{issues: []reconcile.Issue{{Number: 3, CreatedAt: kit.Day(2020, 1, 3), ClosedAt: &closed, State: "closed"}}}
	svc := New(gh, cache, Config{Now: fixedNow})

	res, err := svc.Run(ctx, domain.Request{Repo: "o/r", Kind: domain.KindIssues})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(gh.sinces) != 1 || gh.sinces[0] == nil || !gh.sinces[0].Equal(since.Add(time.Second)) {
		t.Fatalf("since queried = %v", gh.sinces)
	}
	want := []int{1, 2, 1}
	if len(res.Points) != len(want) {
		t.Fatalf("points = %+v", res.Points)
	}
	for i, v := range want {
		if res.Points[i].Value != v {
			t.Fatalf("point %d = %+v, want %d", i, res.Points[i], v)
		}
	}
	if res.Stats.Updated != 1 || !res.Stats.CacheWritten {
		t.Fatalf("stats = %+v", res.Stats)
	}

	snap, err := cache.Issues(ctx, key)
	if err != nil || snap.Since == nil || !snap.Since.Equal(fixedNow()) || snap.Issues[1].ClosedAt == nil {
		t.Fatalf("snapshot = %+v, %v", snap, err)
	}
}

func TestRunPullRequestsAndLifetime(t *testing.T) {
	closed := kit.Day(2020, 1, 8)
	gh := &fakeGH{issues: []reconcile.Issue{
		{Number: 1, CreatedAt: kit.Day(2020, 1, 1), IsPR: true, ClosedAt: &closed},
		{Number: 2, CreatedAt: kit.Day(2020, 1, 2)},
	}}
	svc := New(gh, newCache(t), Config{Now: func() time.Time { return kit.Day(2020, 1, 15) }})

	prs, err := svc.Run(context.Background(), domain.Request{Repo: "o/r", Kind: domain.KindPRs})
	if err != nil {
		t.Fatalf("prs: %v", err)
	}
	if len(prs.Points) != 2 || prs.Points[0].Value != 1 || prs.Points[1].Value != 0 {
		t.Fatalf("pr points = %+v", prs.Points)
	}

	life, err := svc.Run(context.Background(), domain.Request{Repo: "o/r", Kind: domain.KindPRLifetime})
	if err != nil {
		t.Fatalf("lifetime: %v", err)
	}
	if len(life.Points) == 0 || life.Points[len(life.Points)-1].Value != 7 {
		t.Fatalf("lifetime points = %+v", life.Points)
	}
}

func TestRunWeeklyKinds(t *testing.T) {
	gh := &fakeGH{
		weeks:  []series.WeekCount{{Week: kit.Day(2020, 1, 5), Count: 4}},
		deltas: []series.WeekDelta{{Week: kit.Day(2020, 1, 5), Additions: 10, Deletions: 3}},
	}
	svc := New(gh, newCache(t), Config{Now: fixedNow})
	commits, err := svc.Run(context.Background(), domain.Request{Repo: "o/r", Kind: domain.KindCommits})
	if err != nil || len(commits.Points) != 1 || commits.Points[0].Value != 4 {
		t.Fatalf("commits = %+v, %v", commits, err)
	}
	code, err := svc.Run(context.Background(), domain.Request{Repo: "o/r", Kind: domain.KindCodeFrequency})
	if err != nil || code.Points[0].Value != 7 {
		t.Fatalf("code = %+v, %v", code, err)
	}
}

func TestRunNoData(t *testing.T) {
	svc := New(&fakeGH{}, newCache(t), Config{Now: fixedNow})
	for _, k := range []domain.Kind{domain.KindStars, domain.KindIssues, domain.KindCommits, domain.KindIssueLifetime} {
		if _, err := svc.Run(context.Background(), domain.Request{Repo: "o/r", Kind: k}); !perr.IsNoData(err) {
			t.Fatalf("%s: want no data, got %v", k, err)
		}
	}
}

func TestRunRejectsBadInput(t *testing.T) {
	svc := New(&fakeGH{}, newCache(t), Config{})
	if _, err := svc.Run(context.Background(), domain.Request{Repo: "not-a-repo", Kind: domain.KindStars}); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("want validation error, got %v", err)
	}
	if _, err := svc.Run(context.Background(), domain.Request{Repo: "o/r", Kind: "forks"}); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("want validation error, got %v", err)
	}
}

func TestRunPropagatesRemoteErrors(t *testing.T) {
	gh := &fakeGH{err: perr.NotFoundf("unknown repository o/r")}
	svc := New(gh, newCache(t), Config{Now: fixedNow})
	for _, k := range []domain.Kind{domain.KindStars, domain.KindIssues} {
		if _, err := svc.Run(context.Background(), domain.Request{Repo: "o/r", Kind: k}); !perr.IsCode(err, perr.ErrorCodeNotFound) {
			t.Fatalf("%s: want not found, got %v", k, err)
		}
	}
}

func TestRunDependents(t *testing.T) {
	gh := &fakeGH{deps: github.Dependents{Packages: 2, Items: []github.Dependent{{Repo: "a/b", Stars: 5}}, Pages: 1}}
	svc := New(gh, newCache(t), Config{Now: fixedNow})
	res, err := svc.Run(context.Background(), domain.Request{
		Repo: "o/r", Kind: domain.KindDependents,
		Dependents: domain.DependentsRequest{Kind: "package", MinStars: 1},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Dependents == nil || len(res.Dependents.Items) != 1 || res.Dependents.Packages != 2 {
		t.Fatalf("dependents = %+v", res.Dependents)
	}

	gh.deps = github.Dependents{}
	if _, err := svc.Run(context.Background(), domain.Request{Repo: "o/r", Kind: domain.KindDependents, Dependents: domain.DependentsRequest{Kind: "package"}}); !perr.IsNoData(err) {
		t.Fatalf("want no data, got %v", err)
	}
}

func TestCachedReadsSnapshotsOnly(t *testing.T) {
	ctx := context.Background()
	cache := newCache(t)
	if err := cache.SaveStars(ctx, starKey, snapshot.Stars{Stars: []reconcile.Star{star(1, 1), star(2, 2)}}); err != nil {
		t.Fatal(err)
	}
	svc := New(nil, cache, Config{Now: fixedNow})

	res, err := svc.Cached(ctx, domain.SeriesQuery{Repo: "o/r", Kind: domain.KindStars})
	if err != nil || len(res.Points) != 2 {
		t.Fatalf("Cached stars = %+v, %v", res, err)
	}
	if _, err := svc.Cached(ctx, domain.SeriesQuery{Repo: "o/r", Kind: domain.KindIssues}); !perr.IsNoData(err) {
		t.Fatalf("missing snapshot should be no data, got %v", err)
	}
	if _, err := svc.Cached(ctx, domain.SeriesQuery{Repo: "o/r", Kind: domain.KindCommits}); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("uncached kind should be rejected, got %v", err)
	}
	if _, err := svc.Run(ctx, domain.Request{Repo: "o/r", Kind: domain.KindStars}); !perr.IsCode(err, perr.ErrorCodeConfig) {
		t.Fatalf("Run without a client should be a config error, got %v", err)
	}
}

func TestNewRequiresCache(t *testing.T) {
	kit.MustPanic(t, func() { New(&fakeGH{}, nil, Config{}) })
}
