package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ghrepostats/internal/core/reconcile"
	"ghrepostats/internal/core/series"
	perr "ghrepostats/internal/platform/errors"
)

// PerPage is the page size used for every paginated listing
const PerPage = 100

const maxBody = 8 << 20

func repoPath(full, suffix string) string {
	owner, name, _ := strings.Cut(full, "/")
	return "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(name) + suffix
}

// getJSON decodes a 200 body into out; 202 and 204 leave out untouched
func (c *Client) getJSON(ctx context.Context, target, accept string, out any) (http.Header, int, error) {
	resp, err := c.Do(ctx, http.MethodGet, target, accept)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Error().Err(cerr).Str("path", target).Msg("github close body failed")
		}
	}()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
		return resp.Header, resp.StatusCode, nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(out); err != nil {
		return nil, 0, perr.Wrapf(err, perr.ErrorCodeJSON, "github decode %s", target)
	}
	return resp.Header, resp.StatusCode, nil
}

// Repo fetches repository metadata; a 404 is an unknown repository
func (c *Client) Repo(ctx context.Context, full string) (Repo, error) {
	var out Repo
	if _, _, err := c.getJSON(ctx, repoPath(full, ""), acceptJSON, &out); err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return Repo{}, perr.NotFoundf("unknown repository %s", full)
		}
		return Repo{}, err
	}
	return out, nil
}

// Issues lists issues and pull requests ascending by creation, following Link next pages.
// since narrows the listing to records updated at or after it.
func (c *Client) Issues(ctx context.Context, full string, since *time.Time) iter.Seq2[reconcile.Issue, error] {
	return func(yield func(reconcile.Issue, error) bool) {
		q := url.Values{}
		q.Set("state", "all")
		q.Set("sort", "created")
		q.Set("direction", "asc")
		q.Set("per_page", strconv.Itoa(PerPage))
		if since != nil {
			q.Set("since", since.UTC().Format(time.RFC3339))
		}
		next := repoPath(full, "/issues") + "?" + q.Encode()
		for next != "" {
			var page []issue
			h, _, err := c.getJSON(ctx, next, acceptJSON, &page)
			if err != nil {
				if perr.IsCode(err, perr.ErrorCodeNotFound) {
					err = perr.NotFoundf("unknown repository %s", full)
				}
				yield(reconcile.Issue{}, err)
				return
			}
			for _, it := range page {
				if !yield(it.record(), nil) {
					return
				}
			}
			next = parseLink(h.Get("Link"))["next"]
		}
	}
}

// IssueSource binds Issues to one repository for the reconciler
func (c *Client) IssueSource(ctx context.Context, full string) reconcile.IssueSource {
	return func(since *time.Time) iter.Seq2[reconcile.Issue, error] {
		return c.Issues(ctx, full, since)
	}
}

// Stargazers yields stars most recent first by walking pages from the last one back.
// total is the stargazers_count the page count is derived from.
func (c *Client) Stargazers(ctx context.Context, full string, total int) iter.Seq2[reconcile.Star, error] {
	return func(yield func(reconcile.Star, error) bool) {
		last := (total + PerPage - 1) / PerPage
		for page := last; page >= 1; page-- {
			target := fmt.Sprintf("%s?per_page=%d&page=%d", repoPath(full, "/stargazers"), PerPage, page)
			var rows []stargazer
			if _, _, err := c.getJSON(ctx, target, acceptStars, &rows); err != nil {
				yield(reconcile.Star{}, err)
				return
			}
			for i := len(rows) - 1; i >= 0; i-- {
				if !yield(rows[i].star(), nil) {
					return
				}
			}
		}
	}
}

// StarSource reads the current total and returns the lazy most-recent-first stream
func (c *Client) StarSource(ctx context.Context, full string) (reconcile.StarSource, error) {
	r, err := c.Repo(ctx, full)
	if err != nil {
		return reconcile.StarSource{}, err
	}
	return reconcile.StarSource{Total: r.Stargazers, Stars: c.Stargazers(ctx, full, r.Stargazers)}, nil
}

// CommitActivity returns the last year of weekly commit totals
func (c *Client) CommitActivity(ctx context.Context, full string) ([]series.WeekCount, error) {
	var weeks []commitWeek
	if err := c.stats(ctx, full, "commit_activity", &weeks); err != nil {
		return nil, err
	}
	out := make([]series.WeekCount, len(weeks))
	for i, w := range weeks {
		out[i] = w.count()
	}
	return out, nil
}

// CodeFrequency returns weekly additions and deletions
func (c *Client) CodeFrequency(ctx context.Context, full string) ([]series.WeekDelta, error) {
	var weeks []codeWeek
	if err := c.stats(ctx, full, "code_frequency", &weeks); err != nil {
		return nil, err
	}
	out := make([]series.WeekDelta, len(weeks))
	for i, w := range weeks {
		out[i] = w.delta()
	}
	return out, nil
}

// stats polls a statistics endpoint while GitHub answers 202 (still computing)
func (c *Client) stats(ctx context.Context, full, name string, out any) error {
	target := repoPath(full, "/stats/"+name)
	for attempt := 0; ; attempt++ {
		_, status, err := c.getJSON(ctx, target, acceptJSON, out)
		if err != nil {
			if perr.IsCode(err, perr.ErrorCodeNotFound) {
				return perr.NotFoundf("unknown repository %s", full)
			}
			return err
		}
		if status != http.StatusAccepted {
			return nil
		}
		if !c.shouldRetry(attempt) {
			return perr.Unavailablef("github is still computing %s for %s", name, full)
		}
		back := c.backoff(attempt)
		c.log.Info().Str("stats", name).Dur("retry_in", back).Msg("github statistics not ready")
		if err := c.sleep(ctx, back); err != nil {
			return err
		}
	}
}
