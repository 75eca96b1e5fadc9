package github

import (
	"encoding/json"
	"time"

	"ghrepostats/internal/core/reconcile"
	"ghrepostats/internal/core/series"
)

// Repo is a partial GitHub repository document with fields we use
type Repo struct {
	ID            int64     `json:"id"`
	FullName      string    `json:"full_name"`
	Private       bool      `json:"private"`
	DefaultBranch string    `json:"default_branch"`
	Stargazers    int       `json:"stargazers_count"`
	OpenIssues    int       `json:"open_issues_count"`
	ForksCount    int       `json:"forks_count"`
	CreatedAt     time.Time `json:"created_at"`
	HTMLURL       string    `json:"html_url"`
}

// User is a partial GitHub user document
type User struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

// stargazer is one entry of the star+json stargazers listing
type stargazer struct {
	StarredAt time.Time `json:"starred_at"`
	User      User      `json:"user"`
}

func (s stargazer) star() reconcile.Star {
	return reconcile.Star{StarredAt: s.StarredAt.UTC(), UserID: s.User.ID, Login: s.User.Login}
}

// issue is one entry of the issues listing; pull requests carry a pull_request object
type issue struct {
	Number      int             `json:"number"`
	State       string          `json:"state"`
	CreatedAt   time.Time       `json:"created_at"`
	ClosedAt    *time.Time      `json:"closed_at"`
	PullRequest json.RawMessage `json:"pull_request"`
}

func (i issue) record() reconcile.Issue {
	out := reconcile.Issue{
		Number:    i.Number,
		CreatedAt: i.CreatedAt.UTC(),
		IsPR:      len(i.PullRequest) > 0 && string(i.PullRequest) != "null",
		State:     i.State,
	}
	if i.ClosedAt != nil {
		c := i.ClosedAt.UTC()
		out.ClosedAt = &c
	}
	return out
}

// commitWeek is one entry of stats/commit_activity
type commitWeek struct {
	Week  int64 `json:"week"`
	Total int   `json:"total"`
	Days  []int `json:"days"`
}

func (w commitWeek) count() series.WeekCount {
	return series.WeekCount{Week: time.Unix(w.Week, 0).UTC(), Count: w.Total}
}

// codeWeek is one [week, additions, deletions] triple of stats/code_frequency; deletions are negative
type codeWeek [3]int64

func (w codeWeek) delta() series.WeekDelta {
	del := w[2]
	if del < 0 {
		del = -del
	}
	return series.WeekDelta{Week: time.Unix(w[0], 0).UTC(), Additions: int(w[1]), Deletions: int(del)}
}
