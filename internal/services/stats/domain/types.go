// Package domain holds the stats service contracts and DTOs
package domain

import (
	"strings"
	"time"

	"ghrepostats/internal/adapters/github"
	"ghrepostats/internal/core/series"
	perr "ghrepostats/internal/platform/errors"
)

// Kind is the statistic to compute
type Kind string

// Supported statistics
const (
	KindIssues        Kind = "issues"
	KindPRs           Kind = "prs"
	KindStars         Kind = "stars"
	KindCommits       Kind = "commits"
	KindCodeFrequency Kind = "code-frequency"
	KindIssueLifetime Kind = "issue-lifetime"
	KindPRLifetime    Kind = "pr-lifetime"
	KindDependents    Kind = "dependents"
)

// Kinds lists every statistic in help order
var Kinds = []Kind{
	KindIssues, KindPRs, KindStars, KindCommits, KindCodeFrequency,
	KindIssueLifetime, KindPRLifetime, KindDependents,
}

var titles = map[Kind]string{
	KindIssues:        "Number of open issues over time",
	KindPRs:           "Number of open pull requests over time",
	KindStars:         "Number of stargazers over time",
	KindCommits:       "Number of commits per week",
	KindCodeFrequency: "Code size over time (lines)",
	KindIssueLifetime: "Average issue lifetime per week (days)",
	KindPRLifetime:    "Average pull request lifetime per week (days)",
	KindDependents:    "Dependents",
}

// ParseKind matches s case-insensitively against Kinds
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := titles[k]; ok {
		return k, nil
	}
	names := make([]string, len(Kinds))
	for i, k := range Kinds {
		names[i] = string(k)
	}
	return "", perr.InvalidArgf("Invalid command %s. Supported commands: %s", s, strings.Join(names, ", "))
}

// Title is the human readable chart heading
func (k Kind) Title() string { return titles[k] }

// Cached reports whether the kind is served from a reconciled snapshot
func (k Kind) Cached() bool {
	switch k {
	case KindIssues, KindPRs, KindStars, KindIssueLifetime, KindPRLifetime:
		return true
	}
	return false
}

// Pulls reports whether an issue kind looks at pull requests
func (k Kind) Pulls() bool { return k == KindPRs || k == KindPRLifetime }

// DependentsRequest bounds the dependents scrape
type DependentsRequest struct {
	Kind     string `json:"kind" validate:"omitempty,oneof=repository package"`
	MinStars int    `json:"min_stars" validate:"min=0"`
	MaxPages int    `json:"max_pages" validate:"min=0"`
}

// Request asks for one statistic of one repository
type Request struct {
	Repo       string            `json:"repo" validate:"required,repo_full_name"`
	Kind       Kind              `json:"kind" validate:"required,oneof=issues prs stars commits code-frequency issue-lifetime pr-lifetime dependents"`
	Dependents DependentsRequest `json:"dependents"`
}

// RunStats reports what reconciliation did
type RunStats struct {
	Added        int  `json:"added"`
	Removed      int  `json:"removed"`
	Updated      int  `json:"updated"`
	Scanned      int  `json:"scanned"`
	Replayed     bool `json:"replayed"`
	CacheWritten bool `json:"cache_written"`
}

// Result is a computed statistic; Points is empty for dependents
type Result struct {
	Repo       string
	Kind       Kind
	Title      string
	Points     []series.Point
	Dependents *github.Dependents
	Stats      RunStats
}

// SeriesQuery is the API path and query input
type SeriesQuery struct {
	Repo   string `json:"repo" validate:"required,repo_full_name"`
	Kind   Kind   `json:"kind" validate:"required,oneof=issues prs stars issue-lifetime pr-lifetime"`
	Format string `json:"format" validate:"omitempty,oneof=json csv png"`
}

// PointDTO is the JSON shape of one sample
type PointDTO struct {
	At    time.Time `json:"at"`
	Value int       `json:"value"`
}

// SeriesDTO is the JSON body of the series endpoint
type SeriesDTO struct {
	Repo   string     `json:"repo"`
	Kind   Kind       `json:"kind"`
	Title  string     `json:"title"`
	Points []PointDTO `json:"points"`
}

// ToDTO converts a Result for the API
func (r Result) ToDTO() SeriesDTO {
	pts := make([]PointDTO, len(r.Points))
	for i, p := range r.Points {
		pts[i] = PointDTO{At: p.At, Value: p.Value}
	}
	return SeriesDTO{Repo: r.Repo, Kind: r.Kind, Title: r.Title, Points: pts}
}
