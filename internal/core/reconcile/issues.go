package reconcile

import (
	"iter"
	"slices"
	"time"
)

// SinceSkew is added to the watermark so the boundary record is not fetched again
const SinceSkew = time.Second

// MinLifetime filters issues closed this soon after creation; imports produce them
const MinLifetime = 60 * time.Second

// Issue is one issue or pull request; Number is its stable identity
type Issue struct {
	Number    int
	CreatedAt time.Time
	ClosedAt  *time.Time
	IsPR      bool
	State     string
}

// IssueSource fetches issues updated at or after since (nil means everything), ascending by number
type IssueSource func(since *time.Time) iter.Seq2[Issue, error]

// IssueResult is the merged ascending list and the watermark to persist with it
type IssueResult struct {
	Issues  []Issue
	Since   *time.Time
	Added   int
	Updated int
	Fetched int
}

// Changed reports whether the snapshot must be rewritten
func (r IssueResult) Changed() bool { return r.Fetched > 0 }

// Issues merges a fetch scoped by the cached watermark into cached.
// startedAt is when the fetch began; it becomes the new watermark when anything was fetched.
func Issues(cached []Issue, since *time.Time, startedAt time.Time, fetch IssueSource) (IssueResult, error) {
	var query *time.Time
	if len(cached) > 0 && since != nil {
		q := since.Add(SinceSkew)
		query = &q
	}

	idx := make(map[int]int, len(cached))
	for i, is := range cached {
		idx[is.Number] = i
	}

	res := IssueResult{Since: since}
	fresh := make(map[int]Issue)
	for is, err := range fetch(query) {
		if err != nil {
			return IssueResult{}, err
		}
		res.Fetched++
		if _, dup := fresh[is.Number]; !dup {
			if _, ok := idx[is.Number]; ok {
				res.Updated++
			} else {
				res.Added++
			}
		}
		fresh[is.Number] = is
	}

	if res.Fetched == 0 {
		res.Issues = cached
		return res, nil
	}

	out := make([]Issue, 0, len(cached)+res.Added)
	for _, is := range cached {
		if _, replaced := fresh[is.Number]; !replaced {
			out = append(out, is)
		}
	}
	for _, is := range fresh {
		out = append(out, is)
	}
	slices.SortFunc(out, func(a, b Issue) int { return a.Number - b.Number })

	next := startedAt
	if since != nil && since.After(next) {
		next = *since
	}
	res.Issues = out
	res.Since = &next
	return res, nil
}

// Filter keeps pull requests or issues only and drops immediately closed records
func Filter(all []Issue, pulls bool) []Issue {
	var out []Issue
	for _, is := range all {
		if is.IsPR != pulls {
			continue
		}
		if is.ClosedAt != nil && is.ClosedAt.Sub(is.CreatedAt) < MinLifetime {
			continue
		}
		out = append(out, is)
	}
	return out
}
