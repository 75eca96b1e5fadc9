package reconcile

import (
	"iter"
	"slices"
	"time"
)

// Star is one stargazer event; UserID is its stable identity
type Star struct {
	StarredAt time.Time
	UserID    int64
	Login     string
}

// StarSource is a remote stargazer read: most recent first, Total known up front
type StarSource struct {
	Total int
	Stars iter.Seq2[Star, error]
}

// StarResult is the reconciled ascending list plus what it took to get there
type StarResult struct {
	Stars    []Star
	Added    int
	Removed  int
	Scanned  int
	Replayed bool
}

// Changed reports whether the snapshot must be rewritten
func (r StarResult) Changed() bool { return r.Added > 0 || r.Removed > 0 }

// Stars reconciles an ascending cached list against a descending remote read.
//
// A cursor walks the cache from its tail while remote records are matched by
// identity. Cached entries skipped over by a match were removed remotely.
// Scanning stops once the unread remote count equals the cached prefix below
// the match. An identity that appears out of order, or with a different
// starred_at, means the cache cannot be trusted and the full remote read wins.
func Stars(cached []Star, src StarSource) (StarResult, error) {
	pos := make(map[int64]int, len(cached))
	for i, s := range cached {
		pos[s.UserID] = i
	}

	var (
		res     StarResult
		read    []Star
		tail    []Star
		seen    = make(map[int64]struct{})
		drop    = make([]bool, len(cached))
		cursor  = len(cached) - 1
		found   bool
		replay  bool
		trimmed int
	)
	trim := func(from, to int) {
		for i := from; i <= to; i++ {
			if !drop[i] {
				drop[i] = true
				trimmed++
			}
		}
	}

	for s, err := range src.Stars {
		if err != nil {
			return StarResult{}, err
		}
		res.Scanned++
		read = append(read, s)
		if replay {
			continue
		}

		at, known := pos[s.UserID]
		if !known {
			if _, dup := seen[s.UserID]; !dup {
				seen[s.UserID] = struct{}{}
				tail = append(tail, s)
			}
			continue
		}
		if at > cursor || !cached[at].StarredAt.Equal(s.StarredAt) {
			replay = true
			continue
		}

		trim(at+1, cursor)
		if at == src.Total-res.Scanned {
			found = true
			break
		}
		cursor = at - 1
	}

	if replay {
		return replayStars(cached, read, res.Scanned), nil
	}
	if !found {
		trim(0, cursor)
	}

	out := make([]Star, 0, len(cached)-trimmed+len(tail))
	for i, s := range cached {
		if !drop[i] {
			out = append(out, s)
		}
	}
	for i := len(tail) - 1; i >= 0; i-- {
		out = append(out, tail[i])
	}
	sortStars(out)

	res.Stars = out
	res.Added = len(tail)
	res.Removed = trimmed
	return res, nil
}

// replayStars rebuilds the list from everything read, ignoring the cache
func replayStars(cached, read []Star, scanned int) StarResult {
	old := make(map[int64]time.Time, len(cached))
	for _, s := range cached {
		old[s.UserID] = s.StarredAt
	}

	seen := make(map[int64]struct{}, len(read))
	out := make([]Star, 0, len(read))
	added := 0
	for i := range read {
		s := read[i]
		if _, dup := seen[s.UserID]; dup {
			continue
		}
		seen[s.UserID] = struct{}{}
		if at, ok := old[s.UserID]; !ok || !at.Equal(s.StarredAt) {
			added++
		}
		out = append(out, s)
	}
	removed := 0
	for _, s := range cached {
		if _, ok := seen[s.UserID]; !ok {
			removed++
		}
	}
	slices.Reverse(out)
	sortStars(out)

	return StarResult{
		Stars:    out,
		Added:    added,
		Removed:  removed,
		Scanned:  scanned,
		Replayed: true,
	}
}

func sortStars(s []Star) {
	slices.SortStableFunc(s, func(a, b Star) int { return a.StarredAt.Compare(b.StarredAt) })
}
