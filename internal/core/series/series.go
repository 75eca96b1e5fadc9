// Package series turns reconciled records into (timestamp, value) points
package series

import (
	"slices"
	"time"
)

// Point is one sample of a series
type Point struct {
	At    time.Time
	Value int
}

// Span is the open interval of an issue or pull request; Closed is nil while open
type Span struct {
	Opened time.Time
	Closed *time.Time
}

// OpenCount emits one point per open/close event with the running number of open spans.
// Events at the same instant keep their input order.
func OpenCount(spans []Span) []Point {
	type event struct {
		at    time.Time
		delta int
	}
	events := make([]event, 0, 2*len(spans))
	for _, s := range spans {
		events = append(events, event{s.Opened, +1})
		if s.Closed != nil {
			events = append(events, event{*s.Closed, -1})
		}
	}
	slices.SortStableFunc(events, func(a, b event) int { return a.at.Compare(b.at) })

	out := make([]Point, len(events))
	n := 0
	for i, e := range events {
		n += e.delta
		out[i] = Point{At: e.at, Value: n}
	}
	return out
}

// Cumulative ranks timestamps ascending, 1-based
func Cumulative(times []time.Time) []Point {
	sorted := slices.Clone(times)
	slices.SortStableFunc(sorted, time.Time.Compare)
	out := make([]Point, len(sorted))
	for i, t := range sorted {
		out[i] = Point{At: t, Value: i + 1}
	}
	return out
}

// WeekCount is a per-week total such as commit activity
type WeekCount struct {
	Week  time.Time
	Count int
}

// Weekly emits one point per week in week order
func Weekly(in []WeekCount) []Point {
	sorted := slices.Clone(in)
	slices.SortStableFunc(sorted, func(a, b WeekCount) int { return a.Week.Compare(b.Week) })
	out := make([]Point, len(sorted))
	for i, w := range sorted {
		out[i] = Point{At: w.Week, Value: w.Count}
	}
	return out
}

// WeekDelta is one week of code frequency; both fields are non-negative line counts
type WeekDelta struct {
	Week      time.Time
	Additions int
	Deletions int
}

// CodeSize is the running total of additions minus deletions
func CodeSize(in []WeekDelta) []Point {
	sorted := slices.Clone(in)
	slices.SortStableFunc(sorted, func(a, b WeekDelta) int { return a.Week.Compare(b.Week) })
	out := make([]Point, len(sorted))
	size := 0
	for i, w := range sorted {
		size += w.Additions - w.Deletions
		out[i] = Point{At: w.Week, Value: size}
	}
	return out
}

// Max returns the largest value, 0 for an empty series
func Max(pts []Point) int {
	m := 0
	for i, p := range pts {
		if i == 0 || p.Value > m {
			m = p.Value
		}
	}
	return m
}
