package series

import (
	"time"
)

// Week is the slot width of WeeklyLifetime
const Week = 7 * 24 * time.Hour

const day = 24 * time.Hour

// WeeklyLifetime averages, per 7-day slot from the earliest opening up to now,
// the lifetime in whole days of every span opened in that slot or earlier.
// Open spans age up to the slot end (now, for the current slot); closed spans
// contribute their final lifetime once the close falls before the slot end.
func WeeklyLifetime(spans []Span, now time.Time) []Point {
	if len(spans) == 0 {
		return nil
	}
	start := spans[0].Opened
	for _, s := range spans[1:] {
		if s.Opened.Before(start) {
			start = s.Opened
		}
	}
	if now.Before(start) {
		return nil
	}

	slots := int(now.Sub(start)/Week) + 1
	out := make([]Point, 0, slots)
	for i := range slots {
		slotStart := start.Add(time.Duration(i) * Week)
		end := slotStart.Add(Week)
		if end.After(now) {
			end = now
		}

		total, count := 0, 0
		for _, s := range spans {
			if int(s.Opened.Sub(start)/Week) > i {
				continue
			}
			until := end
			if s.Closed != nil && s.Closed.Before(end) {
				until = *s.Closed
			}
			if d := until.Sub(s.Opened); d > 0 {
				total += int(d / day)
			}
			count++
		}
		if count == 0 {
			continue
		}
		out = append(out, Point{At: slotStart, Value: total / count})
	}
	return out
}
