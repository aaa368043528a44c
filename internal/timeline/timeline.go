package timeline

import (
	"sort"
	"time"

	"github.com/quickshoe/Replit-Export-sub000/internal/feed"
)

// Assemble drops noise, orders events by source position and reindexes
// them 0..n-1. It returns the number of noise events dropped.
func Assemble(events []feed.Event) ([]feed.Event, int) {
	out := make([]feed.Event, 0, len(events))
	noise := 0
	for _, e := range events {
		if e.Kind == feed.KindNoise {
			noise++
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Position < out[j].Position
	})
	for i := range out {
		out[i].Position = i
	}
	return out, noise
}

// Repair clamps any timestamp earlier than the running high-water mark to
// that mark, in place, and returns how many events were rewritten. Zero
// timestamps are neither changed nor considered.
func Repair(events []feed.Event) int {
	var high time.Time
	repaired := 0
	for i := range events {
		ts := events[i].Timestamp
		if ts.IsZero() {
			continue
		}
		if !high.IsZero() && ts.Before(high) {
			events[i].Timestamp = high
			repaired++
			continue
		}
		high = ts
	}
	return repaired
}

// Monotonic reports whether every pair of non-zero timestamps is ordered.
func Monotonic(events []feed.Event) bool {
	var prev time.Time
	for _, e := range events {
		if e.Timestamp.IsZero() {
			continue
		}
		if !prev.IsZero() && e.Timestamp.Before(prev) {
			return false
		}
		prev = e.Timestamp
	}
	return true
}

// Bounds returns the first and last non-zero timestamps.
func Bounds(events []feed.Event) (first, last time.Time) {
	for _, e := range events {
		if e.Timestamp.IsZero() {
			continue
		}
		if first.IsZero() {
			first = e.Timestamp
		}
		last = e.Timestamp
	}
	return first, last
}
