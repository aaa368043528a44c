package correlate

import (
	"errors"
	"regexp"
	"sort"
	"time"

	"github.com/quickshoe/Replit-Export-sub000/internal/feed"
)

// DefaultWindow is how far apart a checkpoint and its commit may be.
const DefaultWindow = 3 * time.Minute

var ErrInvalidWindow = errors.New("commit window must not be negative")

var (
	savedProgressRe = regexp.MustCompile(`(?i)^\s*saved progress\b`)
	transitionedRe  = regexp.MustCompile(`(?i)\btransitioned\b.*\bmode\b`)
)

// Options configures matching.
type Options struct {
	Window    time.Duration
	Adjacency bool // allow the work-commit-then-autosave fallback
}

func DefaultOptions() Options {
	return Options{Window: DefaultWindow, Adjacency: true}
}

// IsGeneric reports whether a checkpoint description is the auto-generated
// "Saved progress" text that a commit message could replace.
func IsGeneric(description string) bool {
	return savedProgressRe.MatchString(description)
}

// IsBoilerplate reports whether a commit message carries no information
// beyond what the checkpoint already says.
func IsBoilerplate(message string) bool {
	return savedProgressRe.MatchString(message) || transitionedRe.MatchString(message)
}

// Match records one checkpoint-to-commit attribution.
type Match struct {
	Event    int // index into the events slice
	Commit   feed.CommitRecord
	Adjacent bool // found through the autosave fallback
}

// Correlate rewrites generic checkpoint descriptions in place with the
// subject of the commit made at the same moment. Each commit is used at
// most once; the newest checkpoints claim commits first. Timestamps are
// never modified.
func Correlate(events []feed.Event, commits []feed.CommitRecord, opts Options) ([]Match, error) {
	if opts.Window < 0 {
		return nil, ErrInvalidWindow
	}

	var cands []int
	for i, e := range events {
		if e.Kind == feed.KindCheckpoint && !e.Timestamp.IsZero() && IsGeneric(e.Description) {
			cands = append(cands, i)
		}
	}
	sort.SliceStable(cands, func(a, b int) bool {
		return events[cands[a]].Timestamp.After(events[cands[b]].Timestamp)
	})

	scan := chronological(commits)
	used := make([]bool, len(scan))
	var matches []Match

	for _, i := range cands {
		at := events[i].Timestamp
		k, adjacent := nearest(scan, used, at, opts.Window), false
		if k < 0 && opts.Adjacency {
			k, adjacent = adjacentTo(scan, used, at, opts.Window), true
		}
		if k < 0 {
			continue
		}
		used[k] = true
		events[i].Description = scan[k].Subject()
		events[i].Correlated = true
		matches = append(matches, Match{Event: i, Commit: scan[k], Adjacent: adjacent})
	}
	return matches, nil
}

// chronological orders commits oldest first; undated commits go last.
func chronological(commits []feed.CommitRecord) []feed.CommitRecord {
	out := make([]feed.CommitRecord, len(commits))
	copy(out, commits)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Timestamp, out[j].Timestamp
		if a.IsZero() != b.IsZero() {
			return b.IsZero()
		}
		return a.Before(b)
	})
	return out
}

func within(c feed.CommitRecord, at time.Time, window time.Duration) bool {
	if c.Timestamp.IsZero() {
		return false
	}
	return absDur(c.Timestamp.Sub(at)) <= window
}

func nearest(scan []feed.CommitRecord, used []bool, at time.Time, window time.Duration) int {
	best := -1
	var bestDist time.Duration
	for k, c := range scan {
		if !usable(c, used[k]) || !within(c, at, window) {
			continue
		}
		d := absDur(c.Timestamp.Sub(at))
		if best < 0 || d < bestDist {
			best, bestDist = k, d
		}
	}
	return best
}

// adjacentTo finds a real commit immediately followed by an autosave
// commit that falls inside the window.
func adjacentTo(scan []feed.CommitRecord, used []bool, at time.Time, window time.Duration) int {
	for k := 0; k+1 < len(scan); k++ {
		c, next := scan[k], scan[k+1]
		if !usable(c, used[k]) {
			continue
		}
		if savedProgressRe.MatchString(next.Message) && within(next, at, window) {
			return k
		}
	}
	return -1
}

func usable(c feed.CommitRecord, used bool) bool {
	return !used && c.Subject() != "" && !IsBoilerplate(c.Message)
}

func absDur(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
