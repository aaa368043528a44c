// Package classify assigns each captured node exactly one event kind.
//
// Rules are evaluated top to bottom and the first match wins:
//
//	work        "Worked for ..." summaries and end-of-run cards
//	checkpoint  checkpoint-flagged nodes or short text naming a Checkpoint
//	message     anything else with meaningful, non-boilerplate text
//	noise       the default
package classify

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/quickshoe/Replit-Export-sub000/internal/feed"
	"github.com/quickshoe/Replit-Export-sub000/internal/normalize"
)

// Options tunes the thresholds used by the rules.
type Options struct {
	CheckpointMaxLen int // text must be shorter than this to classify by keyword
	MinMessageLen    int // cleaned text shorter than this is noise
}

// DefaultOptions returns the thresholds observed to work on real feeds.
func DefaultOptions() Options {
	return Options{CheckpointMaxLen: 500, MinMessageLen: 5}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.CheckpointMaxLen <= 0 {
		o.CheckpointMaxLen = d.CheckpointMaxLen
	}
	if o.MinMessageLen <= 0 {
		o.MinMessageLen = d.MinMessageLen
	}
	return o
}

// Rule is one predicate in the cascade.
type Rule struct {
	Name  string
	Apply func(n feed.RawNode, opts Options) (feed.Event, bool)
}

// Rules is the ordered cascade. Order is significant.
var Rules = []Rule{
	{Name: "work", Apply: matchWork},
	{Name: "checkpoint", Apply: matchCheckpoint},
	{Name: "message", Apply: matchMessage},
}

// Classify maps a node to exactly one event. It never panics on
// malformed input; anything unrecognised is noise.
func Classify(n feed.RawNode, opts Options) (ev feed.Event) {
	opts = opts.withDefaults()
	defer func() {
		if recover() != nil {
			ev = feed.Event{Kind: feed.KindNoise}
		}
		ev.Position = n.Position
		ev.Line = n.Line
	}()
	for _, r := range Rules {
		if e, ok := r.Apply(n, opts); ok {
			return e
		}
	}
	return feed.Event{Kind: feed.KindNoise}
}

var (
	workedForRe  = regexp.MustCompile(`(?i)\bworked for\s+([^\n]+)`)
	timeWorkedRe = regexp.MustCompile(`(?i)\btime worked\s*:?\s*([^\n]+)`)
	durationRe   = regexp.MustCompile(`(?i)^((?:\d+\s*(?:seconds?|secs?|minutes?|mins?|hours?|hrs?|days?)\b[\s,]*(?:and\s+)?)+)`)
)

func matchWork(n feed.RawNode, opts Options) (feed.Event, bool) {
	m := workedForRe.FindStringSubmatch(n.Text)
	expandable := n.HasHint(feed.HintExpandableSummary, feed.HintExpandControl)
	if !(m != nil && expandable) && !n.HasHint(feed.HintEndOfRun) {
		return feed.Event{}, false
	}

	ev := feed.Event{Kind: feed.KindWork}
	if m == nil {
		m = timeWorkedRe.FindStringSubmatch(n.Text)
	}
	if m != nil {
		ev.TimeWorkedText = durationText(m[1])
	}
	ev.ActionsCount = scanInt(actionsRe, n.Text)
	ev.LinesRead = scanInt(linesReadRe, n.Text)
	ev.CodeAdded, ev.CodeRemoved = scanCodeDelta(n.Text)
	ev.UsageCost = scanUsage(n.Text)
	return ev, true
}

// durationText keeps only the leading "<n> <unit>" run of s.
func durationText(s string) string {
	s = strings.TrimSpace(s)
	if m := durationRe.FindString(s); m != "" {
		return strings.TrimRight(strings.TrimSpace(m), ",")
	}
	return s
}

var checkpointHeadRe = regexp.MustCompile(`(?i)^\s*checkpoint(?:\s+made)?\b[\s•·:,-]*`)

func matchCheckpoint(n feed.RawNode, opts Options) (feed.Event, bool) {
	flagged := n.HasHint(feed.HintCheckpoint) || n.Attr(feed.AttrCheckpoint) != ""
	if !flagged && !(strings.Contains(n.Text, "Checkpoint") && utf8.RuneCountInString(n.Text) < opts.CheckpointMaxLen) {
		return feed.Event{}, false
	}
	desc := checkpointDescription(n.Text)
	if desc == "" {
		desc = "Checkpoint"
	}
	return feed.Event{
		Kind:        feed.KindCheckpoint,
		Description: desc,
		Cost:        scanMoney(n.Text),
	}, true
}

func checkpointDescription(text string) string {
	s := absoluteTimeRe.ReplaceAllString(text, "")
	s = moneyRe.ReplaceAllString(s, "")
	var lines []string
	for _, line := range strings.Split(normalize.CollapseSpace(s), "\n") {
		line = normalize.StripRelativeTime(line)
		line = checkpointHeadRe.ReplaceAllString(line, "")
		line = strings.Trim(line, " •·:,-")
		if line == "" || strings.EqualFold(line, "rollback here") || strings.EqualFold(line, "changes") {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

var absoluteTimeRe = regexp.MustCompile(`(?i)\b\d{1,2}:\d{2}\s*[ap]\.?m\.?,?\s+[a-z]{3}[a-z]*\.?\s+\d{1,2},?\s+\d{4}\b`)

func matchMessage(n feed.RawNode, opts Options) (feed.Event, bool) {
	cleaned := normalize.CollapseSpace(normalize.StripRelativeTime(n.Text))
	role := feed.RoleAgent
	if n.HasHint(feed.HintUser, feed.HintUserMarker) {
		role = feed.RoleUser
	}

	var names []string
	if role == feed.RoleUser {
		for _, a := range n.Attachments {
			if a = strings.TrimSpace(a); a != "" {
				names = append(names, a)
			}
		}
	}

	substantial := utf8.RuneCountInString(cleaned) >= opts.MinMessageLen && !IsBoilerplate(cleaned)
	ev := feed.Event{Kind: feed.KindMessage, Role: role, Attachments: names}
	switch {
	case substantial && len(names) > 0:
		ev.Content = cleaned + "\n[Attached: " + strings.Join(names, ", ") + "]"
	case substantial:
		ev.Content = cleaned
	case len(names) > 0:
		ev.Content = strings.Join(names, ", ")
	default:
		return feed.Event{}, false
	}
	return ev, true
}

var (
	decidedOnRe = regexp.MustCompile(`(?i)^decided on\b`)
	denylist    = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^worked for\b`),
		regexp.MustCompile(`(?i)^\d+\s+actions?$`),
		regexp.MustCompile(`(?i)^created task list$`),
		regexp.MustCompile(`(?i)^ready to share\?\s*publish`),
	}
)

// IsBoilerplate reports whether cleaned text is pure progress chatter.
func IsBoilerplate(cleaned string) bool {
	s := strings.TrimSpace(cleaned)
	if decidedOnRe.MatchString(s) && utf8.RuneCountInString(s) < 100 {
		return true
	}
	for _, re := range denylist {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
