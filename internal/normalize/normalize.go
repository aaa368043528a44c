package normalize

import (
	"regexp"
	"sort"
	"strings"

	"github.com/quickshoe/Replit-Export-sub000/internal/feed"
)

const relUnits = `(?:second|minute|hour|day|week|month|year)s?`

var (
	leadingAgoRe  = regexp.MustCompile(`(?i)^\s*\d+\s+` + relUnits + `\s+ago\b[\s•·|,:-]*`)
	trailingAgoRe = regexp.MustCompile(`(?i)[\s•·|,:-]*\b\d+\s+` + relUnits + `\s+ago\s*$`)
	relativeRe    = regexp.MustCompile(`(?i)^\s*\d+\s+` + relUnits + `\s+ago\s*$`)
	spaceRe       = regexp.MustCompile(`[ \t]+`)
)

// StripRelativeTime removes a leading or trailing "N units ago" suffix.
func StripRelativeTime(s string) string {
	s = leadingAgoRe.ReplaceAllString(s, "")
	s = trailingAgoRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// IsRelativeTime reports whether s is nothing but a relative time phrase.
func IsRelativeTime(s string) bool {
	return relativeRe.MatchString(s)
}

// CollapseSpace squeezes runs of spaces and tabs and trims each line,
// dropping blank lines.
func CollapseSpace(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		l = strings.TrimSpace(spaceRe.ReplaceAllString(l, " "))
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// Dedupe drops repeated message content. Exact duplicates keep their first
// occurrence; a message contained in a strictly longer one is dropped.
// Non-message events pass through untouched. Order is preserved.
func Dedupe(events []feed.Event) (kept []feed.Event, dropped int) {
	var msgs []int
	for i, e := range events {
		if e.Kind == feed.KindMessage {
			msgs = append(msgs, i)
		}
	}

	// longest first, so each candidate only searches the prefix of
	// strictly longer contents
	byLen := make([]int, len(msgs))
	copy(byLen, msgs)
	sort.SliceStable(byLen, func(a, b int) bool {
		return len(events[byLen[a]].Content) > len(events[byLen[b]].Content)
	})

	drop := make(map[int]bool)
	firstSeen := make(map[string]int)
	for _, i := range msgs {
		c := events[i].Content
		if _, ok := firstSeen[c]; ok {
			drop[i] = true
			continue
		}
		firstSeen[c] = i
	}

	for k, i := range byLen {
		if drop[i] {
			continue
		}
		c := events[i].Content
		for _, j := range byLen[:k] {
			longer := events[j].Content
			if len(longer) <= len(c) {
				break
			}
			if strings.Contains(longer, c) {
				drop[i] = true
				break
			}
		}
	}

	kept = make([]feed.Event, 0, len(events)-len(drop))
	for i, e := range events {
		if drop[i] {
			continue
		}
		kept = append(kept, e)
	}
	return kept, len(drop)
}
