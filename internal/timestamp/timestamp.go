package timestamp

import (
	"regexp"
	"strings"
	"time"

	"github.com/quickshoe/Replit-Export-sub000/internal/feed"
	"github.com/quickshoe/Replit-Export-sub000/internal/normalize"
)

// DefaultSiblingLookahead bounds how many following siblings a message
// may borrow its timestamp from.
const DefaultSiblingLookahead = 3

// absoluteRe matches "3:04 pm, Jan 2, 2025" with optional commas.
var absoluteRe = regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})\s*([ap])\.?m\.?,?\s+([a-z]{3})[a-z]*\.?\s+(\d{1,2}),?\s+(\d{4})\b`)

// Resolver turns node markup into absolute instants.
type Resolver struct {
	Location         *time.Location
	SiblingLookahead int
}

// New returns a resolver interpreting wall-clock fragments in loc.
func New(loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{Location: loc, SiblingLookahead: DefaultSiblingLookahead}
}

// Resolve returns the node's timestamp, or last when the node has none.
// Work entries never carry their own timestamp.
func (r *Resolver) Resolve(node feed.RawNode, kind feed.Kind, last time.Time) time.Time {
	switch kind {
	case feed.KindWork:
		return last
	case feed.KindCheckpoint:
		if ts, ok := r.FromFragment(node.Own()); ok {
			return ts
		}
		return last
	case feed.KindMessage:
		if ts, ok := r.FromFragment(node.Own()); ok {
			return ts
		}
		n := r.SiblingLookahead
		if n <= 0 {
			n = DefaultSiblingLookahead
		}
		for i, sib := range node.Siblings {
			if i >= n {
				break
			}
			if ts, ok := r.FromFragment(sib); ok {
				return ts
			}
		}
		return last
	}
	return last
}

// FromFragment walks the fallback chain: absolute text fragment, dedicated
// timestamp descendant, generic time element.
func (r *Resolver) FromFragment(f feed.Fragment) (time.Time, bool) {
	if ts, ok := r.ParseAbsolute(f.Text); ok {
		return ts, true
	}
	for _, s := range f.TimestampTexts {
		if normalize.IsRelativeTime(s) {
			continue
		}
		if ts, ok := r.parseAny(s); ok {
			return ts, true
		}
	}
	for _, el := range f.TimeElements {
		if ts, ok := ParseMachine(el.Datetime, r.Location); ok {
			return ts, true
		}
		if normalize.IsRelativeTime(el.Text) {
			continue
		}
		if ts, ok := r.parseAny(el.Text); ok {
			return ts, true
		}
	}
	return time.Time{}, false
}

func (r *Resolver) parseAny(s string) (time.Time, bool) {
	if ts, ok := r.ParseAbsolute(s); ok {
		return ts, true
	}
	return ParseMachine(s, r.Location)
}

// ParseAbsolute finds the first "h:mm am/pm, Mon D, YYYY" fragment in s.
func (r *Resolver) ParseAbsolute(s string) (time.Time, bool) {
	m := absoluteRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	mon := strings.ToUpper(m[4][:1]) + strings.ToLower(m[4][1:])
	norm := m[1] + ":" + m[2] + " " + strings.ToLower(m[3]) + "m " + mon + " " + m[5] + " " + m[6]
	ts, err := time.ParseInLocation("3:04 pm Jan 2 2006", norm, loc)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

var machineLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// ParseMachine parses an ISO-8601 style timestamp. Values without a zone
// are taken to be in loc (UTC when nil).
func ParseMachine(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range machineLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Carry advances the carried-forward timestamp only when resolved is
// newer or equal; an older value never rewinds it.
func Carry(last, resolved time.Time) time.Time {
	if resolved.IsZero() {
		return last
	}
	if last.IsZero() || !resolved.Before(last) {
		return resolved
	}
	return last
}
