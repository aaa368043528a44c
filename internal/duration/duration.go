package duration

import (
	"regexp"
	"strconv"
	"strings"
)

var tokenRe = regexp.MustCompile(`(?i)(\d+)\s*(seconds?|secs?|minutes?|mins?|hours?|hrs?|days?)\b`)

// Parse sums every "<n> <unit>" token in s. ok is false when no token matched.
func Parse(s string) (seconds int, ok bool) {
	for _, m := range tokenRe.FindAllStringSubmatch(s, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		seconds += n * unitSeconds(m[2])
		ok = true
	}
	return seconds, ok
}

func unitSeconds(unit string) int {
	u := strings.ToLower(unit)
	switch {
	case strings.HasPrefix(u, "d"):
		return 86400
	case strings.HasPrefix(u, "h"):
		return 3600
	case strings.HasPrefix(u, "m"):
		return 60
	default:
		return 1
	}
}

// Precision is a display string and the seconds derived from it.
type Precision struct {
	Text    string
	Seconds int
	OK      bool // Seconds is meaningful
}

// MergePrecision prefers precise when it parses to a positive count;
// the override replaces both text and seconds.
func MergePrecision(coarse, precise string) Precision {
	if p := strings.TrimSpace(precise); p != "" {
		if secs, ok := Parse(p); ok && secs > 0 {
			return Precision{Text: p, Seconds: secs, OK: true}
		}
	}
	c := strings.TrimSpace(coarse)
	secs, ok := Parse(c)
	return Precision{Text: c, Seconds: secs, OK: ok}
}
