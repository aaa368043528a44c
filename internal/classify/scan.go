package classify

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/quickshoe/Replit-Export-sub000/internal/feed"
)

// Independent numeric scans over a work summary. Each is optional and a
// miss yields nil, never zero.
var (
	actionsRe   = regexp.MustCompile(`(?i)\b(\d[\d,]*)\s+actions?\b`)
	linesReadRe = regexp.MustCompile(`(?i)(?:\b(\d[\d,]*)\s+lines?\s+read\b|\bitems\s+read\s*:?\s*(\d[\d,]*))`)
	addedRe     = regexp.MustCompile(`(?:^|[\s(])\+(\d[\d,]*)\b`)
	removedRe   = regexp.MustCompile(`(?:^|[\s(])[-−–](\d[\d,]*)\b`)
	usageRe     = regexp.MustCompile(`(?i)\busage\b[^$\n]{0,20}\$\s*(\d[\d,]*(?:\.\d+)?)`)
	moneyRe     = regexp.MustCompile(`\$\s*(\d[\d,]*(?:\.\d+)?)`)
)

func scanInt(re *regexp.Regexp, text string) *int {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	for _, g := range m[1:] {
		if g == "" {
			continue
		}
		if n, ok := atoi(g); ok {
			return &n
		}
	}
	return nil
}

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return 0, false
	}
	return n, true
}

func scanCodeDelta(text string) (added, removed *int) {
	return scanInt(addedRe, text), scanInt(removedRe, text)
}

func scanUsage(text string) *feed.Money {
	if m := usageRe.FindStringSubmatch(text); m != nil {
		if money, ok := feed.ParseMoney(m[1]); ok {
			return &money
		}
	}
	return scanMoney(text)
}

func scanMoney(text string) *feed.Money {
	m := moneyRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	money, ok := feed.ParseMoney(m[1])
	if !ok {
		return nil
	}
	return &money
}
