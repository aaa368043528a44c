package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/quickshoe/Replit-Export-sub000/internal/feed"
)

func TestWrapLine(t *testing.T) {
	assert.Equal(t, []string{"abc", "def", "g"}, wrapLine("abcdefg", 3))
	assert.Equal(t, []string{"登录", "页面"}, wrapLine("登录页面", 4))
	assert.Equal(t, []string{"\033[1mab", "c\033[0m"}, wrapLine("\033[1mabc\033[0m", 2))
	assert.Equal(t, []string{""}, wrapLine("", 5))
}

func TestHighlightKeywords(t *testing.T) {
	got := highlightKeywords("Fix LOGIN and login", "login AND")
	assert.Equal(t, "Fix "+colorBoldRed+"LOGIN"+colorReset+" and "+colorBoldRed+"login"+colorReset, got)
}

func TestTimeline(t *testing.T) {
	ts := time.Date(2025, 3, 14, 10, 2, 0, 0, time.UTC)
	secs := 120
	tl := feed.Timeline{Events: []feed.Event{
		{Kind: feed.KindMessage, Role: feed.RoleUser, Content: "please add a login page", Timestamp: ts},
		{Kind: feed.KindCheckpoint, Description: "Fixed bug", Correlated: true, Timestamp: ts,
			Cost: &feed.Money{Cents: 25, Text: "$0.25"}},
		{Kind: feed.KindWork, TimeWorkedText: "2 minutes", DurationSeconds: &secs},
	}}
	out := Timeline("demo", tl, Options{NoColor: true})

	assert.False(t, strings.Contains(out, "\033["))
	assert.Contains(t, out, "--- demo ---")
	assert.Contains(t, out, "USER > 2025-03-14 10:02")
	assert.Contains(t, out, "CHECKPOINT* > 2025-03-14 10:02")
	assert.Contains(t, out, "  Fixed bug\n  $0.25")
	assert.Contains(t, out, "WORK > --")
	assert.Contains(t, out, "  Worked for 2 minutes")

	assert.Equal(t, "(empty timeline)\n", Timeline("x", feed.Timeline{}, Options{}))
}

func TestStripANSI(t *testing.T) {
	assert.Equal(t, "abc", StripANSI("\033[1;31ma\033[0mbc"))
}
