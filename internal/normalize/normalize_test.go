package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickshoe/Replit-Export-sub000/internal/feed"
)

func msg(content string) feed.Event {
	return feed.Event{Kind: feed.KindMessage, Role: feed.RoleAgent, Content: content}
}

func contents(events []feed.Event) []string {
	var out []string
	for _, e := range events {
		out = append(out, e.Text())
	}
	return out
}

func TestStripRelativeTime(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Fix the login page 4 hours ago", "Fix the login page"},
		{"4 hours ago Fix the login page", "Fix the login page"},
		{"1 minute ago • Fix it please", "Fix it please"},
		{"Deploy now\n2 days ago", "Deploy now"},
		{"no suffix here", "no suffix here"},
		{"ago is a word", "ago is a word"},
		{"3 weeks ago", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, StripRelativeTime(tt.in))
		})
	}
}

func TestIsRelativeTime(t *testing.T) {
	assert.True(t, IsRelativeTime("5 minutes ago"))
	assert.True(t, IsRelativeTime(" 1 year ago "))
	assert.False(t, IsRelativeTime("3:04 pm, Jan 2, 2025"))
	assert.False(t, IsRelativeTime("updated 5 minutes ago"))
}

func TestCollapseSpace(t *testing.T) {
	assert.Equal(t, "a b\nc", CollapseSpace("  a \t  b \n\n   c  "))
}

func TestDedupeSubstringAndDuplicates(t *testing.T) {
	kept, dropped := Dedupe([]feed.Event{msg("hi"), msg("hi there"), msg("hi")})
	assert.Equal(t, []string{"hi there"}, contents(kept))
	assert.Equal(t, 2, dropped)
}

func TestDedupeKeepsFirstExactDuplicate(t *testing.T) {
	first := msg("same text")
	first.Position = 1
	second := msg("same text")
	second.Position = 7
	kept, dropped := Dedupe([]feed.Event{first, second})
	require.Len(t, kept, 1)
	assert.Equal(t, 1, kept[0].Position)
	assert.Equal(t, 1, dropped)
}

func TestDedupeIgnoresNonMessages(t *testing.T) {
	cp := feed.Event{Kind: feed.KindCheckpoint, Description: "Saved progress"}
	kept, dropped := Dedupe([]feed.Event{cp, msg("Saved progress at the end of the loop"), cp})
	assert.Len(t, kept, 3)
	assert.Zero(t, dropped)
}

func TestDedupePreservesOrder(t *testing.T) {
	in := []feed.Event{msg("alpha one"), msg("bravo two"), msg("alpha"), msg("charlie three")}
	kept, _ := Dedupe(in)
	assert.Equal(t, []string{"alpha one", "bravo two", "charlie three"}, contents(kept))
}

func TestDedupeMatchesPairwiseRule(t *testing.T) {
	in := []feed.Event{
		msg("abc"), msg("abcd"), msg("bcd"), msg("abcde"), msg("xyz"), msg("abcd"), msg("y"),
	}
	kept, _ := Dedupe(in)
	assert.Equal(t, naive(in), contents(kept))
}

// naive is the quadratic reference implementation.
func naive(in []feed.Event) []string {
	var out []string
	for i, a := range in {
		drop := false
		for j, b := range in {
			if i == j {
				continue
			}
			if a.Content == b.Content && j < i {
				drop = true
			}
			if len(b.Content) > len(a.Content) && contains(b.Content, a.Content) {
				drop = true
			}
		}
		if !drop {
			out = append(out, a.Content)
		}
	}
	return out
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
