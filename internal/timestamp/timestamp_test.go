package timestamp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickshoe/Replit-Export-sub000/internal/feed"
)

func at(h, m int) time.Time {
	return time.Date(2025, time.March, 14, h, m, 0, 0, time.UTC)
}

func TestParseAbsolute(t *testing.T) {
	r := New(time.UTC)
	tests := []struct {
		in   string
		want time.Time
	}{
		{"Checkpoint made 3:04 pm, Mar 14, 2025", at(15, 4)},
		{"10:05 AM, Mar 14, 2025", at(10, 5)},
		{"12:30 am Mar 14 2025", at(0, 30)},
		{"at 9:00 p.m., March 14, 2025 we shipped", at(21, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := r.ParseAbsolute(tt.in)
			require.True(t, ok)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	_, ok := r.ParseAbsolute("4 hours ago")
	assert.False(t, ok)
}

func TestParseAbsoluteLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	got, ok := New(loc).ParseAbsolute("3:04 pm, Mar 14, 2025")
	require.True(t, ok)
	assert.Equal(t, at(20, 4), got.UTC())
}

func TestParseMachine(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2025-03-14T10:00:00Z", at(10, 0), true},
		{"2025-03-14T10:00:00+01:00", at(9, 0), true},
		{"2025-03-14T10:00:00", at(15, 0), true},
		{"2025-03-14 10:00:00", at(15, 0), true},
		{"2025-03-14T10:00", at(15, 0), true},
		{"yesterday", time.Time{}, false},
		{"  ", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseMachine(tt.in, loc)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestResolveTimeElementUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	node := feed.RawNode{Text: "Checkpoint made", TimeElements: []feed.TimeElement{{Datetime: "2025-03-14T10:00:00"}}}
	got := New(loc).Resolve(node, feed.KindCheckpoint, time.Time{})
	assert.Equal(t, at(15, 0), got.UTC())
}

func TestResolveCheckpointFallbackChain(t *testing.T) {
	r := New(time.UTC)
	last := at(8, 0)

	node := feed.RawNode{Text: "Checkpoint made 3:04 pm, Mar 14, 2025", TimestampTexts: []string{"10:00 am, Mar 14, 2025"}}
	assert.Equal(t, at(15, 4), r.Resolve(node, feed.KindCheckpoint, last))

	node = feed.RawNode{Text: "Checkpoint made", TimestampTexts: []string{"2 hours ago", "10:00 am, Mar 14, 2025"}}
	assert.Equal(t, at(10, 0), r.Resolve(node, feed.KindCheckpoint, last))

	node = feed.RawNode{Text: "Checkpoint made", TimeElements: []feed.TimeElement{{Datetime: "2025-03-14T11:15:00Z"}}}
	assert.Equal(t, at(11, 15), r.Resolve(node, feed.KindCheckpoint, last))

	node = feed.RawNode{Text: "Checkpoint made", TimeElements: []feed.TimeElement{{Text: "11:20 am, Mar 14, 2025"}}}
	assert.Equal(t, at(11, 20), r.Resolve(node, feed.KindCheckpoint, last))

	node = feed.RawNode{Text: "Checkpoint made", TimestampTexts: []string{"5 minutes ago"}}
	assert.Equal(t, last, r.Resolve(node, feed.KindCheckpoint, last))
}

func TestResolveCheckpointIgnoresSiblings(t *testing.T) {
	r := New(time.UTC)
	node := feed.RawNode{
		Text:     "Checkpoint made",
		Siblings: []feed.Fragment{{Text: "10:00 am, Mar 14, 2025"}},
	}
	assert.True(t, r.Resolve(node, feed.KindCheckpoint, time.Time{}).IsZero())
}

func TestResolveMessageSiblings(t *testing.T) {
	r := New(time.UTC)
	last := at(8, 0)
	node := feed.RawNode{
		Text: "Please add a login page",
		Siblings: []feed.Fragment{
			{Text: "Edit"},
			{TimestampTexts: []string{"1 hour ago"}},
			{TimeElements: []feed.TimeElement{{Datetime: "2025-03-14T09:30:00Z"}}},
		},
	}
	assert.Equal(t, at(9, 30), r.Resolve(node, feed.KindMessage, last))

	node.Siblings = append([]feed.Fragment{{}, {}, {}}, node.Siblings...)
	assert.Equal(t, last, r.Resolve(node, feed.KindMessage, last), "only three siblings are inspected")
}

func TestResolveWorkInherits(t *testing.T) {
	r := New(time.UTC)
	node := feed.RawNode{Text: "Worked for 3 minutes 10:00 am, Mar 14, 2025"}
	assert.Equal(t, at(8, 0), r.Resolve(node, feed.KindWork, at(8, 0)))
}

func TestCarry(t *testing.T) {
	assert.Equal(t, at(9, 0), Carry(at(8, 0), at(9, 0)))
	assert.Equal(t, at(9, 0), Carry(at(9, 0), at(8, 0)), "older value must not rewind")
	assert.Equal(t, at(9, 0), Carry(at(9, 0), at(9, 0)))
	assert.Equal(t, at(9, 0), Carry(at(9, 0), time.Time{}))
	assert.Equal(t, at(7, 0), Carry(time.Time{}, at(7, 0)))
}
