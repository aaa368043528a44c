package feed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in    string
		cents int64
		text  string
		ok    bool
	}{
		{"$12.34", 1234, "$12.34", true},
		{"$1,234.5", 123450, "$1,234.5", true},
		{"0.07", 7, "$0.07", true},
		{"$3", 300, "$3", true},
		{"$", 0, "", false},
		{"abc", 0, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, ok := ParseMoney(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.cents, m.Cents)
			assert.Equal(t, tt.text, m.Text)
		})
	}
}

func TestCommitSubject(t *testing.T) {
	assert.Equal(t, "Fixed bug", CommitRecord{Message: "\n  Fixed bug  \n\nbody"}.Subject())
	assert.Equal(t, "", CommitRecord{Message: " \n "}.Subject())
}

func TestHasHint(t *testing.T) {
	n := RawNode{Hints: []string{" User "}}
	assert.True(t, n.HasHint(HintUserMarker, HintUser))
	assert.False(t, n.HasHint(HintCheckpoint))
	assert.Equal(t, "", n.Attr(AttrCheckpoint))
}

func TestEventText(t *testing.T) {
	secs, actions, added := 60, 3, 10
	e := Event{
		Kind:            KindWork,
		TimeWorkedText:  "1 minute",
		DurationSeconds: &secs,
		ActionsCount:    &actions,
		CodeAdded:       &added,
		UsageCost:       &Money{Cents: 12, Text: "$0.12"},
	}
	assert.Equal(t, "Worked for 1 minute, 3 actions, +10 -0, $0.12", e.Text())
	assert.Equal(t, "hi", Event{Kind: KindMessage, Content: "hi"}.Text())
	assert.Equal(t, "", Event{Kind: KindNoise, Content: "x"}.Text())
}

func TestSliceAccessor(t *testing.T) {
	acc := SliceAccessor{{Text: "a"}, {Text: "b"}}
	n, err := acc.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	node, err := acc.Read(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "b", node.Text)

	_, err = acc.Read(context.Background(), 2)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = acc.Read(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}
