package correlate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickshoe/Replit-Export-sub000/internal/feed"
)

func clock(h, m, s int) time.Time {
	return time.Date(2025, 3, 14, h, m, s, 0, time.UTC)
}

func checkpoint(desc string, at time.Time) feed.Event {
	return feed.Event{Kind: feed.KindCheckpoint, Description: desc, Timestamp: at}
}

func commit(msg string, at time.Time) feed.CommitRecord {
	return feed.CommitRecord{Message: msg, Timestamp: at}
}

func TestCorrelatePrefersRealCommitOverAutosave(t *testing.T) {
	events := []feed.Event{checkpoint("Saved progress at the end of the loop", clock(10, 0, 0))}
	commits := []feed.CommitRecord{
		commit("Fixed bug", clock(9, 59, 40)),
		commit("Saved progress at the end of the loop", clock(10, 0, 5)),
	}
	matches, err := Correlate(events, commits, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Fixed bug", events[0].Description)
	assert.True(t, events[0].Correlated)
	assert.Equal(t, clock(10, 0, 0), events[0].Timestamp, "timestamps are never rewritten")
}

func TestCorrelateOutsideWindowKeepsDescription(t *testing.T) {
	events := []feed.Event{checkpoint("Saved progress", clock(10, 0, 0))}
	commits := []feed.CommitRecord{commit("Fixed bug", clock(10, 5, 0))}
	matches, err := Correlate(events, commits, Options{Window: DefaultWindow})
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.Equal(t, "Saved progress", events[0].Description)
	assert.False(t, events[0].Correlated)
}

func TestCorrelateOnlyGenericCheckpoints(t *testing.T) {
	events := []feed.Event{checkpoint("Add login page", clock(10, 0, 0))}
	matches, err := Correlate(events, []feed.CommitRecord{commit("Fixed bug", clock(10, 0, 0))}, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.Equal(t, "Add login page", events[0].Description)
}

func TestCorrelateNewestCheckpointClaimsFirst(t *testing.T) {
	events := []feed.Event{
		checkpoint("Saved progress", clock(10, 0, 0)),
		checkpoint("Saved progress", clock(10, 2, 0)),
	}
	// one commit sits between both checkpoints and is closer to the older one
	commits := []feed.CommitRecord{commit("Shared commit", clock(10, 0, 50))}
	matches, err := Correlate(events, commits, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 1, matches[0].Event)
	assert.Equal(t, "Saved progress", events[0].Description)
	assert.Equal(t, "Shared commit", events[1].Description)
}

func TestCorrelateCommitUsedOnce(t *testing.T) {
	events := []feed.Event{
		checkpoint("Saved progress", clock(10, 0, 0)),
		checkpoint("Saved progress", clock(10, 0, 30)),
	}
	commits := []feed.CommitRecord{
		commit("Second\n\nbody text", clock(10, 0, 31)),
		commit("First", clock(9, 59, 58)),
	}
	_, err := Correlate(events, commits, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "Second", events[1].Description)
	assert.Equal(t, "First", events[0].Description)
}

func TestCorrelateAdjacencyFallback(t *testing.T) {
	events := []feed.Event{checkpoint("Saved progress", clock(10, 0, 0))}
	commits := []feed.CommitRecord{
		commit("Saved progress", clock(10, 0, 10)),
		commit("Transitioned from Plan to Build mode", clock(9, 40, 0)),
		commit("Refactor auth flow", clock(9, 50, 0)),
	}
	matches, err := Correlate(events, commits, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.True(t, matches[0].Adjacent)
	assert.Equal(t, "Refactor auth flow", events[0].Description)

	events = []feed.Event{checkpoint("Saved progress", clock(10, 0, 0))}
	matches, err = Correlate(events, commits, Options{Window: DefaultWindow})
	require.NoError(t, err)
	assert.Empty(t, matches, "fallback disabled")
}

func TestCorrelateSkipsUndated(t *testing.T) {
	events := []feed.Event{
		checkpoint("Saved progress", time.Time{}),
		checkpoint("Saved progress", clock(10, 0, 0)),
	}
	commits := []feed.CommitRecord{commit("Undated", time.Time{}), commit("Dated", clock(10, 0, 1))}
	matches, err := Correlate(events, commits, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Saved progress", events[0].Description)
	assert.Equal(t, "Dated", events[1].Description)
}

func TestCorrelateInvalidWindow(t *testing.T) {
	_, err := Correlate(nil, nil, Options{Window: -time.Second})
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestCorrelateNoCommits(t *testing.T) {
	events := []feed.Event{checkpoint("Saved progress", clock(10, 0, 0))}
	matches, err := Correlate(events, nil, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestIsBoilerplate(t *testing.T) {
	assert.True(t, IsBoilerplate("Saved progress at the end of the loop"))
	assert.True(t, IsBoilerplate("Transitioned from Plan to Build mode"))
	assert.False(t, IsBoilerplate("Fixed bug in saved progress handler"))
}
