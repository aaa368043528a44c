package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickshoe/Replit-Export-sub000/internal/feed"
)

func TestObserveTimeline(t *testing.T) {
	m := New()
	tl := feed.Timeline{
		Events: []feed.Event{
			{Kind: feed.KindMessage},
			{Kind: feed.KindMessage},
			{Kind: feed.KindCheckpoint},
		},
		RepairCount:     2,
		CorrelatedCount: 1,
		DuplicateCount:  3,
		NoiseCount:      4,
	}
	m.ObserveTimeline(tl, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Events.WithLabelValues("message")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Events.WithLabelValues("checkpoint")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.Events.WithLabelValues("noise")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Repaired))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Correlated))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Duplicates))
}

func TestObserveNilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveTimeline(feed.Timeline{RepairCount: 1}, 0)
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.NodesRead.Add(7)
	path := filepath.Join(t.TempDir(), "rpx.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "rpx_nodes_read_total 7"), string(data))
}
