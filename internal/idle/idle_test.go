package idle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptProbe replays a fixed sequence of marker values and tails.
type scriptProbe struct {
	markers []bool
	tails   []Snapshot
	mi, ti  int
}

func (p *scriptProbe) BusyMarker(ctx context.Context) (bool, error) {
	v := p.markers[min(p.mi, len(p.markers)-1)]
	p.mi++
	return v, nil
}

func (p *scriptProbe) Tail(ctx context.Context) (Snapshot, error) {
	v := p.tails[min(p.ti, len(p.tails)-1)]
	p.ti++
	return v, nil
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.t = c.t.Add(d)
	return nil
}

func newTestDetector(p Probe, cfg Config) (*Detector, *fakeClock) {
	clk := &fakeClock{t: time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)}
	d := New(p, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	d.now = clk.now
	d.sleep = clk.sleep
	return d, clk
}

func snap(tail ...string) Snapshot {
	return Snapshot{Count: len(tail), Tail: tail}
}

func TestWaitIdleImmediately(t *testing.T) {
	p := &scriptProbe{markers: []bool{false}, tails: []Snapshot{snap("a", "b")}}
	d, _ := newTestDetector(p, DefaultConfig())
	res, err := d.Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Idle)
	assert.False(t, res.Degraded)
	assert.Equal(t, 1, res.Polls)
}

func TestWaitMarkerAloneIsBusy(t *testing.T) {
	p := &scriptProbe{markers: []bool{true, true, false}, tails: []Snapshot{snap("a")}}
	d, _ := newTestDetector(p, DefaultConfig())
	res, err := d.Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Idle)
	assert.Equal(t, 3, res.Polls)
}

func TestWaitTailChangeAloneIsBusy(t *testing.T) {
	p := &scriptProbe{
		markers: []bool{false},
		tails:   []Snapshot{snap("a"), snap("a", "b"), snap("a", "b"), snap("a", "b")},
	}
	d, _ := newTestDetector(p, DefaultConfig())
	res, err := d.Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Idle)
	assert.Equal(t, 2, res.Polls)
}

func TestWaitDegradesAfterMaxWait(t *testing.T) {
	p := &scriptProbe{markers: []bool{true}, tails: []Snapshot{snap("a")}}
	cfg := Config{PollInterval: time.Minute, SnapshotDelay: time.Second, MaxWait: 10 * time.Minute}
	d, _ := newTestDetector(p, cfg)
	res, err := d.Wait(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Idle)
	assert.True(t, res.Degraded)
	assert.Equal(t, 10*time.Minute, res.Waited)
	assert.Equal(t, 10, res.Polls)
}

func TestWaitNeverSleepsPastMaxWait(t *testing.T) {
	p := &scriptProbe{markers: []bool{true}, tails: []Snapshot{snap("a")}}
	cfg := Config{PollInterval: time.Hour, SnapshotDelay: 10 * time.Minute, MaxWait: 5 * time.Minute}
	d, _ := newTestDetector(p, cfg)
	res, err := d.Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Equal(t, 5*time.Minute, res.Waited)
	assert.Equal(t, 1, res.Polls)
}

// stuckFeed blocks until its context is done.
type stuckFeed struct{}

func (stuckFeed) BusyMarker(ctx context.Context) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

func (stuckFeed) Tail(ctx context.Context) (Snapshot, error) {
	<-ctx.Done()
	return Snapshot{}, ctx.Err()
}

func TestWaitBoundsBlockedCalls(t *testing.T) {
	cfg := Config{PollInterval: time.Second, SnapshotDelay: time.Second, MaxWait: 50 * time.Millisecond}
	d := New(stuckFeed{}, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	start := time.Now()
	res, err := d.Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.False(t, res.Idle)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestWaitHonoursCancellation(t *testing.T) {
	p := &scriptProbe{markers: []bool{true}, tails: []Snapshot{snap("a")}}
	d, _ := newTestDetector(p, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.Wait(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSnapshotEqual(t *testing.T) {
	assert.True(t, snap("a", "b").Equal(snap("a", "b")))
	assert.False(t, snap("a", "b").Equal(snap("a", "c")))
	assert.False(t, Snapshot{Count: 3, Tail: []string{"a"}}.Equal(Snapshot{Count: 4, Tail: []string{"a"}}))
}

func TestFileProbe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"text":"hello there"}
{"text":"Working..."}
`), 0o644))

	p := FileProbe{Path: path, TailNodes: 1}
	busy, err := p.BusyMarker(context.Background())
	require.NoError(t, err)
	assert.True(t, busy)

	s, err := p.Tail(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, s.Count)
	assert.Equal(t, []string{"Working..."}, s.Tail)

	require.NoError(t, os.WriteFile(path, []byte(`{"text":"done"}`), 0o644))
	busy, err = p.BusyMarker(context.Background())
	require.NoError(t, err)
	assert.False(t, busy)
}
