// Package idle decides whether the upstream feed is still being produced.
//
// Two independent signals are combined and either one alone means busy:
// a trailing "still producing" marker, and a change in the tail of the feed
// between two snapshots taken a short delay apart. While busy the detector
// re-polls; after MaxWait it gives up and lets the caller proceed with a
// degraded-confidence flag instead of failing.
package idle

import (
	"context"
	"log/slog"
	"slices"
	"time"
)

// Snapshot is the visible tail of the feed at one instant.
type Snapshot struct {
	Count int
	Tail  []string
}

// Equal reports whether two snapshots show the same content.
func (s Snapshot) Equal(o Snapshot) bool {
	return s.Count == o.Count && slices.Equal(s.Tail, o.Tail)
}

// Probe reads the two liveness signals.
type Probe interface {
	BusyMarker(ctx context.Context) (bool, error)
	Tail(ctx context.Context) (Snapshot, error)
}

type Config struct {
	PollInterval  time.Duration
	SnapshotDelay time.Duration
	MaxWait       time.Duration
}

func DefaultConfig() Config {
	return Config{
		PollInterval:  5 * time.Second,
		SnapshotDelay: 2 * time.Second,
		MaxWait:       10 * time.Minute,
	}
}

// Result summarises one Wait.
type Result struct {
	Idle     bool
	Degraded bool // MaxWait elapsed while still busy
	Polls    int
	Waited   time.Duration
	Marker   bool // last poll saw the busy marker
	Changed  bool // last poll saw the tail change
}

// Detector polls a Probe until the feed settles.
type Detector struct {
	Probe  Probe
	Config Config
	Logger *slog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func New(p Probe, cfg Config, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{Probe: p, Config: cfg, Logger: logger}
}

// Wait blocks until both signals report idle, MaxWait elapses, or ctx is
// done. MaxWait is a hard ceiling: sleeps are cut short and probe calls
// run under it. Only context cancellation is returned as an error; probe
// errors count as "busy" for that poll.
func (d *Detector) Wait(ctx context.Context) (Result, error) {
	now := d.now
	if now == nil {
		now = time.Now
	}
	sleep := d.sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	cfg := d.Config
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = DefaultConfig().MaxWait
	}

	start := now()
	deadline := start.Add(cfg.MaxWait)
	// bounds probe calls that block past MaxWait
	waitCtx, cancel := context.WithTimeout(ctx, cfg.MaxWait)
	defer cancel()

	var res Result
	for {
		res.Polls++
		delay := min(cfg.SnapshotDelay, deadline.Sub(now()))
		marker, changed, err := d.poll(waitCtx, sleep, delay)
		res.Waited = now().Sub(start)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		res.Marker, res.Changed = marker, changed
		if waitCtx.Err() != nil {
			return d.degrade(res), nil
		}
		if err != nil {
			d.Logger.Debug("idle probe failed", "poll", res.Polls, "error", err)
		}
		if !marker && !changed && err == nil {
			res.Idle = true
			return res, nil
		}
		if res.Waited >= cfg.MaxWait {
			return d.degrade(res), nil
		}
		d.Logger.Info("feed busy, waiting", "poll", res.Polls, "marker", marker, "changed", changed)
		if err := sleep(waitCtx, min(cfg.PollInterval, deadline.Sub(now()))); err != nil && ctx.Err() != nil {
			return res, ctx.Err()
		}
		if !now().Before(deadline) || waitCtx.Err() != nil {
			res.Waited = now().Sub(start)
			return d.degrade(res), nil
		}
	}
}

func (d *Detector) degrade(res Result) Result {
	res.Degraded = true
	d.Logger.Warn("feed still busy, proceeding anyway",
		"waited", res.Waited.Round(time.Second), "polls", res.Polls,
		"marker", res.Marker, "changed", res.Changed)
	return res
}

func (d *Detector) poll(ctx context.Context, sleep func(context.Context, time.Duration) error, delay time.Duration) (marker, changed bool, err error) {
	marker, err = d.Probe.BusyMarker(ctx)
	if err != nil {
		return false, false, err
	}
	first, err := d.Probe.Tail(ctx)
	if err != nil {
		return marker, false, err
	}
	if err := sleep(ctx, delay); err != nil {
		return marker, false, err
	}
	second, err := d.Probe.Tail(ctx)
	if err != nil {
		return marker, false, err
	}
	return marker, !first.Equal(second), nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
