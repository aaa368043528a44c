// Package pipeline turns a feed of raw nodes into a reconciled timeline.
//
// Nodes are read strictly in order. Each is classified, stamped with a
// resolved or carried-forward timestamp, and collected; the collected
// events are then deduplicated, assembled in source order, repaired to be
// monotonic and finally correlated with commit history.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gowebpki/jcs"

	"github.com/quickshoe/Replit-Export-sub000/internal/classify"
	"github.com/quickshoe/Replit-Export-sub000/internal/correlate"
	"github.com/quickshoe/Replit-Export-sub000/internal/duration"
	"github.com/quickshoe/Replit-Export-sub000/internal/feed"
	"github.com/quickshoe/Replit-Export-sub000/internal/logging"
	"github.com/quickshoe/Replit-Export-sub000/internal/metrics"
	"github.com/quickshoe/Replit-Export-sub000/internal/normalize"
	"github.com/quickshoe/Replit-Export-sub000/internal/timeline"
	"github.com/quickshoe/Replit-Export-sub000/internal/timestamp"
)

var (
	ErrNoNodes          = errors.New("feed has no nodes")
	ErrAccessorUnusable = errors.New("feed accessor unusable")
)

type Options struct {
	Classify         classify.Options
	Correlate        correlate.Options
	Location         *time.Location // zone for wall-clock timestamps
	SiblingLookahead int
}

func DefaultOptions() Options {
	return Options{
		Classify:         classify.DefaultOptions(),
		Correlate:        correlate.DefaultOptions(),
		Location:         time.UTC,
		SiblingLookahead: timestamp.DefaultSiblingLookahead,
	}
}

type Result struct {
	Timeline   feed.Timeline
	Digest     string // sha256 of the canonical JSON timeline
	NodeCount  int
	ReadErrors int
	Matches    []correlate.Match
	CommitErr  error // commit source failure; correlation was skipped
}

type Runner struct {
	Options Options
	Logger  *slog.Logger
	Metrics *metrics.Metrics // may be nil
}

func New(opts Options, logger *slog.Logger, m *metrics.Metrics) *Runner {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Runner{Options: opts, Logger: logger, Metrics: m}
}

// Run executes the pipeline once. commits may be nil.
func (r *Runner) Run(ctx context.Context, acc feed.NodeAccessor, commits feed.CommitSource) (*Result, error) {
	start := time.Now()
	if r.Options.Correlate.Window < 0 {
		return nil, fmt.Errorf("correlate: %w", correlate.ErrInvalidWindow)
	}

	count, err := acc.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count nodes: %w: %w", ErrAccessorUnusable, err)
	}
	if count == 0 {
		return nil, ErrNoNodes
	}

	res := &Result{NodeCount: count}
	events, err := r.collect(ctx, acc, count, res)
	if err != nil {
		return nil, err
	}

	events, dropped := normalize.Dedupe(events)
	events, noise := timeline.Assemble(events)
	repaired := timeline.Repair(events)

	if commits != nil {
		res.Matches, res.CommitErr = r.correlate(ctx, events, commits)
		if errors.Is(res.CommitErr, correlate.ErrInvalidWindow) {
			return nil, res.CommitErr
		}
	}

	if events == nil {
		events = []feed.Event{}
	}
	res.Timeline = feed.Timeline{
		Events:          events,
		RepairCount:     repaired,
		CorrelatedCount: len(res.Matches),
		DuplicateCount:  dropped,
		NoiseCount:      noise,
	}
	res.Digest, err = Digest(res.Timeline)
	if err != nil {
		return nil, err
	}

	took := time.Since(start)
	r.Metrics.ObserveTimeline(res.Timeline, took)
	r.Logger.Debug("pipeline done",
		"nodes", count,
		"events", len(events),
		"noise", noise,
		"duplicates", dropped,
		"repaired", repaired,
		"correlated", len(res.Matches),
		"took", took)
	return res, nil
}

func (r *Runner) collect(ctx context.Context, acc feed.NodeAccessor, count int, res *Result) ([]feed.Event, error) {
	resolver := timestamp.New(r.Options.Location)
	if r.Options.SiblingLookahead > 0 {
		resolver.SiblingLookahead = r.Options.SiblingLookahead
	}

	events := make([]feed.Event, 0, count)
	var last time.Time
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		node, err := acc.Read(ctx, i)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			res.ReadErrors++
			if r.Metrics != nil {
				r.Metrics.NodeReadErrors.Inc()
			}
			r.Logger.Debug("skip unreadable node", "index", i, "err", err)
			continue
		}
		if r.Metrics != nil {
			r.Metrics.NodesRead.Inc()
		}

		ev := classify.Classify(node, r.Options.Classify)
		if ev.Kind == feed.KindNoise {
			events = append(events, ev)
			continue
		}
		ev.Timestamp = resolver.Resolve(node, ev.Kind, last)
		last = timestamp.Carry(last, ev.Timestamp)

		if ev.Kind == feed.KindWork {
			mergePrecision(&ev, node)
		}
		events = append(events, ev)
	}
	if res.ReadErrors == count {
		return nil, fmt.Errorf("read nodes: %w: all %d reads failed", ErrAccessorUnusable, count)
	}
	return events, nil
}

// mergePrecision lets the node's exact duration attribute override the
// coarse "Worked for" text.
func mergePrecision(ev *feed.Event, node feed.RawNode) {
	p := duration.MergePrecision(ev.TimeWorkedText, node.Attr(feed.AttrPreciseDuration))
	ev.TimeWorkedText = p.Text
	if p.OK {
		secs := p.Seconds
		ev.DurationSeconds = &secs
	} else {
		ev.DurationSeconds = nil
	}
}

func (r *Runner) correlate(ctx context.Context, events []feed.Event, src feed.CommitSource) ([]correlate.Match, error) {
	commits, err := src.List(ctx)
	if err != nil {
		r.Logger.Warn("commit history unavailable, skipping correlation", "err", err)
		return nil, fmt.Errorf("list commits: %w", err)
	}
	matches, err := correlate.Correlate(events, commits, r.Options.Correlate)
	if err != nil {
		return nil, fmt.Errorf("correlate: %w", err)
	}
	return matches, nil
}

// Digest returns the sha256 hex digest of the timeline's RFC 8785
// canonical JSON. Identical inputs always produce identical digests.
func Digest(tl feed.Timeline) (string, error) {
	raw, err := json.Marshal(tl)
	if err != nil {
		return "", fmt.Errorf("marshal timeline: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize timeline: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
