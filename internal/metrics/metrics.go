// Package metrics holds the pipeline counters. Each Metrics owns a private
// registry so tests and one-shot exports never collide on the default one.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quickshoe/Replit-Export-sub000/internal/feed"
)

const namespace = "rpx"

type Metrics struct {
	reg *prometheus.Registry

	NodesRead      prometheus.Counter
	NodeReadErrors prometheus.Counter
	Events         *prometheus.CounterVec
	Duplicates     prometheus.Counter
	Repaired       prometheus.Counter
	Correlated     prometheus.Counter
	IdleWait       prometheus.Gauge
	ExportDur      prometheus.Summary
}

func New() *Metrics {
	m := &Metrics{reg: prometheus.NewRegistry()}
	m.NodesRead = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "nodes_read_total",
		Help:      "Feed nodes read from the accessor",
	})
	m.NodeReadErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "node_read_errors_total",
		Help:      "Node reads that failed and were skipped",
	})
	m.Events = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Classified events by kind, noise included",
	}, []string{"kind"})
	m.Duplicates = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "duplicates_dropped_total",
		Help:      "Messages dropped as duplicates or contained fragments",
	})
	m.Repaired = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "timestamps_repaired_total",
		Help:      "Timestamps clamped by monotonic repair",
	})
	m.Correlated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkpoints_correlated_total",
		Help:      "Checkpoint descriptions replaced from commit history",
	})
	m.IdleWait = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "idle_wait_seconds",
		Help:      "Time spent in the last idle wait",
	})
	m.ExportDur = prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace: namespace,
		Name:      "export_duration_seconds",
		Help:      "Time spent running the pipeline over one feed",
	})

	m.reg.MustRegister(
		m.NodesRead, m.NodeReadErrors, m.Events,
		m.Duplicates, m.Repaired, m.Correlated,
		m.IdleWait, m.ExportDur,
	)
	return m
}

// ObserveTimeline adds one finished timeline's counters.
func (m *Metrics) ObserveTimeline(tl feed.Timeline, took time.Duration) {
	if m == nil {
		return
	}
	for _, e := range tl.Events {
		m.Events.WithLabelValues(string(e.Kind)).Inc()
	}
	if tl.NoiseCount > 0 {
		m.Events.WithLabelValues(string(feed.KindNoise)).Add(float64(tl.NoiseCount))
	}
	m.Duplicates.Add(float64(tl.DuplicateCount))
	m.Repaired.Add(float64(tl.RepairCount))
	m.Correlated.Add(float64(tl.CorrelatedCount))
	m.ExportDur.Observe(took.Seconds())
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry for `rpx watch --listen`.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// WriteTextfile writes the registry in node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
