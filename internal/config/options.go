package config

import (
	"github.com/quickshoe/Replit-Export-sub000/internal/classify"
	"github.com/quickshoe/Replit-Export-sub000/internal/correlate"
	"github.com/quickshoe/Replit-Export-sub000/internal/idle"
	"github.com/quickshoe/Replit-Export-sub000/internal/pipeline"
)

func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Classify: classify.Options{
			CheckpointMaxLen: c.Pipeline.CheckpointMaxLen,
			MinMessageLen:    c.Pipeline.MinMessageLen,
		},
		Correlate: correlate.Options{
			Window:    c.Pipeline.CommitWindow,
			Adjacency: c.Pipeline.AdjacencyFallback,
		},
		Location:         c.TimeLocation(),
		SiblingLookahead: c.Pipeline.SiblingLookahead,
	}
}

func (c *Config) IdleConfig() idle.Config {
	cfg := idle.DefaultConfig()
	if c.Idle.PollInterval > 0 {
		cfg.PollInterval = c.Idle.PollInterval
	}
	if c.Idle.SnapshotDelay > 0 {
		cfg.SnapshotDelay = c.Idle.SnapshotDelay
	}
	if c.Idle.MaxWait > 0 {
		cfg.MaxWait = c.Idle.MaxWait
	}
	return cfg
}

// Probe returns a file-backed idle probe over one snapshot.
func (c *Config) Probe(path string) idle.FileProbe {
	return idle.FileProbe{Path: path, Marker: c.Idle.BusyMarker, TailNodes: c.Idle.TailNodes}
}
