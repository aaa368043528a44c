package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quickshoe/Replit-Export-sub000/internal/config"
	"github.com/quickshoe/Replit-Export-sub000/internal/index"
	"github.com/quickshoe/Replit-Export-sub000/internal/metrics"
	"github.com/quickshoe/Replit-Export-sub000/internal/pipeline"
)

func indexCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Export and index every snapshot under the snapshot directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := newLogger(cfg)

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			fmt.Fprintf(os.Stderr, "Scanning %s...\n", cfg.SnapshotDir)

			m := metrics.New()
			ix := newIndexer(cfg, db, m)
			ix.Force = force
			stats, err := ix.IndexAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Done. %s\n", stats)
			writeMetrics(cfg.MetricsFile, m, logger)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Re-run the pipeline even for unchanged files")

	return cmd
}

func newIndexer(cfg *config.Config, db *index.DB, m *metrics.Metrics) *index.Indexer {
	logger := newLogger(cfg)
	return &index.Indexer{
		DB:      db,
		Root:    cfg.SnapshotDir,
		Runner:  pipeline.New(cfg.PipelineOptions(), logger, m),
		Commits: commitSource(cfg, "", ""),
		Logger:  logger,
	}
}

// refreshIndex brings the index up to date before browsing. Failures
// only cost freshness.
func refreshIndex(cmd *cobra.Command, cfg *config.Config, db *index.DB) {
	if _, err := newIndexer(cfg, db, nil).IndexAll(cmd.Context()); err != nil {
		newLogger(cfg).Warn("auto-index failed", "err", err)
	}
}
