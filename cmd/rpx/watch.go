package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/quickshoe/Replit-Export-sub000/internal/index"
	"github.com/quickshoe/Replit-Export-sub000/internal/metrics"
	"github.com/quickshoe/Replit-Export-sub000/internal/pipeline"
	"github.com/quickshoe/Replit-Export-sub000/internal/watch"
)

func watchCmd() *cobra.Command {
	var listen string
	var settle time.Duration
	var waitIdleFirst bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-export snapshots as they change",
		Long: `Watches the snapshot directory and re-runs the pipeline on every snapshot
that changed and then settled. With --wait, each export is also gated on the
agent going idle. With --listen, Prometheus metrics are served on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := newLogger(cfg)
			ctx := cmd.Context()

			if err := os.MkdirAll(cfg.SnapshotDir, 0o755); err != nil {
				return fmt.Errorf("create snapshot dir: %w", err)
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			m := metrics.New()
			ix := newIndexer(cfg, db, m)

			if listen != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", m.Handler())
				srv := &http.Server{Addr: listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Error("metrics server", "addr", listen, "err", err)
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				logger.Info("serving metrics", "addr", listen)
			}

			// catch up on anything that changed while we were not running
			if stats, err := ix.IndexAll(ctx); err != nil {
				logger.Warn("initial index failed", "err", err)
			} else {
				fmt.Fprintf(os.Stderr, "Indexed. %s\n", stats)
			}
			writeMetrics(cfg.MetricsFile, m, logger)

			w := &watch.Watcher{Root: cfg.SnapshotDir, Settle: settle, Logger: logger}
			fmt.Fprintf(os.Stderr, "Watching %s...\n", cfg.SnapshotDir)

			return w.Run(ctx, func(ctx context.Context, path string) {
				if waitIdleFirst {
					res, err := waitIdle(ctx, cfg, path, m, logger)
					if err != nil {
						logger.Warn("idle wait failed", "path", path, "err", err)
						return
					}
					if res.Degraded {
						logger.Warn("exporting while agent still busy", "path", path, "waited", res.Waited)
					}
				}
				changed, err := ix.IndexFile(ctx, path)
				switch {
				case errors.Is(err, pipeline.ErrNoNodes):
					logger.Debug("empty snapshot", "path", path)
				case err != nil:
					logger.Warn("export failed", "path", path, "err", err)
				case changed:
					logger.Info("exported", "path", path)
				default:
					logger.Debug("timeline unchanged", "path", path)
				}
				writeMetrics(cfg.MetricsFile, m, logger)
			})
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Serve Prometheus metrics on this address (e.g. :9464)")
	cmd.Flags().DurationVar(&settle, "settle", watch.DefaultSettle, "Quiet period before a changed snapshot is exported")
	cmd.Flags().BoolVar(&waitIdleFirst, "wait", false, "Wait for the agent to go idle before each export")

	return cmd
}
