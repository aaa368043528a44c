package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/quickshoe/Replit-Export-sub000/internal/config"
	"github.com/quickshoe/Replit-Export-sub000/internal/idle"
	"github.com/quickshoe/Replit-Export-sub000/internal/metrics"
)

// waitIdle blocks until the snapshot looks idle or the wait degrades.
func waitIdle(ctx context.Context, cfg *config.Config, path string, m *metrics.Metrics, logger *slog.Logger) (idle.Result, error) {
	d := idle.New(cfg.Probe(path), cfg.IdleConfig(), logger)
	res, err := d.Wait(ctx)
	if err != nil {
		return res, fmt.Errorf("wait for idle: %w", err)
	}
	m.IdleWait.Set(res.Waited.Seconds())
	return res, nil
}

func waitCmd() *cobra.Command {
	var strict bool
	var maxWait time.Duration

	cmd := &cobra.Command{
		Use:   "wait <snapshot.jsonl>",
		Short: "Block until the agent stops working on a snapshot",
		Long: `Polls the snapshot until no busy marker is visible and its tail stops
changing. Gives up after max_wait; the result is then "degraded".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if maxWait > 0 {
				cfg.Idle.MaxWait = maxWait
			}
			logger := newLogger(cfg)
			m := metrics.New()

			res, err := waitIdle(cmd.Context(), cfg, args[0], m, logger)
			if err != nil {
				return err
			}
			writeMetrics(cfg.MetricsFile, m, logger)

			state := "idle"
			if res.Degraded {
				state = "degraded"
			}
			fmt.Fprintf(os.Stderr, "%s after %s (%d polls)\n", state, res.Waited.Round(time.Millisecond), res.Polls)
			if strict && res.Degraded {
				return fmt.Errorf("still busy after %s", cfg.IdleConfig().MaxWait)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when the wait degrades")
	cmd.Flags().DurationVar(&maxWait, "max-wait", 0, "Override idle.max_wait")

	return cmd
}

// writeMetrics dumps the registry when a textfile path is configured.
func writeMetrics(path string, m *metrics.Metrics, logger *slog.Logger) {
	if path == "" {
		return
	}
	if err := m.WriteTextfile(path); err != nil {
		logger.Warn("metrics not written", "path", path, "err", err)
	}
}
