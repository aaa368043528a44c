package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/quickshoe/Replit-Export-sub000/internal/index"
	"github.com/quickshoe/Replit-Export-sub000/internal/metrics"
	"github.com/quickshoe/Replit-Export-sub000/internal/pipeline"
	"github.com/quickshoe/Replit-Export-sub000/internal/render"
	"github.com/quickshoe/Replit-Export-sub000/internal/snapshot"
)

func exportCmd() *cobra.Command {
	var commitsFile, repo, format, output string
	var store, wait bool

	cmd := &cobra.Command{
		Use:   "export <snapshot.jsonl>",
		Short: "Run the pipeline over one snapshot and print its timeline",
		Long: `Classify every node of a snapshot, resolve timestamps, drop duplicates,
repair ordering and attribute generic checkpoints to commits.

Commit history comes from --commits (a JSON list), else --repo (git log),
else the config's commits_file / repo_dir. Without any, correlation is skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := newLogger(cfg)
			ctx := cmd.Context()
			m := metrics.New()
			path := args[0]

			if wait {
				if _, err := waitIdle(ctx, cfg, path, m, logger); err != nil {
					return err
				}
			}

			if abs, err := filepath.Abs(path); err == nil {
				path = abs
			}
			file, err := snapshot.Open(path, cfg.SnapshotDir)
			if err != nil {
				return fmt.Errorf("open snapshot: %w", err)
			}

			runner := pipeline.New(cfg.PipelineOptions(), logger, m)
			res, err := runner.Run(ctx, file, commitSource(cfg, commitsFile, repo))
			if err != nil {
				return fmt.Errorf("export %s: %w", path, err)
			}

			if store {
				db, err := index.OpenDB(cfg.DBPath)
				if err != nil {
					return fmt.Errorf("open db: %w", err)
				}
				defer db.Close()
				if err := index.Store(db, file.Meta, res); err != nil {
					return fmt.Errorf("store: %w", err)
				}
			}

			out := os.Stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				out = f
			}

			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res.Timeline); err != nil {
					return fmt.Errorf("encode timeline: %w", err)
				}
			case "text":
				noColor := output != "" || !term.IsTerminal(int(os.Stdout.Fd()))
				fmt.Fprint(out, render.Timeline(file.Meta.ExportKey, res.Timeline, render.Options{NoColor: noColor}))
			default:
				return fmt.Errorf("unknown format: %s", format)
			}

			tl := res.Timeline
			fmt.Fprintf(os.Stderr, "Done. nodes=%d events=%d noise=%d duplicates=%d repaired=%d correlated=%d read_errors=%d digest=%s\n",
				res.NodeCount, len(tl.Events), tl.NoiseCount, tl.DuplicateCount,
				tl.RepairCount, tl.CorrelatedCount, res.ReadErrors, res.Digest[:12])
			writeMetrics(cfg.MetricsFile, m, logger)
			return nil
		},
	}

	cmd.Flags().StringVar(&commitsFile, "commits", "", "JSON file of commits to correlate checkpoints with")
	cmd.Flags().StringVar(&repo, "repo", "", "Git repository to read commits from")
	cmd.Flags().StringVar(&format, "format", "json", "Output format (json/text)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	cmd.Flags().BoolVar(&store, "store", false, "Also store the timeline in the index DB")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the agent to go idle before exporting")

	return cmd
}
