package main

import (
	"fmt"
	"os"
	"os/exec"
	"sort"

	"github.com/spf13/cobra"

	"github.com/quickshoe/Replit-Export-sub000/internal/index"
	"github.com/quickshoe/Replit-Export-sub000/internal/scan"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify config, snapshots, DB, FTS5 and git",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			fmt.Println("=== Config ===")
			fmt.Printf("  Location:       %s\n", cfg.Location)
			fmt.Printf("  Commit window:  %s\n", cfg.Pipeline.CommitWindow)
			fmt.Printf("  Idle max wait:  %s\n", cfg.Idle.MaxWait)

			fmt.Println("\n=== Snapshots ===")
			checkDir("Snapshot dir", cfg.SnapshotDir)
			files, err := scan.ScanRoot(cfg.SnapshotDir)
			if err != nil {
				fmt.Printf("  scan error: %v\n", err)
			} else {
				fmt.Printf("  JSONL files: %d\n", len(files))
			}

			fmt.Println("\n=== Commits ===")
			switch {
			case cfg.CommitsFile != "":
				fmt.Printf("  Source: file %s\n", cfg.CommitsFile)
			case cfg.RepoDir != "":
				fmt.Printf("  Source: git %s\n", cfg.RepoDir)
				if _, err := exec.LookPath("git"); err != nil {
					fmt.Println("  git: NOT FOUND in PATH")
				} else {
					fmt.Println("  git: OK")
				}
			default:
				fmt.Println("  Source: none (checkpoints stay generic)")
			}

			fmt.Println("\n=== Database ===")
			fmt.Printf("  Path: %s\n", cfg.DBPath)
			if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
				fmt.Println("  Status: NOT FOUND (run 'rpx index' first)")
				return nil
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			exportCount, err := db.ExportCount()
			if err != nil {
				return fmt.Errorf("count exports: %w", err)
			}
			eventCount, err := db.EventCount()
			if err != nil {
				return fmt.Errorf("count events: %w", err)
			}
			fmt.Printf("  Exports: %d\n", exportCount)
			fmt.Printf("  Events:  %d\n", eventCount)

			kinds, err := db.KindCounts()
			if err != nil {
				return fmt.Errorf("count kinds: %w", err)
			}
			names := make([]string, 0, len(kinds))
			for k := range kinds {
				names = append(names, k)
			}
			sort.Strings(names)
			for _, k := range names {
				fmt.Printf("    %-10s %d\n", k, kinds[k])
			}

			fmt.Println("\n=== FTS5 ===")
			var ftsCount int
			err = db.Raw().QueryRow("SELECT COUNT(*) FROM events_fts").Scan(&ftsCount)
			if err != nil {
				fmt.Printf("  FTS5 error: %v\n", err)
			} else {
				fmt.Printf("  FTS5 entries: %d\n", ftsCount)
				if ftsCount == eventCount {
					fmt.Println("  Status: OK (synced)")
				} else {
					fmt.Printf("  Status: MISMATCH (events=%d, fts=%d)\n", eventCount, ftsCount)
				}
			}

			if info, err := os.Stat(cfg.DBPath); err == nil {
				sizeMB := float64(info.Size()) / 1024 / 1024
				fmt.Printf("\n=== DB Size: %.1f MB ===\n", sizeMB)
			}

			return nil
		},
	}
}

func checkDir(name, path string) {
	if info, err := os.Stat(path); err != nil {
		fmt.Printf("  %s: %s (NOT FOUND)\n", name, path)
	} else if !info.IsDir() {
		fmt.Printf("  %s: %s (NOT A DIRECTORY)\n", name, path)
	} else {
		fmt.Printf("  %s: %s (OK)\n", name, path)
	}
}
