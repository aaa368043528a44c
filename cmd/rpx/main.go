package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/quickshoe/Replit-Export-sub000/internal/commits"
	"github.com/quickshoe/Replit-Export-sub000/internal/config"
	"github.com/quickshoe/Replit-Export-sub000/internal/feed"
	"github.com/quickshoe/Replit-Export-sub000/internal/logging"
)

var version = "dev"

// global flags
var (
	configPath string
	logLevel   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "rpx",
		Short:   "Replit export - turn agent conversation feeds into reconciled timelines",
		Version: version,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (.toml or .yaml); default ~/.config/rpx/config.toml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug/info/warn/error)")

	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(indexCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(previewCmd())
	rootCmd.AddCommand(openCmd())
	rootCmd.AddCommand(waitCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(doctorCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

func newLogger(cfg *config.Config) *slog.Logger {
	lc := cfg.Logging()
	if logLevel != "" {
		if lvl, err := logging.ParseLevel(logLevel); err == nil {
			lc.Level = lvl
		}
	}
	return logging.New(lc, os.Stderr)
}

// commitSource picks the commit history: an explicit file, then a git
// repository, then none.
func commitSource(cfg *config.Config, file, repo string) feed.CommitSource {
	if file == "" {
		file = cfg.CommitsFile
	}
	if repo == "" {
		repo = cfg.RepoDir
	}
	switch {
	case file != "":
		return commits.JSONFile{Path: file, Location: cfg.TimeLocation()}
	case repo != "":
		return commits.GitLog{Dir: repo}
	}
	return nil
}
