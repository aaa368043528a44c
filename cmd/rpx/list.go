package main

import (
	"github.com/spf13/cobra"

	"github.com/quickshoe/Replit-Export-sub000/internal/index"
	"github.com/quickshoe/Replit-Export-sub000/internal/search"
	"github.com/quickshoe/Replit-Export-sub000/internal/tui"
)

func listCmd() *cobra.Command {
	var since string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Browse all exports sorted by last event time",
		Long:  `Opens a TUI panel showing all indexed exports, newest first. Type to filter by summary or export key.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			refreshIndex(cmd, cfg, db)

			return tui.RunList(db, search.Options{
				Since: since,
				Limit: limit,
			})
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "Filter exports updated since date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results (0 = no limit)")

	return cmd
}
