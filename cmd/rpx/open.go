package main

import (
	"github.com/spf13/cobra"

	"github.com/quickshoe/Replit-Export-sub000/internal/index"
	"github.com/quickshoe/Replit-Export-sub000/internal/open"
)

func openCmd() *cobra.Command {
	var hitEventID int

	cmd := &cobra.Command{
		Use:   "open <exportKey>",
		Short: "Open the snapshot file in $EDITOR at the hit line",
		Args:  cobra.ExactArgs(1),
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

			return open.OpenExport(db, args[0], hitEventID)
		},
	}

	cmd.Flags().IntVar(&hitEventID, "hit", -1, "Event ID to jump to")

	return cmd
}
