package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/quickshoe/Replit-Export-sub000/internal/index"
	"github.com/quickshoe/Replit-Export-sub000/internal/render"
)

func previewCmd() *cobra.Command {
	var hitEventID int
	var context int
	var query string
	var noColor bool

	cmd := &cobra.Command{
		Use:   "preview <exportKey>",
		Short: "Preview a stored timeline with context around a hit",
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

			width := 0
			if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
				width = w
			}

			out, _, err := render.RenderExport(db, args[0], render.Options{
				HitEventID: hitEventID,
				Context:    context,
				Query:      query,
				Width:      width,
				NoColor:    noColor,
			})
			if err != nil {
				return err
			}

			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().IntVar(&hitEventID, "hit", -1, "Event ID to highlight")
	cmd.Flags().IntVar(&context, "context", 10, "Events before/after hit to show")
	cmd.Flags().StringVar(&query, "query", "", "Search query for keyword highlighting")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable ANSI colors")

	return cmd
}
