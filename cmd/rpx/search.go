package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/quickshoe/Replit-Export-sub000/internal/index"
	"github.com/quickshoe/Replit-Export-sub000/internal/search"
	"github.com/quickshoe/Replit-Export-sub000/internal/tui"
)

const (
	sColorReset   = "\033[0m"
	sColorBoldRed = "\033[1;31m"
	sColorBlue    = "\033[1;34m"
	sColorGreen   = "\033[1;32m"
	sColorYellow  = "\033[1;33m"
	sColorDim     = "\033[2m"
)

func colorizeKind(kind string) string {
	switch kind {
	case "message":
		return sColorBlue + kind + sColorReset
	case "checkpoint":
		return sColorGreen + kind + sColorReset
	case "work":
		return sColorYellow + kind + sColorReset
	default:
		return kind
	}
}

func colorizeSnippet(snippet string) string {
	snippet = strings.ReplaceAll(snippet, ">>>", sColorBoldRed)
	snippet = strings.ReplaceAll(snippet, "<<<", sColorReset)
	return snippet
}

func flatten(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

func searchCmd() *cobra.Command {
	var kind, role, since string
	var limit int
	var all bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search across indexed timelines",
		Long: `Search indexed timeline events using FTS5. Output is TSV for fzf integration:
  exportKey, eventId, ts, kind, role, summary, snippet

Recommended shell function (add to .zshrc):
  rpxf() {
    rpx search "$*" | fzf \
      --ansi \
      --delimiter='\t' --with-nth=3.. \
      --preview 'rpx preview {1} --hit {2} --context 5 --query {q}' \
      --preview-window=right:60%:wrap \
      --preview-debounce=150 \
      --bind 'enter:execute(rpx open {1} --hit {2})'
  }`,
		Args: cobra.ExactArgs(1),
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

			opts := search.Options{
				Kind:      kind,
				Role:      role,
				Since:     since,
				Limit:     limit,
				PerExport: !all,
			}

			// Interactive TUI when stdout is a terminal; TSV output for pipes
			if term.IsTerminal(int(os.Stdout.Fd())) {
				return tui.Run(db, args[0], opts)
			}

			opts.Query = args[0]
			results, err := search.Search(db, opts)
			if err != nil {
				return err
			}

			if len(results) == 0 {
				fmt.Fprintln(os.Stderr, "No results found.")
				return nil
			}

			for _, r := range results {
				ts := r.Ts
				if ts == "" {
					ts = r.LastTs
				}
				who := r.Role
				if who == "" {
					who = "-"
				}
				// first two fields (exportKey, eventID) stay plain for fzf {1} {2}
				fmt.Printf("%s\t%d\t%s%s%s\t%s\t%s\t%s\t%s\n",
					r.ExportKey,
					r.EventID,
					sColorDim, ts, sColorReset,
					colorizeKind(r.Kind),
					who,
					flatten(r.Summary),
					colorizeSnippet(flatten(r.Snippet)),
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Filter by event kind (message/checkpoint/work)")
	cmd.Flags().StringVar(&role, "role", "", "Filter by message role (user/agent)")
	cmd.Flags().StringVar(&since, "since", "", "Filter events since date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 100, "Max results")
	cmd.Flags().BoolVar(&all, "all", false, "Show every matching event, not just the best per export")

	return cmd
}
