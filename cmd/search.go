package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

func newSearchCmd(a *app) *cobra.Command {
	var (
		limit  int
		budget int
		engine string
		mode   string
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the web and print the text of every result page",
		Example: `  webhub search "golang context cancellation"
  webhub search --limit 3 --mode markdown "chromedp examples"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := a.pipeline()
			req := p.NewRequest(strings.Join(args, " "))
			if cmd.Flags().Changed("limit") {
				req.ResultLimit = limit
			}
			if cmd.Flags().Changed("budget") {
				req.PerPageByteBudget = budget
			}
			if cmd.Flags().Changed("engine") {
				req.EngineTemplate = engine
			}
			if cmd.Flags().Changed("mode") {
				req.ContentMode = mode
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			report, err := p.Run(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results to open")
	cmd.Flags().IntVar(&budget, "budget", 0, "Maximum bytes of text per page")
	cmd.Flags().StringVar(&engine, "engine", "", "Search URL template containing {query}")
	cmd.Flags().StringVar(&mode, "mode", "", "Content mode: text|readability|trafilatura|markdown")
	return cmd
}
