package main

import (
	"fmt"
	"time"

	"kite/internal/data/history"
	"kite/internal/ui/report"

	"github.com/spf13/cobra"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		limit  int
		runID  string
		format string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded check runs, or the diagnostics of one run",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "tsv" && format != "json" {
				return fmt.Errorf("unknown output format %q", format)
			}
			cfg, _, paths, err := opts.loadConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(paths.DBPath, cfg.DB.BusyTimeout)
			if err != nil {
				return err
			}
			defer store.Close()
			out := cmd.OutOrStdout()

			if runID != "" {
				diags, err := store.Diagnostics(cmd.Context(), runID)
				if err != nil {
					return err
				}
				for _, d := range diags {
					fmt.Fprintf(out, "%s:%d:%d %s %s %s\n", relPath(paths.ProjectRoot, d.Path), d.Line, d.Column,
						d.Severity, d.Message, statusStyle.Render("["+d.Code+"]"))
				}
				return nil
			}

			runs, err := store.LoadRuns(cmd.Context(), paths.ProjectRoot, limit)
			if err != nil {
				return err
			}
			switch format {
			case "tsv":
				_, err := out.Write(report.RenderTrendTSV(history.Trend(runs)))
				return err
			case "json":
				data, err := report.RenderTrendJSON(history.Trend(runs))
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, statusStyle.Render("no recorded runs"))
				return nil
			}
			for _, p := range history.Trend(runs) {
				r := p.Run
				fmt.Fprintf(out, "%s  %s  files=%d errors=%d(%+d) warnings=%d(%+d) cycles=%d  %s\n",
					r.ID, r.Started.Local().Format(time.DateTime), r.FileCount,
					r.ErrorCount, p.DeltaErrors, r.WarningCount, p.DeltaWarnings, r.CycleCount,
					statusStyle.Render(r.Duration.String()))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list; 0 lists all")
	cmd.Flags().StringVar(&runID, "run", "", "Show the diagnostics stored for one run")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Run list format: text, tsv or json")
	return cmd
}
