package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"kite/internal/core/app"
	"kite/internal/engine/checker"
	"kite/internal/engine/graph"
	"kite/internal/engine/imports"
	"kite/internal/engine/lexer"
	"kite/internal/ui/report"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	var (
		noRecord bool
		format   string
	)
	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Report diagnostics for the project or the given files and directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "sarif" {
				return fmt.Errorf("unknown output format %q", format)
			}
			a, err := opts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()
			stop := startTracing(cmd.Context(), a.Config)
			defer stop()

			// The whole project is analysed for the import graph; only the
			// requested files are reported.
			rep, err := a.CheckProject(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) > 0 {
				targets, err := absArgs(args)
				if err != nil {
					return err
				}
				files, err := a.Discover(targets)
				if err != nil {
					return err
				}
				rep = filterReport(rep, files)
			}

			if format == "sarif" {
				data, err := report.SARIF(a.Paths.ProjectRoot, version, rep)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			} else {
				renderReport(cmd.OutOrStdout(), a.Paths.ProjectRoot, rep)
			}
			if !noRecord {
				if id, err := a.RecordRun(cmd.Context(), rep); err != nil {
					slog.Warn("failed to record run", "error", err)
				} else if id != "" {
					slog.Debug("run recorded", "id", id)
				}
			}
			if rep.Errors > 0 {
				return &exitError{code: 1, silent: true}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noRecord, "no-record", false, "Do not store this run in the history database")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or sarif")
	return cmd
}

// filterReport narrows rep to files, recounting errors and warnings.
func filterReport(rep app.Report, files []string) app.Report {
	keep := make(map[string]bool, len(files))
	for _, f := range files {
		keep[f] = true
	}
	out := rep
	out.Files, out.Findings, out.Failures = nil, nil, nil
	out.Errors, out.Warnings = 0, 0
	for _, f := range rep.Files {
		if keep[f] {
			out.Files = append(out.Files, f)
		}
	}
	for _, f := range rep.Findings {
		if !keep[f.Path] {
			continue
		}
		out.Findings = append(out.Findings, f)
		if f.Severity == checker.SeverityError {
			out.Errors++
		} else {
			out.Warnings++
		}
	}
	for _, f := range rep.Failures {
		if keep[f.Path] {
			out.Failures = append(out.Failures, f)
		}
	}
	return out
}

func newTokensCmd(opts *rootOptions) *cobra.Command {
	var codeOnly bool
	cmd := &cobra.Command{
		Use:   "tokens FILE",
		Short: "Print the token stream of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()
			path, err := absArgs(args)
			if err != nil {
				return err
			}
			toks, err := a.Tokens(path[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, t := range toks {
				if codeOnly && (t.Kind.IsTrivia() || t.Kind == lexer.Newline) {
					continue
				}
				fmt.Fprintf(out, "%d-%d\t%s\t%s\n", t.Span.Start, t.Span.End, t.Kind, strconv.Quote(t.Text))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&codeOnly, "code", false, "Skip whitespace, newlines and comments")
	return cmd
}

func newSymbolsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "symbols FILE",
		Short: "List the declarations of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()
			path, err := absArgs(args)
			if err != nil {
				return err
			}
			u, err := a.Load(path[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, d := range u.Table.All() {
				line, col := u.File.Position(d.Span.Start)
				typ := d.Type
				if typ == "" {
					typ = "-"
				}
				fmt.Fprintf(out, "%d:%d\t%s\t%s\t%s\n", line, col, d.Kind, d.Name, typ)
			}
			return nil
		},
	}
}

// position parses LINE and COL arguments against u.
func position(u *imports.Unit, lineArg, colArg string) (int, error) {
	line, err := strconv.Atoi(lineArg)
	if err != nil || line < 1 {
		return 0, fmt.Errorf("invalid line %q", lineArg)
	}
	col, err := strconv.Atoi(colArg)
	if err != nil || col < 1 {
		return 0, fmt.Errorf("invalid column %q", colArg)
	}
	return u.File.Offset(line, col), nil
}

func newGotoCmd(opts *rootOptions) *cobra.Command {
	var contextLines int
	cmd := &cobra.Command{
		Use:   "goto FILE LINE COL",
		Short: "Jump to the declaration under the cursor, or list usages of a declaration",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()
			path, err := absArgs(args[:1])
			if err != nil {
				return err
			}
			u, err := a.Load(path[0])
			if err != nil {
				return err
			}
			offset, err := position(u, args[1], args[2])
			if err != nil {
				return err
			}
			locs, err := a.Goto(cmd.Context(), path[0], offset)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(locs) == 0 {
				fmt.Fprintln(out, statusStyle.Render("no target"))
				return nil
			}
			for _, l := range locs {
				fmt.Fprintf(out, "%s:%d:%d\n", relPath(a.Paths.ProjectRoot, l.Path), l.Line, l.Column)
				if contextLines <= 0 {
					continue
				}
				target, err := a.Load(l.Path)
				if err != nil {
					return err
				}
				for _, line := range report.SourceContext([]byte(target.File.Text), l.Line, contextLines) {
					fmt.Fprintln(out, statusStyle.Render(line))
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&contextLines, "context", 0, "Print N lines of source around each location")
	return cmd
}

func newHintsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hints FILE",
		Short: "Print inferred type and parameter-name hints",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()
			path, err := absArgs(args)
			if err != nil {
				return err
			}
			u, err := a.Load(path[0])
			if err != nil {
				return err
			}
			hs, err := a.Hints(cmd.Context(), path[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, h := range hs {
				line, col := u.File.Position(h.Offset)
				fmt.Fprintf(out, "%d:%d\t%s\t%s\n", line, col, h.Kind, h.Text())
			}
			return nil
		},
	}
}

func newGraphCmd(opts *rootOptions) *cobra.Command {
	var (
		format string
		trace  []string
		impact string
		inject  string
		marker  string
		metrics bool
	)
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render the import graph, trace an import chain or analyse change impact",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := graph.ParseFormat(format)
			if err != nil {
				return err
			}
			if len(trace) != 0 && len(trace) != 2 {
				return fmt.Errorf("--trace takes exactly two files, got %d", len(trace))
			}
			a, err := opts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if _, err := a.CheckProject(cmd.Context()); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			root := a.Paths.ProjectRoot

			switch {
			case metrics:
				fmt.Fprintf(out, "%-40s %5s %6s %7s %10s\n", "file", "depth", "fan-in", "fan-out", "importance")
				for _, m := range a.GraphMetrics() {
					fmt.Fprintf(out, "%-40s %5d %6d %7d %10.1f\n", relPath(root, m.Path), m.Depth, m.FanIn, m.FanOut, m.Importance)
				}
			case len(trace) == 2:
				ends, err := absArgs(trace)
				if err != nil {
					return err
				}
				chain, err := a.ImportChain(ends[0], ends[1])
				if err != nil {
					return err
				}
				fmt.Fprintln(out, strings.ReplaceAll(chain, root+"/", ""))
			case impact != "":
				target, err := absArgs([]string{impact})
				if err != nil {
					return err
				}
				ir, err := a.AnalyzeImpact(target[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(out, titleStyle.Render("impact of "+relPath(root, ir.Target)))
				for _, p := range ir.DirectImporters {
					fmt.Fprintf(out, "  direct     %s\n", relPath(root, p))
				}
				for _, p := range ir.TransitiveImporters {
					fmt.Fprintf(out, "  transitive %s\n", relPath(root, p))
				}
				if len(ir.ExposedNames) > 0 {
					fmt.Fprintf(out, "  exposes    %s\n", strings.Join(ir.ExposedNames, ", "))
				}
			default:
				rendered, err := a.RenderGraph(f)
				if err != nil {
					return err
				}
				if inject == "" {
					fmt.Fprint(out, rendered)
					return nil
				}
				if err := report.InjectGraph(afero.NewOsFs(), inject, marker, f, rendered); err != nil {
					return err
				}
				fmt.Fprintln(out, successStyle.Render("updated "+inject))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, dot or mermaid")
	cmd.Flags().StringSliceVar(&trace, "trace", nil, "Shortest import chain between two files: FROM,TO")
	cmd.Flags().StringVar(&impact, "impact", "", "List the files affected by a change to FILE")
	cmd.Flags().StringVar(&inject, "inject", "", "Write the graph between kite markers in a markdown FILE")
	cmd.Flags().StringVar(&marker, "marker", "graph", "Marker name used with --inject")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "List depth, fan-in, fan-out and importance per file")
	return cmd
}
