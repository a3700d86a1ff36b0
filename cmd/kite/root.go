package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"kite/internal/core/app"
	"kite/internal/core/config"
	"kite/internal/shared/observability"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	dir        string
	scoping    string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "kite",
		Short:         "Static analysis for Kite infrastructure code",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(cmd.ErrOrStderr(), opts.verbose)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to kite.toml (default: nearest one above --dir)")
	cmd.PersistentFlags().StringVarP(&opts.dir, "dir", "C", "", "Project directory (default: working directory)")
	cmd.PersistentFlags().StringVar(&opts.scoping, "scoping", "", "Override analysis.scoping (flat or lexical)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(
		newCheckCmd(opts),
		newTokensCmd(opts),
		newSymbolsCmd(opts),
		newGotoCmd(opts),
		newHintsCmd(opts),
		newGraphCmd(opts),
		newWatchCmd(opts),
		newHistoryCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// setupLogging keeps stdout for command output.
func setupLogging(output io.Writer, verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
}

// loadConfig returns the effective config, the file it came from ("" for
// defaults) and the resolved paths.
func (o *rootOptions) loadConfig() (*config.Config, string, config.ResolvedPaths, error) {
	base := o.dir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, "", config.ResolvedPaths{}, err
		}
		base = wd
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, "", config.ResolvedPaths{}, err
	}

	path := o.configPath
	if path == "" {
		path = config.Find(base)
	}
	var cfg *config.Config
	if path != "" {
		cfg, err = config.Load(path)
		base = filepath.Dir(path)
	} else {
		cfg, err = config.Load(filepath.Join(base, config.FileName))
	}
	if err != nil {
		return nil, "", config.ResolvedPaths{}, err
	}
	if o.scoping != "" {
		cfg.Analysis.Scoping = o.scoping
	}

	paths, err := config.ResolvePaths(cfg, base)
	if err != nil {
		return nil, "", config.ResolvedPaths{}, err
	}
	slog.Debug("config loaded", "path", path, "root", paths.ProjectRoot)
	return cfg, path, paths, nil
}

func (o *rootOptions) openApp() (*app.App, error) {
	cfg, _, paths, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(cfg, paths, afero.NewOsFs())
}

// startTracing installs the OTLP exporter when one is configured.
func startTracing(ctx context.Context, cfg *config.Config) func() {
	shutdown, err := observability.InitTracing(ctx, cfg.Observability.ServiceName, cfg.Observability.OTLPEndpoint)
	if err != nil {
		slog.Warn("tracing disabled", "error", err)
		return func() {}
	}
	return func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Debug("tracer shutdown", "error", err)
		}
	}
}

func absArgs(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for _, a := range args {
		abs, err := filepath.Abs(a)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", a, err)
		}
		out = append(out, abs)
	}
	return out, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print kite version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kite %s\n", version)
		},
	}
}
