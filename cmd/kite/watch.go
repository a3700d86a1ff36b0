package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kite/internal/core/app"
	"kite/internal/core/config"
	"kite/internal/shared/observability"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-check the project whenever a .kite file changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, opts)
		},
	}
}

func runWatch(ctx context.Context, cmd *cobra.Command, opts *rootOptions) error {
	cfg, cfgPath, paths, err := opts.loadConfig()
	if err != nil {
		return err
	}
	stopTracing := startTracing(ctx, cfg)
	defer stopTracing()

	if addr := cfg.Observability.MetricsAddr; addr != "" {
		srv := serveMetrics(addr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	reload := make(chan *config.Config, 1)
	if cfgPath != "" {
		cw := config.NewWatcher(cfgPath, func(next *config.Config) { offerLatest(reload, next) })
		if err := cw.Start(ctx); err != nil {
			slog.Warn("config hot reload disabled", "error", err)
		} else {
			defer cw.Stop()
		}
	}

	out := cmd.OutOrStdout()
	for {
		a, err := app.New(cfg, paths, afero.NewOsFs())
		if err != nil {
			return err
		}
		report, err := a.CheckProject(ctx)
		if err != nil {
			a.Close()
			return err
		}
		renderReport(out, paths.ProjectRoot, report)
		if _, err := a.RecordRun(ctx, report); err != nil {
			slog.Warn("failed to record run", "error", err)
		}
		a.SetUpdateHandler(func(u app.Update) {
			renderFindings(out, paths.ProjectRoot, u.Diagnostics)
			renderCycles(out, paths.ProjectRoot, u.Cycles)
		})

		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- a.Watch(runCtx) }()

		select {
		case <-ctx.Done():
			cancel()
			<-done
			return a.Close()
		case err := <-done:
			cancel()
			a.Close()
			return err
		case next := <-reload:
			cancel()
			<-done
			a.Close()
			nextPaths, err := config.ResolvePaths(next, paths.ProjectRoot)
			if err != nil {
				slog.Error("reloaded config rejected", "error", err)
				continue
			}
			slog.Info("config reloaded, restarting watch", "path", cfgPath)
			cfg, paths = next, nextPaths
		}
	}
}

// offerLatest leaves next as the only pending value in ch, replacing any
// config the loop has not picked up yet. ch must have capacity 1 and a
// single sender.
func offerLatest(ch chan *config.Config, next *config.Config) {
	select {
	case <-ch:
	default:
	}
	ch <- next
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	slog.Info("serving metrics", "addr", addr)
	return srv
}
