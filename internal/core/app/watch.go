package app

import (
	"context"
	"log/slog"

	"kite/internal/core/watcher"
	"kite/internal/shared/util"
)

// Watch re-checks on file changes until ctx is cancelled. Re-check passes
// are paced by watch.rate and watch.burst.
func (a *App) Watch(ctx context.Context) error {
	w, err := watcher.NewWatcher(watcher.Options{
		Debounce:     a.Config.Watch.Debounce,
		ExcludeDirs:  a.Config.Watch.ExcludeDirs,
		ExcludeFiles: a.Config.Watch.ExcludeFiles,
		Limiter:      util.NewLimiter(a.Config.Watch.Rate, a.Config.Watch.Burst),
	}, func(paths []string) {
		report, err := a.HandleChanges(ctx, paths)
		if err != nil {
			if ctx.Err() == nil {
				slog.Error("re-check failed", "error", err)
			}
			return
		}
		if _, err := a.RecordRun(ctx, report); err != nil {
			slog.Warn("failed to record run", "error", err)
		}
	})
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Watch(a.Paths.WatchPaths); err != nil {
		return err
	}
	slog.Info("watching", "paths", a.Paths.WatchPaths)
	<-ctx.Done()
	return nil
}
