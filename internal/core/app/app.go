// Package app ties the analysis engine to a project on disk: it discovers
// .kite files, caches analysed units, runs the checker, maintains the import
// graph and records check runs.
package app

import (
	"fmt"
	"log/slog"
	"sync"

	"kite/internal/core/config"
	kerrors "kite/internal/core/errors"
	"kite/internal/data/history"
	"kite/internal/engine/checker"
	"kite/internal/engine/classifier"
	"kite/internal/engine/graph"
	"kite/internal/engine/imports"
	"kite/internal/engine/symbols"

	"github.com/gobwas/glob"
	"github.com/spf13/afero"
)

// Update is published after every re-check triggered by file changes.
type Update struct {
	Changed     []string
	Rechecked   []string
	Diagnostics []Finding
	Cycles      [][]string
	FileCount   int
}

type App struct {
	Config *config.Config
	Paths  config.ResolvedPaths
	Graph  *graph.Graph

	fs       afero.Fs
	resolver *imports.Resolver
	checker  *checker.Checker
	history  *history.Store

	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob

	units     *graph.LRUCache[string, *imports.Unit]
	overlayMu sync.RWMutex
	overlays  map[string]string

	findingsMu sync.RWMutex
	findings   map[string][]Finding

	updateMu sync.RWMutex
	onUpdate func(Update)
}

// New builds an App over fs. The history store is opened only when the
// config enables it.
func New(cfg *config.Config, paths config.ResolvedPaths, fs afero.Fs) (*App, error) {
	if cfg == nil {
		return nil, kerrors.New(kerrors.CodeValidationError, "config is required")
	}
	scoping, err := symbols.ParseScoping(cfg.Analysis.Scoping)
	if err != nil {
		return nil, kerrors.Wrap(err, kerrors.CodeValidationError, "analysis.scoping")
	}
	excludeDirs, err := compileGlobs(cfg.Watch.ExcludeDirs, "exclude dir")
	if err != nil {
		return nil, err
	}
	excludeFiles, err := compileGlobs(cfg.Watch.ExcludeFiles, "exclude file")
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:       cfg,
		Paths:        paths,
		Graph:        graph.NewGraph(),
		fs:           fs,
		excludeDirs:  excludeDirs,
		excludeFiles: excludeFiles,
		units:        graph.NewLRUCache[string, *imports.Unit](cfg.Analysis.CacheSize),
		overlays:     make(map[string]string),
		findings:     make(map[string][]Finding),
	}
	a.resolver = imports.NewResolver(a, imports.Roots{
		ProjectRoot:       paths.ProjectRoot,
		ProviderDir:       paths.ProviderDir,
		GlobalProviderDir: paths.GlobalProviderDir,
	})
	a.checker = checker.New(a.resolver, checker.Options{
		Scoping:  scoping,
		Builtins: classifier.NewBuiltins(cfg.Analysis.BuiltinFunctions),
	})

	if cfg.DB.Enabled {
		store, err := history.Open(paths.DBPath, cfg.DB.BusyTimeout)
		if err != nil {
			return nil, kerrors.WithPath(kerrors.Wrap(err, kerrors.CodeIO, "open history"), paths.DBPath)
		}
		a.history = store
	}
	slog.Debug("workspace ready", "root", paths.ProjectRoot, "scoping", scoping, "history", a.history != nil)
	return a, nil
}

func compileGlobs(patterns []string, label string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := config.CompilePattern(p)
		if err != nil {
			return nil, kerrors.Wrap(err, kerrors.CodeValidationError, fmt.Sprintf("invalid %s pattern %q", label, p))
		}
		out = append(out, g)
	}
	return out, nil
}

func (a *App) Close() error {
	if a.history != nil {
		return a.history.Close()
	}
	return nil
}

func (a *App) Resolver() *imports.Resolver {
	return a.resolver
}

func (a *App) Checker() *checker.Checker {
	return a.checker
}

// History is nil unless the config enables it.
func (a *App) History() *history.Store {
	return a.history
}

func (a *App) SetUpdateHandler(handler func(Update)) {
	a.updateMu.Lock()
	defer a.updateMu.Unlock()
	a.onUpdate = handler
}

func (a *App) emitUpdate(update Update) {
	a.updateMu.RLock()
	handler := a.onUpdate
	a.updateMu.RUnlock()
	if handler != nil {
		handler(update)
	}
}
