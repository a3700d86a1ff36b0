package app

import (
	"path/filepath"
	"time"

	kerrors "kite/internal/core/errors"
	"kite/internal/engine/graph"
	"kite/internal/engine/imports"
	"kite/internal/engine/lexer"
	"kite/internal/engine/syntax"
	"kite/internal/shared/observability"

	"github.com/spf13/afero"
	"github.com/zeebo/xxh3"
)

var _ imports.Loader = (*App)(nil)

func (a *App) text(path string) (string, error) {
	a.overlayMu.RLock()
	text, ok := a.overlays[path]
	a.overlayMu.RUnlock()
	if ok {
		return text, nil
	}
	data, err := afero.ReadFile(a.fs, path)
	if err != nil {
		return "", kerrors.ReadFailure(err, "read kite file", path)
	}
	return string(data), nil
}

// Load returns the analysed unit for path. A cached unit is reused while the
// hash of the current text matches.
func (a *App) Load(path string) (*imports.Unit, error) {
	path = filepath.Clean(path)
	text, err := a.text(path)
	if err != nil {
		return nil, err
	}
	hash := xxh3.HashString(text)
	if u, ok := a.units.Get(path); ok && u.Hash == hash {
		observability.UnitCacheHits.Inc()
		return u, nil
	}
	observability.UnitCacheMisses.Inc()

	start := time.Now()
	f := syntax.Parse(path, text)
	observability.LexDuration.WithLabelValues("full").Observe(time.Since(start).Seconds())

	u := imports.FromFile(f)
	a.units.Put(path, u)
	return u, nil
}

// Exists reports whether path is an overlay or a regular file.
func (a *App) Exists(path string) bool {
	a.overlayMu.RLock()
	_, ok := a.overlays[filepath.Clean(path)]
	a.overlayMu.RUnlock()
	return ok || imports.IsFile(a.fs, path)
}

// SetOverlay makes text stand in for the file at path until ClearOverlay.
func (a *App) SetOverlay(path, text string) {
	a.overlayMu.Lock()
	defer a.overlayMu.Unlock()
	a.overlays[filepath.Clean(path)] = text
}

func (a *App) ClearOverlay(path string) {
	path = filepath.Clean(path)
	a.overlayMu.Lock()
	delete(a.overlays, path)
	a.overlayMu.Unlock()
	a.units.Evict(path)
}

// Edit replaces text[start:end] of path's current content with replacement,
// keeps the result as an overlay and re-lexes only from the last token whose
// extent could not have been affected by the edit.
func (a *App) Edit(path string, start, end int, replacement string) (*imports.Unit, error) {
	path = filepath.Clean(path)
	prev, err := a.Load(path)
	if err != nil {
		return nil, err
	}
	old := prev.File.Text
	if start < 0 || end < start || end > len(old) {
		return nil, kerrors.WithPath(kerrors.New(kerrors.CodeValidationError, "edit range out of bounds"), path)
	}
	text := old[:start] + replacement + old[end:]

	began := time.Now()
	kept := prev.File.Tokens
	cut := 0
	for cut < len(kept) && kept[cut].End+lexer.Lookahead <= start {
		cut++
	}
	kept = kept[:cut]
	offset := 0
	var state lexer.State
	if cut > 0 {
		offset = kept[cut-1].End
		state = lexer.StateAt(kept, offset)
	}
	tokens := append(append(make([]lexer.Token, 0, len(kept)), kept...), lexer.Resume(text, offset, len(text), state)...)
	f := syntax.FromTokens(path, text, tokens)
	observability.LexDuration.WithLabelValues("resume").Observe(time.Since(began).Seconds())

	a.SetOverlay(path, text)
	u := imports.FromFile(f)
	a.units.Put(path, u)
	return u, nil
}

func (a *App) CacheStats() graph.CacheStats {
	return a.units.Stats()
}

// PruneCache drops the given percentage of cached units, coldest first.
func (a *App) PruneCache(percent int) {
	if percent <= 0 {
		return
	}
	keys := a.units.Keys()
	n := len(keys) * percent / 100
	for i := 0; i < n; i++ {
		a.units.Evict(keys[len(keys)-1-i])
	}
}
