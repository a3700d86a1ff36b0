package app

import (
	"os"
	"path/filepath"
	"sort"

	kerrors "kite/internal/core/errors"
	"kite/internal/shared/util"

	"github.com/gobwas/glob"
	"github.com/spf13/afero"
)

// Discover walks roots for .kite files, skipping excluded directories and
// files. The result is sorted and free of duplicates.
func (a *App) Discover(roots []string) ([]string, error) {
	seen := make(map[string]bool)
	for _, root := range uniqueRoots(roots) {
		err := afero.Walk(a.fs, root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			base := filepath.Base(path)
			if info.IsDir() {
				if path != root && matchAny(a.excludeDirs, base) {
					return filepath.SkipDir
				}
				return nil
			}
			if !util.IsKiteFile(path) || matchAny(a.excludeFiles, base) {
				return nil
			}
			seen[filepath.Clean(path)] = true
			return nil
		})
		if err != nil {
			return nil, kerrors.WithPath(kerrors.Wrap(err, kerrors.CodeIO, "scan directory"), root)
		}
	}
	return util.SortedStringKeys(seen), nil
}

func matchAny(globs []glob.Glob, name string) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// uniqueRoots drops roots nested inside another root.
func uniqueRoots(paths []string) []string {
	cleaned := make([]string, 0, len(paths))
	for _, p := range paths {
		cleaned = append(cleaned, filepath.Clean(p))
	}
	sort.Strings(cleaned)
	out := make([]string, 0, len(cleaned))
	for _, p := range cleaned {
		if len(out) > 0 && (p == out[len(out)-1] || util.HasPathPrefix(p, out[len(out)-1])) {
			continue
		}
		out = append(out, p)
	}
	return out
}
