package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"kite/internal/shared/util"
)

// ResolvedPaths are the absolute directories derived from a Config.
type ResolvedPaths struct {
	ProjectRoot       string
	ProviderDir       string
	GlobalProviderDir string
	WatchPaths        []string
	DBPath            string
}

// ResolvePaths makes every configured path absolute. An unset or "." root is
// detected by walking up from cwd.
func ResolvePaths(cfg *Config, cwd string) (ResolvedPaths, error) {
	if strings.TrimSpace(cwd) == "" {
		return ResolvedPaths{}, fmt.Errorf("cwd must not be empty")
	}

	root := strings.TrimSpace(cfg.Project.Root)
	if root == "" || root == "." {
		detected, err := DetectProjectRoot([]string{cwd})
		if err != nil {
			return ResolvedPaths{}, err
		}
		root = detected
	} else {
		root = ResolveRelative(cwd, util.ExpandHome(root))
	}

	resolved := ResolvedPaths{
		ProjectRoot:       root,
		ProviderDir:       ResolveRelative(root, util.ExpandHome(cfg.Project.ProviderDir)),
		GlobalProviderDir: ResolveRelative(root, util.ExpandHome(cfg.Project.GlobalProviderDir)),
		DBPath:            ResolveRelative(root, util.ExpandHome(cfg.DB.Path)),
	}
	for _, p := range cfg.Watch.Paths {
		resolved.WatchPaths = append(resolved.WatchPaths, ResolveRelative(root, util.ExpandHome(p)))
	}
	return resolved, nil
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}

// DetectProjectRoot walks up from each candidate looking for kite.toml, then
// for a .git directory. The working directory is the fallback.
func DetectProjectRoot(candidates []string) (string, error) {
	markers := []string{FileName, ".git"}

	for _, marker := range markers {
		for _, candidate := range candidates {
			if strings.TrimSpace(candidate) == "" {
				continue
			}
			abs, err := filepath.Abs(candidate)
			if err != nil {
				continue
			}
			root := abs
			if info, err := os.Stat(abs); err == nil && !info.IsDir() {
				root = filepath.Dir(abs)
			}
			for {
				if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
					return filepath.Clean(root), nil
				}
				parent := filepath.Dir(root)
				if parent == root {
					break
				}
				root = parent
			}
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Clean(cwd), nil
}

// Find returns the kite.toml governing dir, or "" when there is none.
func Find(dir string) string {
	root, err := DetectProjectRoot([]string{dir})
	if err != nil {
		return ""
	}
	path := filepath.Join(root, FileName)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
