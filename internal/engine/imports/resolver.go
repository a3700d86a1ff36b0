package imports

import (
	"path/filepath"
	"strings"

	"kite/internal/engine/symbols"
)

// Roots are the directories import paths are tried against, after the
// importing file's own directory.
type Roots struct {
	ProjectRoot       string
	ProviderDir       string
	GlobalProviderDir string
}

// Resolver follows import edges through a Loader. It keeps no state between
// calls; every walk uses its own visited set, so one Resolver can serve
// concurrent analyses.
type Resolver struct {
	loader Loader
	roots  Roots
}

func NewResolver(loader Loader, roots Roots) *Resolver {
	if roots.ProviderDir != "" && !filepath.IsAbs(roots.ProviderDir) && roots.ProjectRoot != "" {
		roots.ProviderDir = filepath.Join(roots.ProjectRoot, roots.ProviderDir)
	}
	return &Resolver{loader: loader, roots: roots}
}

func (r *Resolver) Roots() Roots {
	return r.roots
}

// Candidates lists, in priority order, the files an import of target from
// source may refer to.
func (r *Resolver) Candidates(source, target string) []string {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil
	}
	if filepath.IsAbs(target) {
		return []string{filepath.Clean(target)}
	}

	var out []string
	seen := make(map[string]bool)
	add := func(dir, rel string) {
		if dir == "" {
			return
		}
		p := filepath.Clean(filepath.Join(dir, rel))
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	add(filepath.Dir(source), target)
	add(r.roots.ProjectRoot, target)
	add(r.roots.ProviderDir, target)
	add(r.roots.GlobalProviderDir, target)

	if dotted := dottedPath(target); dotted != "" {
		add(r.roots.ProjectRoot, dotted)
		add(r.roots.ProviderDir, dotted)
		add(r.roots.GlobalProviderDir, dotted)
	}
	return out
}

// dottedPath turns a package path like "aws.network" into "aws/network.kite".
func dottedPath(target string) string {
	if strings.HasSuffix(target, ".kite") || strings.ContainsAny(target, `/\`) || !strings.Contains(target, ".") {
		return ""
	}
	return strings.ReplaceAll(target, ".", "/") + ".kite"
}

// Resolve returns the first candidate that exists.
func (r *Resolver) Resolve(source, target string) (string, bool) {
	for _, c := range r.Candidates(source, target) {
		if r.loader.Exists(c) {
			return c, true
		}
	}
	return "", false
}

// CollectDeclaredNames adds to acc every name reachable through the imports
// of path. Each resolved file is visited once; cycles end the walk.
func (r *Resolver) CollectDeclaredNames(path string, acc map[string]bool) {
	u, err := r.loader.Load(path)
	if err != nil {
		return
	}
	r.CollectFrom(u, acc)
}

// CollectFrom is CollectDeclaredNames for a unit already in hand, such as an
// unsaved buffer.
func (r *Resolver) CollectFrom(u *Unit, acc map[string]bool) {
	newWalk(r, u.Path, acc).collect(u)
}

// Closure returns the files reachable from path in visit order, excluding
// path itself.
func (r *Resolver) Closure(path string) []*Unit {
	u, err := r.loader.Load(path)
	if err != nil {
		return nil
	}
	w := newWalk(r, path, map[string]bool{})
	w.keepUnits = true
	w.collect(u)
	return w.units
}

// walk is one closure traversal. A file reached through a named import is
// loaded but not expanded, so a later wildcard path to it must still expand
// it: loaded and expanded are tracked apart.
type walk struct {
	r        *Resolver
	acc      map[string]bool
	loaded   map[string]*Unit
	expanded map[string]bool

	keepUnits bool
	units     []*Unit
}

func newWalk(r *Resolver, root string, acc map[string]bool) *walk {
	root = filepath.Clean(root)
	return &walk{
		r:        r,
		acc:      acc,
		loaded:   map[string]*Unit{root: nil},
		expanded: map[string]bool{root: true},
	}
}

func (w *walk) load(target string) *Unit {
	if tu, ok := w.loaded[target]; ok {
		return tu
	}
	tu, err := w.r.loader.Load(target)
	if err != nil {
		tu = nil
	}
	w.loaded[target] = tu
	if tu != nil && w.keepUnits {
		w.units = append(w.units, tu)
	}
	return tu
}

func (w *walk) collect(u *Unit) {
	for _, e := range u.Edges {
		target, ok := w.r.Resolve(u.Path, e.Path)
		if !ok {
			continue
		}
		if !e.Wildcard {
			for _, name := range e.Symbols {
				w.acc[name] = true
			}
			w.load(target)
			continue
		}
		if w.expanded[target] {
			continue
		}
		w.expanded[target] = true
		tu := w.load(target)
		if tu == nil {
			continue
		}
		for name := range tu.Table.Names() {
			w.acc[name] = true
		}
		w.collect(tu)
	}
}

// Lookup finds the first file in the import closure of path that declares
// name. path's own declarations are not consulted.
func (r *Resolver) Lookup(path, name string) (*Unit, *symbols.Declaration) {
	u, err := r.loader.Load(path)
	if err != nil {
		return nil, nil
	}
	return r.LookupFrom(u, name)
}

// LookupFrom searches the import closure of u.
func (r *Resolver) LookupFrom(u *Unit, name string) (*Unit, *symbols.Declaration) {
	visited := map[string]bool{filepath.Clean(u.Path): true}
	return r.lookup(u, name, visited)
}

func (r *Resolver) lookup(u *Unit, name string, visited map[string]bool) (*Unit, *symbols.Declaration) {
	for _, e := range u.Edges {
		if !e.Wildcard && !contains(e.Symbols, name) {
			continue
		}
		target, ok := r.Resolve(u.Path, e.Path)
		if !ok || visited[target] {
			continue
		}
		visited[target] = true
		tu, err := r.loader.Load(target)
		if err != nil {
			continue
		}
		if d := tu.Table.Lookup(name); d != nil {
			return tu, d
		}
		if found, d := r.lookup(tu, name, visited); d != nil {
			return found, d
		}
	}
	return nil, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
