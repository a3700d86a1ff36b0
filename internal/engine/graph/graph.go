// Package graph holds the import graph of a Kite project: which file imports
// which, cycle listing, import chains and change impact.
package graph

import (
	"sort"
	"sync"

	"kite/internal/engine/imports"
	"kite/internal/engine/symbols"
	"kite/internal/engine/syntax"
	"kite/internal/shared/observability"
	"kite/internal/shared/util"
)

type Graph struct {
	mu sync.RWMutex

	files      map[string]*File
	imports    map[string]map[string]*ImportEdge // from -> to -> edge
	importedBy map[string]map[string]bool        // to -> from
}

// File is one node. Broken lists import paths that did not resolve.
type File struct {
	Path         string
	Declarations []string
	Broken       []string
}

type ImportEdge struct {
	From string
	To   string
	// Raw is the path as written in the import statement.
	Raw  string
	Span syntax.Span
}

func NewGraph() *Graph {
	return &Graph{
		files:      make(map[string]*File),
		imports:    make(map[string]map[string]*ImportEdge),
		importedBy: make(map[string]map[string]bool),
	}
}

// AddUnit records u and its resolved imports, replacing whatever was known
// about u.Path before.
func (g *Graph) AddUnit(r *imports.Resolver, u *imports.Unit) {
	node := &File{Path: u.Path}
	for _, d := range u.Table.All() {
		if d.Scope == symbols.FileScope {
			node.Declarations = append(node.Declarations, d.Name)
		}
	}
	var edges []*ImportEdge
	for _, e := range u.Edges {
		if !e.HasPath() || e.Path == "" {
			continue
		}
		target, ok := r.Resolve(u.Path, e.Path)
		if !ok {
			node.Broken = append(node.Broken, e.Path)
			continue
		}
		edges = append(edges, &ImportEdge{From: u.Path, To: target, Raw: e.Path, Span: e.PathSpan})
	}
	g.AddFile(node, edges)
}

// AddFile stores a node and its outgoing edges.
func (g *Graph) AddFile(node *File, edges []*ImportEdge) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.removeFileLocked(node.Path)
	g.files[node.Path] = node
	out := make(map[string]*ImportEdge, len(edges))
	for _, e := range edges {
		if _, dup := out[e.To]; dup {
			continue
		}
		out[e.To] = e
		if g.importedBy[e.To] == nil {
			g.importedBy[e.To] = make(map[string]bool)
		}
		g.importedBy[e.To][node.Path] = true
	}
	g.imports[node.Path] = out
	g.publishLocked()
}

func (g *Graph) RemoveFile(path string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeFileLocked(path)
	g.publishLocked()
}

// Incoming edges are kept: importers still point at a deleted file until
// they are re-added.
func (g *Graph) removeFileLocked(path string) {
	for to := range g.imports[path] {
		delete(g.importedBy[to], path)
		if len(g.importedBy[to]) == 0 {
			delete(g.importedBy, to)
		}
	}
	delete(g.imports, path)
	delete(g.files, path)
}

func (g *Graph) publishLocked() {
	edges := 0
	for _, targets := range g.imports {
		edges += len(targets)
	}
	observability.GraphNodes.Set(float64(len(g.files)))
	observability.GraphEdges.Set(float64(edges))
}

func (g *Graph) File(path string) (*File, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	f, ok := g.files[path]
	return f, ok
}

// Files lists node paths in order.
func (g *Graph) Files() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return util.SortedStringKeys(g.files)
}

// Imports returns the targets path imports, sorted.
func (g *Graph) Imports(path string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return util.SortedStringKeys(g.imports[path])
}

// ImportedBy returns the files importing path, sorted.
func (g *Graph) ImportedBy(path string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return util.SortedStringKeys(g.importedBy[path])
}

// Edges returns a copy of every edge ordered by source then target.
func (g *Graph) Edges() []ImportEdge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []ImportEdge
	for _, targets := range g.imports {
		for _, e := range targets {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}
