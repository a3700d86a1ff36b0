package graph

import (
	"sort"
	"strings"

	"kite/internal/shared/util"
)

// DetectCycles lists each import cycle once, rotated so it starts at its
// smallest path. Cycles are silently tolerated by resolution; this is for
// reporting only.
func (g *Graph) DetectCycles() [][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var cycles [][]string
	seen := make(map[string]bool)
	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	for _, path := range util.SortedStringKeys(g.files) {
		if !visited[path] {
			g.findCycles(path, visited, onStack, nil, func(cycle []string) {
				cycle = rotate(cycle)
				key := strings.Join(cycle, "\x00")
				if !seen[key] {
					seen[key] = true
					cycles = append(cycles, cycle)
				}
			})
		}
	}
	sort.Slice(cycles, func(i, j int) bool {
		return strings.Join(cycles[i], "\x00") < strings.Join(cycles[j], "\x00")
	})
	return cycles
}

func (g *Graph) findCycles(curr string, visited, onStack map[string]bool, path []string, found func([]string)) {
	visited[curr] = true
	onStack[curr] = true
	path = append(path, curr)

	for _, next := range util.SortedStringKeys(g.imports[curr]) {
		if onStack[next] {
			for i, p := range path {
				if p == next {
					found(append([]string(nil), path[i:]...))
					break
				}
			}
		} else if !visited[next] {
			g.findCycles(next, visited, onStack, path, found)
		}
	}
	onStack[curr] = false
}

func rotate(cycle []string) []string {
	lo := 0
	for i, p := range cycle {
		if p < cycle[lo] {
			lo = i
		}
	}
	return append(append([]string(nil), cycle[lo:]...), cycle[:lo]...)
}

// FindImportChain returns the shortest import path from one file to another.
func (g *Graph) FindImportChain(from, to string) ([]string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.files[from]; !ok {
		return nil, false
	}
	if from == to {
		return []string{from}, true
	}

	queue := []string{from}
	visited := map[string]bool{from: true}
	prev := make(map[string]string)

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, next := range util.SortedStringKeys(g.imports[curr]) {
			if visited[next] {
				continue
			}
			visited[next] = true
			prev[next] = curr

			if next == to {
				chain := []string{to}
				for node := to; node != from; {
					node = prev[node]
					chain = append(chain, node)
				}
				for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
					chain[i], chain[j] = chain[j], chain[i]
				}
				return chain, true
			}
			queue = append(queue, next)
		}
	}
	return nil, false
}

// Dependents returns changed followed by every file that imports it directly
// or transitively: the files whose diagnostics may change with it.
func (g *Graph) Dependents(changed string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := []string{changed}
	seen := map[string]bool{changed: true}
	queue := []string{changed}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, importer := range util.SortedStringKeys(g.importedBy[curr]) {
			if seen[importer] {
				continue
			}
			seen[importer] = true
			out = append(out, importer)
			queue = append(queue, importer)
		}
	}
	return out
}
