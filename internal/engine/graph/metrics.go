package graph

import "sort"

// FileMetrics describes a file's position in the import graph. Depth is the
// longest chain of imports below the file, with cycles collapsed.
type FileMetrics struct {
	Depth      int
	FanIn      int
	FanOut     int
	Importance float64
}

// Importance weighs how much of the project leans on a file:
// FanIn*2 + FanOut + Declarations*0.5.
func Importance(fanIn, fanOut, declarations int) float64 {
	return float64(fanIn*2) + float64(fanOut) + float64(declarations)*0.5
}

func (g *Graph) ComputeMetrics() map[string]FileMetrics {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nodes := make([]string, 0, len(g.files))
	for p := range g.files {
		nodes = append(nodes, p)
	}
	sort.Strings(nodes)

	adjacency := make(map[string][]string, len(nodes))
	fanIn := make(map[string]int, len(nodes))
	for _, from := range nodes {
		for to := range g.imports[from] {
			if _, ok := g.files[to]; ok {
				adjacency[from] = append(adjacency[from], to)
				fanIn[to]++
			}
		}
		sort.Strings(adjacency[from])
	}

	componentOf, components := stronglyConnectedComponents(nodes, adjacency)
	below := make(map[int]map[int]bool, len(components))
	for _, from := range nodes {
		for _, to := range adjacency[from] {
			a, b := componentOf[from], componentOf[to]
			if a == b {
				continue
			}
			if below[a] == nil {
				below[a] = make(map[int]bool)
			}
			below[a][b] = true
		}
	}

	depth := make(map[int]int, len(components))
	var depthOf func(int) int
	depthOf = func(c int) int {
		if d, ok := depth[c]; ok {
			return d
		}
		deepest := 0
		for next := range below[c] {
			if d := 1 + depthOf(next); d > deepest {
				deepest = d
			}
		}
		depth[c] = deepest
		return deepest
	}

	out := make(map[string]FileMetrics, len(nodes))
	for _, p := range nodes {
		fo := len(adjacency[p])
		out[p] = FileMetrics{
			Depth:      depthOf(componentOf[p]),
			FanIn:      fanIn[p],
			FanOut:     fo,
			Importance: Importance(fanIn[p], fo, len(g.files[p].Declarations)),
		}
	}
	return out
}

// stronglyConnectedComponents is Tarjan's algorithm.
func stronglyConnectedComponents(nodes []string, adjacency map[string][]string) (map[string]int, [][]string) {
	index := 0
	var stack []string
	onStack := make(map[string]bool, len(nodes))
	indexOf := make(map[string]int, len(nodes))
	low := make(map[string]int, len(nodes))
	componentOf := make(map[string]int, len(nodes))
	var components [][]string

	var connect func(string)
	connect = func(v string) {
		indexOf[v] = index
		low[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adjacency[v] {
			if _, seen := indexOf[w]; !seen {
				connect(w)
				low[v] = min(low[v], low[w])
			} else if onStack[w] {
				low[v] = min(low[v], indexOf[w])
			}
		}
		if low[v] != indexOf[v] {
			return
		}

		var component []string
		for {
			last := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[last] = false
			component = append(component, last)
			if last == v {
				break
			}
		}
		sort.Strings(component)
		id := len(components)
		components = append(components, component)
		for _, n := range component {
			componentOf[n] = id
		}
	}

	for _, n := range nodes {
		if _, seen := indexOf[n]; !seen {
			connect(n)
		}
	}
	return componentOf, components
}
