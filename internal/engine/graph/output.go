package graph

import (
	"fmt"
	"path/filepath"
	"strings"
)

type Format string

const (
	FormatText    Format = "text"
	FormatDOT     Format = "dot"
	FormatMermaid Format = "mermaid"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatDOT, FormatMermaid:
		return f, nil
	}
	return "", fmt.Errorf("unknown graph format %q (want text, dot or mermaid)", s)
}

// Render draws the graph with paths shown relative to root. Edges that close
// a cycle are highlighted and unresolved imports appear as dashed nodes.
func (g *Graph) Render(format Format, root string) (string, error) {
	label := func(p string) string {
		if root == "" {
			return p
		}
		if rel, err := filepath.Rel(root, p); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
		return p
	}
	cyclic := cycleEdgeSet(g.DetectCycles())
	edges := g.Edges()
	files := g.Files()

	var b strings.Builder
	switch format {
	case FormatText, "":
		for _, e := range edges {
			marker := ""
			if cyclic[e.From][e.To] {
				marker = " (cycle)"
			}
			fmt.Fprintf(&b, "%s -> %s%s\n", label(e.From), label(e.To), marker)
		}
		for _, p := range files {
			if node, ok := g.File(p); ok {
				for _, raw := range node.Broken {
					fmt.Fprintf(&b, "%s -> %s (unresolved)\n", label(p), raw)
				}
			}
		}
	case FormatDOT:
		b.WriteString("digraph imports {\n")
		b.WriteString("  rankdir=LR;\n")
		b.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\", fontsize=10];\n\n")
		for _, p := range files {
			fmt.Fprintf(&b, "  %q;\n", label(p))
		}
		for _, e := range edges {
			attrs := ""
			if cyclic[e.From][e.To] {
				attrs = " [color=red, penwidth=2]"
			}
			fmt.Fprintf(&b, "  %q -> %q%s;\n", label(e.From), label(e.To), attrs)
		}
		for _, p := range files {
			node, _ := g.File(p)
			for _, raw := range node.Broken {
				fmt.Fprintf(&b, "  %q [style=dashed, color=gray];\n", raw)
				fmt.Fprintf(&b, "  %q -> %q [style=dashed];\n", label(p), raw)
			}
		}
		b.WriteString("}\n")
	case FormatMermaid:
		b.WriteString("flowchart LR\n")
		ids := make(map[string]string)
		id := func(name string) string {
			if v, ok := ids[name]; ok {
				return v
			}
			v := fmt.Sprintf("n%d", len(ids))
			ids[name] = v
			return v
		}
		for _, p := range files {
			fmt.Fprintf(&b, "  %s[\"%s\"]\n", id(p), label(p))
		}
		var cycleLinks []int
		for n, e := range edges {
			fmt.Fprintf(&b, "  %s --> %s\n", id(e.From), id(e.To))
			if cyclic[e.From][e.To] {
				cycleLinks = append(cycleLinks, n)
			}
		}
		for _, n := range cycleLinks {
			fmt.Fprintf(&b, "  linkStyle %d stroke:#d33,stroke-width:2px\n", n)
		}
	default:
		return "", fmt.Errorf("unknown graph format %q", format)
	}
	return b.String(), nil
}

func cycleEdgeSet(cycles [][]string) map[string]map[string]bool {
	out := make(map[string]map[string]bool)
	for _, cycle := range cycles {
		for i, from := range cycle {
			to := cycle[(i+1)%len(cycle)]
			if out[from] == nil {
				out[from] = make(map[string]bool)
			}
			out[from][to] = true
		}
	}
	return out
}
