package graph

import (
	"errors"
	"fmt"
	"sort"
)

var ErrImpactTargetNotFound = errors.New("impact target not found")

// ImpactReport says who is affected when Target changes. ExposedNames are the
// target's top-level declarations, listed only when something imports it.
type ImpactReport struct {
	Target              string
	DirectImporters     []string
	TransitiveImporters []string
	ExposedNames        []string
}

type ImpactTargetError struct {
	Target string
}

func (e *ImpactTargetError) Error() string {
	return fmt.Sprintf("%v: %s", ErrImpactTargetNotFound, e.Target)
}

func (e *ImpactTargetError) Unwrap() error {
	return ErrImpactTargetNotFound
}

func (g *Graph) AnalyzeImpact(path string) (ImpactReport, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	node, ok := g.files[path]
	if !ok {
		return ImpactReport{}, &ImpactTargetError{Target: path}
	}

	report := ImpactReport{Target: path}
	direct := make(map[string]bool, len(g.importedBy[path]))
	for importer := range g.importedBy[path] {
		direct[importer] = true
		report.DirectImporters = append(report.DirectImporters, importer)
	}
	sort.Strings(report.DirectImporters)

	seen := map[string]bool{path: true}
	queue := append([]string(nil), report.DirectImporters...)
	for _, p := range queue {
		seen[p] = true
	}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for next := range g.importedBy[curr] {
			if seen[next] {
				continue
			}
			seen[next] = true
			queue = append(queue, next)
			if !direct[next] {
				report.TransitiveImporters = append(report.TransitiveImporters, next)
			}
		}
	}
	sort.Strings(report.TransitiveImporters)

	if len(report.DirectImporters) > 0 {
		names := append([]string(nil), node.Declarations...)
		sort.Strings(names)
		report.ExposedNames = names
	}
	return report, nil
}
