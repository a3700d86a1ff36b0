package imports

import (
	"strings"

	"kite/internal/engine/syntax"
)

type IssueKind int

const (
	IssueBrokenPath IssueKind = iota
	IssueEmptyPath
	IssueOrder
	IssueUnused
	IssueDuplicate
)

func (k IssueKind) String() string {
	switch k {
	case IssueBrokenPath:
		return "broken-import"
	case IssueEmptyPath:
		return "empty-import-path"
	case IssueOrder:
		return "import-order"
	case IssueUnused:
		return "unused-import"
	case IssueDuplicate:
		return "duplicate-import"
	default:
		return "import"
	}
}

// Issue is a problem with one import statement. Subject is the import path,
// or the symbol name for unused named imports.
type Issue struct {
	Kind    IssueKind
	Span    syntax.Span
	Subject string
}

// Issues checks the import statements of u. refs counts the names the file
// references; an import is used when at least one name it brings in appears
// there.
func (r *Resolver) Issues(u *Unit, refs map[string]int) []Issue {
	var out []Issue
	seen := make(map[string]bool, len(u.Edges))

	for _, e := range u.Edges {
		if e.Late {
			out = append(out, Issue{Kind: IssueOrder, Span: u.File.Span(e.Keyword), Subject: e.Path})
		}
		if !e.HasPath() || strings.TrimSpace(e.Path) == "" {
			span := e.PathSpan
			if !e.HasPath() {
				span = e.Span
			}
			out = append(out, Issue{Kind: IssueEmptyPath, Span: span})
			continue
		}

		target, ok := r.Resolve(u.Path, e.Path)
		key := e.Path
		if ok {
			key = target
		}
		if seen[key] {
			out = append(out, Issue{Kind: IssueDuplicate, Span: e.PathSpan, Subject: e.Path})
			continue
		}
		seen[key] = true

		if !ok {
			out = append(out, Issue{Kind: IssueBrokenPath, Span: e.PathSpan, Subject: e.Path})
			continue
		}

		if !e.Wildcard {
			for n, name := range e.Symbols {
				if !hasSymbolUse(refs, name) {
					out = append(out, Issue{Kind: IssueUnused, Span: u.File.Span(e.SymbolTokens[n]), Subject: name})
				}
			}
			continue
		}
		if !r.wildcardUsed(target, refs) {
			out = append(out, Issue{Kind: IssueUnused, Span: e.PathSpan, Subject: e.Path})
		}
	}
	return out
}

func (r *Resolver) wildcardUsed(target string, refs map[string]int) bool {
	tu, err := r.loader.Load(target)
	if err != nil {
		// Unreadable targets are reported elsewhere; do not pile on.
		return true
	}
	names := tu.Table.Names()
	r.CollectDeclaredNames(target, names)
	for name := range names {
		if hasSymbolUse(refs, name) {
			return true
		}
	}
	return false
}

func hasSymbolUse(refs map[string]int, name string) bool {
	if name == "" {
		return true
	}
	return refs[name] > 0
}
