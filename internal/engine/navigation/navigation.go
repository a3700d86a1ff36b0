// Package navigation answers go-to-declaration and find-usages queries for a
// caret position.
package navigation

import (
	"sort"

	"kite/internal/engine/classifier"
	"kite/internal/engine/imports"
	"kite/internal/engine/lexer"
	"kite/internal/engine/symbols"
	"kite/internal/engine/syntax"
	"kite/internal/engine/types"
)

// Location is a target span with its 1-based start position.
type Location struct {
	Path   string
	Span   syntax.Span
	Line   int
	Column int
}

func locate(u *imports.Unit, span syntax.Span) Location {
	line, col := u.File.Position(span.Start)
	return Location{Path: u.Path, Span: span, Line: line, Column: col}
}

type Navigator struct {
	engine *types.Engine
}

func New(engine *types.Engine) *Navigator {
	return &Navigator{engine: engine}
}

// Goto returns declaration locations for the occurrence at offset. When the
// occurrence is itself a declaration name the usages are returned instead.
// Positions inside `${...}` and on `$name` interpolations are supported.
func (n *Navigator) Goto(u *imports.Unit, offset int) []Location {
	if u == nil {
		return nil
	}
	f := u.File
	i := f.TokenAt(offset)
	if f.Kind(i) == lexer.InterpOpen {
		i = f.NextCode(i)
	}
	if k := f.Kind(i); k != lexer.Identifier && k != lexer.InterpSimple {
		return nil
	}

	switch classifier.Classify(f, i) {
	case classifier.RoleDeclarationName:
		if d := u.Table.DeclarationAt(i); d != nil {
			return n.usages(u, d)
		}
		return n.bodyProperty(u, i)
	case classifier.RolePropertyDefinitionName:
		return n.propertyUsages(u, i)
	case classifier.RoleReference:
		return n.declaration(u, classifier.Name(f, i), refSpan(f, i).Start, nil)
	case classifier.RoleTypeAnnotation:
		return n.declaration(u, f.TokenText(i), f.Span(i).Start, isTypeDecl)
	case classifier.RolePropertyAccessTarget:
		if du, tok := n.engine.MemberDefinition(u, i); du != nil {
			return []Location{locate(du, du.File.Span(tok))}
		}
	}
	return nil
}

func refSpan(f *syntax.File, i int) syntax.Span {
	span := f.Span(i)
	if f.Kind(i) == lexer.InterpSimple {
		span.Start++
	}
	return span
}

func isTypeDecl(d *symbols.Declaration) bool {
	switch d.Kind {
	case symbols.Schema, symbols.TypeAlias:
		return true
	case symbols.Component:
		return !d.Instance
	}
	return false
}

func (n *Navigator) declaration(u *imports.Unit, name string, offset int, accept func(*symbols.Declaration) bool) []Location {
	du, d := n.engine.Resolve(u, name, offset)
	if d != nil && (accept == nil || accept(d)) {
		return []Location{locate(du, d.Span)}
	}
	if accept == nil {
		return nil
	}
	// The flat namespace can hand back a value that shares the type's name.
	if su, s := n.engine.Schema(u, name); s != nil && s.Decl != nil {
		return []Location{locate(su, s.Decl.Span)}
	}
	if cu, c := n.engine.Component(u, name); c != nil && c.Decl != nil {
		return []Location{locate(cu, c.Decl.Span)}
	}
	return nil
}

// usages lists reference occurrences of d in its own file. Type
// declarations also collect the places their name is used as a type.
func (n *Navigator) usages(u *imports.Unit, d *symbols.Declaration) []Location {
	f := u.File
	mode := n.engine.Scoping()
	var out []Location
	for i, role := range classifier.ClassifyAll(f) {
		switch role {
		case classifier.RoleReference:
		case classifier.RoleTypeAnnotation:
			if !isTypeDecl(d) {
				continue
			}
		default:
			continue
		}
		if classifier.Name(f, i) != d.Name {
			continue
		}
		span := refSpan(f, i)
		if role == classifier.RoleReference && mode == symbols.ScopingLexical && u.Table.LookupAt(d.Name, span.Start, mode) != d {
			continue
		}
		out = append(out, locate(u, span))
	}
	if sc, ok := u.Table.Scope(d.Scope); ok && sc.Kind == symbols.ScopeComponent {
		out = append(out, n.propertyUsages(u, d.Token)...)
		sortLocations(out)
	}
	return out
}

func sortLocations(ls []Location) {
	sort.SliceStable(ls, func(a, b int) bool { return ls[a].Span.Start < ls[b].Span.Start })
}

// bodyProperty handles `name = value` inside a resource or component
// instance body: it jumps to the schema property or component input.
func (n *Navigator) bodyProperty(u *imports.Unit, i int) []Location {
	f := u.File
	owner := instanceOwning(u.Table, f.EnclosingBrace(i))
	if owner == nil {
		return nil
	}
	name := f.TokenText(i)
	if owner.Kind == symbols.Resource {
		if su, s := n.engine.Schema(u, owner.Type); s != nil {
			if p, ok := s.Property(name); ok {
				return []Location{locate(su, p.Span)}
			}
		}
		return nil
	}
	if cu, c := n.engine.Component(u, owner.Type); c != nil {
		if p, ok := c.Input(name); ok {
			return []Location{locate(cu, p.Span)}
		}
	}
	return nil
}

func instanceOwning(t *symbols.Table, brace int) *symbols.Declaration {
	if brace < 0 {
		return nil
	}
	for _, d := range t.All() {
		if d.Instance && d.Body == brace {
			return d
		}
	}
	return nil
}

// propertyUsages lists the assignments to a schema property or component
// member in instance bodies of this file, and member accesses that resolve
// to it.
func (n *Navigator) propertyUsages(u *imports.Unit, i int) []Location {
	f := u.File
	name := f.TokenText(i)
	var out []Location
	for _, d := range u.Table.All() {
		if !d.Instance || d.Body < 0 {
			continue
		}
		for _, a := range symbols.Assignments(f, d.Body) {
			if a.Name != name {
				continue
			}
			if n.definesAt(u, d, name, i) {
				out = append(out, locate(u, f.Span(a.Token)))
			}
		}
	}
	for j, role := range classifier.ClassifyAll(f) {
		if role != classifier.RolePropertyAccessTarget || f.TokenText(j) != name {
			continue
		}
		if du, tok := n.engine.MemberDefinition(u, j); du == u && tok == i {
			out = append(out, locate(u, f.Span(j)))
		}
	}
	sortLocations(out)
	return out
}

func (n *Navigator) definesAt(u *imports.Unit, inst *symbols.Declaration, name string, tok int) bool {
	if inst.Kind == symbols.Resource {
		su, s := n.engine.Schema(u, inst.Type)
		p, ok := s.Property(name)
		return ok && su == u && p.Token == tok
	}
	cu, c := n.engine.Component(u, inst.Type)
	p, ok := c.Input(name)
	return ok && cu == u && p.Token == tok
}
