package checker

import (
	"fmt"

	"kite/internal/engine/classifier"
	"kite/internal/engine/imports"
	"kite/internal/engine/lexer"
	"kite/internal/engine/symbols"
	"kite/internal/engine/syntax"
	"kite/internal/engine/types"
)

type Options struct {
	Scoping  symbols.Scoping
	Builtins classifier.Builtins
}

// Checker is safe for concurrent use as long as its resolver's loader is.
type Checker struct {
	resolver *imports.Resolver
	engine   *types.Engine
	opts     Options
}

func New(resolver *imports.Resolver, opts Options) *Checker {
	return &Checker{
		resolver: resolver,
		engine:   types.NewEngine(resolver, opts.Scoping),
		opts:     opts,
	}
}

func (c *Checker) Engine() *types.Engine {
	return c.engine
}

// Check analyses one unit and returns its diagnostics ordered by position.
func (c *Checker) Check(u *imports.Unit) []Diagnostic {
	roles := classifier.ClassifyAll(u.File)
	refs := ReferenceCounts(u.File, roles)

	var out []Diagnostic
	out = append(out, c.importDiagnostics(u, refs)...)
	out = append(out, c.unresolvedSymbols(u, roles)...)
	out = append(out, c.typeMismatches(u, roles)...)
	if c.opts.Scoping == symbols.ScopingLexical {
		out = append(out, c.shadowing(u)...)
	}
	sortDiagnostics(out)
	return out
}

// ReferenceCounts counts reference occurrences by name.
func ReferenceCounts(f *syntax.File, roles []classifier.Role) map[string]int {
	refs := make(map[string]int)
	for i, role := range roles {
		if role == classifier.RoleReference {
			refs[classifier.Name(f, i)]++
		}
	}
	return refs
}

func (c *Checker) importDiagnostics(u *imports.Unit, refs map[string]int) []Diagnostic {
	if c.resolver == nil {
		return nil
	}
	var out []Diagnostic
	for _, is := range c.resolver.Issues(u, refs) {
		d := Diagnostic{Path: u.Path, Span: is.Span, Severity: SeverityWarning, Code: is.Kind.String()}
		switch is.Kind {
		case imports.IssueBrokenPath:
			d.Severity = SeverityError
			d.Message = fmt.Sprintf("Cannot resolve import path '%s'", is.Subject)
		case imports.IssueEmptyPath:
			d.Message = "Empty import path"
		case imports.IssueOrder:
			d.Message = "Import statements must precede other statements"
		case imports.IssueUnused:
			d.Message = fmt.Sprintf("Unused import '%s'", is.Subject)
		case imports.IssueDuplicate:
			d.Message = fmt.Sprintf("Duplicate import '%s'", is.Subject)
		}
		out = append(out, d)
	}
	return out
}

func (c *Checker) unresolvedSymbols(u *imports.Unit, roles []classifier.Role) []Diagnostic {
	f := u.File
	var imported map[string]bool
	var out []Diagnostic
	for i, role := range roles {
		if role != classifier.RoleReference {
			continue
		}
		name := classifier.Name(f, i)
		if name == "" || c.opts.Builtins.Exempt(name) {
			continue
		}
		span := f.Span(i)
		if f.Kind(i) == lexer.InterpSimple {
			span.Start++
		}
		if u.Table.Visible(name, span.Start, c.opts.Scoping) {
			continue
		}
		if imported == nil {
			imported = make(map[string]bool)
			if c.resolver != nil {
				c.resolver.CollectFrom(u, imported)
			}
		}
		if imported[name] {
			continue
		}
		out = append(out, unresolved(u.Path, span, name))
	}
	return out
}

func (c *Checker) typeMismatches(u *imports.Unit, roles []classifier.Role) []Diagnostic {
	f := u.File
	var out []Diagnostic
	check := func(declared string, value int, name string) {
		if value < 0 || declared == "" {
			return
		}
		actual := c.engine.Infer(u, value)
		if !types.Compatible(declared, actual) {
			out = append(out, mismatch(u.Path, f.ExprSpan(value), types.Normalize(declared), actual, name))
		}
	}

	for _, d := range u.Table.All() {
		switch d.Kind {
		case symbols.Variable, symbols.Input, symbols.Output:
			check(d.Type, d.Value, d.Name)
		case symbols.Resource:
			if d.Body < 0 {
				continue
			}
			_, schema := c.engine.Schema(u, d.Type)
			if schema == nil {
				continue
			}
			for _, a := range symbols.Assignments(f, d.Body) {
				if p, ok := schema.Property(a.Name); ok {
					check(p.Type, a.Value, a.Name)
				}
			}
		case symbols.Component:
			if !d.Instance || d.Body < 0 {
				continue
			}
			_, comp := c.engine.Component(u, d.Type)
			if comp == nil {
				continue
			}
			for _, a := range symbols.Assignments(f, d.Body) {
				if p, ok := comp.Input(a.Name); ok {
					check(p.Type, a.Value, a.Name)
				}
			}
		}
	}

	for i, role := range roles {
		if role != classifier.RoleReference || f.Kind(i) != lexer.Identifier {
			continue
		}
		open := f.Next(i)
		if f.Kind(open) != lexer.LParen || f.Match(open) < 0 {
			continue
		}
		_, fn := c.engine.Function(u, f.TokenText(i), f.Span(i).Start)
		if fn == nil {
			continue
		}
		for n, arg := range f.Statements(open) {
			if n >= len(fn.Params) {
				break
			}
			check(fn.Params[n].Type, arg.First, fn.Params[n].Name)
		}
	}
	return out
}

func (c *Checker) shadowing(u *imports.Unit) []Diagnostic {
	var out []Diagnostic
	for _, d := range u.Table.Shadowed() {
		out = append(out, Diagnostic{
			Path:     u.Path,
			Span:     d.Span,
			Severity: SeverityWarning,
			Code:     CodeShadowed,
			Message:  fmt.Sprintf("Declaration '%s' shadows an outer declaration", d.Name),
		})
	}
	return out
}
