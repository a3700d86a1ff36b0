// Package hints computes inline hints: inferred types after untyped
// declarations, the union a type alias stands for, and parameter names at
// call sites. Hints never change the source text.
package hints

import (
	"sort"

	"kite/internal/engine/classifier"
	"kite/internal/engine/imports"
	"kite/internal/engine/lexer"
	"kite/internal/engine/symbols"
	"kite/internal/engine/syntax"
	"kite/internal/engine/types"
)

type Kind int

const (
	KindType Kind = iota
	KindAlias
	KindParameter
)

func (k Kind) String() string {
	switch k {
	case KindType:
		return "type"
	case KindAlias:
		return "alias"
	case KindParameter:
		return "parameter"
	default:
		return "hint"
	}
}

// Hint is rendered at Offset. Type hints sit after the declared name,
// parameter hints before the argument.
type Hint struct {
	Offset int
	Kind   Kind
	Label  string
}

// Text is the label as an editor would show it.
func (h Hint) Text() string {
	switch h.Kind {
	case KindParameter:
		return h.Label + ":"
	case KindAlias:
		return "= " + h.Label
	default:
		return ": " + h.Label
	}
}

type Renderer struct {
	engine *types.Engine
}

func New(engine *types.Engine) *Renderer {
	return &Renderer{engine: engine}
}

// Hints returns every hint of u ordered by offset.
func (r *Renderer) Hints(u *imports.Unit) []Hint {
	if u == nil {
		return nil
	}
	var out []Hint
	out = append(out, r.declarationHints(u)...)
	out = append(out, r.parameterHints(u)...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}

// InRange keeps the hints whose offset falls inside span.
func (r *Renderer) InRange(u *imports.Unit, span syntax.Span) []Hint {
	var out []Hint
	for _, h := range r.Hints(u) {
		if h.Offset >= span.Start && h.Offset <= span.End {
			out = append(out, h)
		}
	}
	return out
}

func (r *Renderer) declarationHints(u *imports.Unit) []Hint {
	var out []Hint
	for _, d := range u.Table.All() {
		switch d.Kind {
		case symbols.Variable, symbols.Output:
			if d.Type != "" || d.Value < 0 {
				continue
			}
			if t := r.engine.Infer(u, d.Value); t != types.Unknown {
				out = append(out, Hint{Offset: d.Span.End, Kind: KindType, Label: t})
			}
		case symbols.TypeAlias:
			if t := r.engine.AliasUnion(u, d); t != types.Unknown {
				out = append(out, Hint{Offset: d.Span.End, Kind: KindAlias, Label: t})
			}
		}
	}
	return out
}

func (r *Renderer) parameterHints(u *imports.Unit) []Hint {
	f := u.File
	var out []Hint
	for i, role := range classifier.ClassifyAll(f) {
		if role != classifier.RoleReference || f.Kind(i) != lexer.Identifier {
			continue
		}
		open := f.Next(i)
		if f.Kind(open) != lexer.LParen || f.Match(open) < 0 {
			continue
		}
		_, fn := r.engine.Function(u, f.TokenText(i), f.Span(i).Start)
		if fn == nil {
			continue
		}
		for n, arg := range f.Statements(open) {
			if n >= len(fn.Params) {
				break
			}
			name := fn.Params[n].Name
			// `f(port)` already reads as the parameter name.
			if arg.First == arg.Last && f.TokenText(arg.First) == name {
				continue
			}
			out = append(out, Hint{Offset: f.Span(arg.First).Start, Kind: KindParameter, Label: name})
		}
	}
	return out
}
