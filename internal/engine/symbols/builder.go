package symbols

import (
	"strings"

	"kite/internal/engine/lexer"
	"kite/internal/engine/syntax"
)

// Build scans f once and records every declaration together with the scope
// it belongs to.
func Build(f *syntax.File) *Table {
	b := &builder{f: f, t: newTable(f)}
	b.block(-1, FileScope)
	return b.t
}

type builder struct {
	f *syntax.File
	t *Table
}

func (b *builder) block(open int, scope ScopeID) {
	for _, st := range b.f.Statements(open) {
		b.statement(st, scope)
	}
}

func (b *builder) statement(st syntax.Stmt, scope ScopeID) {
	f := b.f
	head := f.SkipDecorators(st.First)
	if head < 0 || head > st.Last {
		return
	}
	switch f.Kind(head) {
	case lexer.KwVar:
		b.variable(Variable, head, st, scope)
	case lexer.KwInput:
		b.variable(Input, head, st, scope)
	case lexer.KwOutput:
		b.variable(Output, head, st, scope)
	case lexer.KwType:
		b.alias(head, st, scope)
	case lexer.KwFun, lexer.KwInit:
		b.function(head, st, scope)
	case lexer.KwSchema:
		b.schema(head, st, scope)
	case lexer.KwResource:
		b.resource(head, st, scope)
	case lexer.KwComponent:
		b.component(head, st, scope)
	case lexer.KwFor:
		b.loop(head, st, scope)
	case lexer.KwImport:
	default:
		b.nested(head, st.Last, scope)
	}
}

func terminates(k lexer.TokenKind) bool {
	switch k {
	case lexer.Assign, lexer.PlusAssign, lexer.LBrace, lexer.LParen, lexer.KwIn, lexer.Semicolon,
		lexer.Colon, lexer.Comma, lexer.RParen, lexer.RBrace, lexer.RBracket:
		return true
	}
	return false
}

// typedName reads `type... name` starting at from. The last identifier before
// the terminator is the name; everything before it is the type text.
func typedName(f *syntax.File, from, last int) (name int, typ string, typeSpan syntax.Span, term int) {
	name, term = -1, -1
	var toks []int
	for j := from; j >= 0 && j <= last; j = f.Next(j) {
		k := f.Kind(j)
		if terminates(k) {
			term = j
			break
		}
		if k != lexer.Newline {
			toks = append(toks, j)
		}
	}
	for k := len(toks) - 1; k >= 0; k-- {
		if f.Kind(toks[k]) == lexer.Identifier {
			name = toks[k]
			toks = toks[:k]
			break
		}
	}
	if name < 0 || len(toks) == 0 {
		return name, "", syntax.Span{}, term
	}
	var sb strings.Builder
	for _, j := range toks {
		sb.WriteString(f.TokenText(j))
	}
	return name, sb.String(), f.SpanOf(toks[0], toks[len(toks)-1]), term
}

// valueAfter returns the first token after an '=' terminator within last.
func valueAfter(f *syntax.File, term, last int) int {
	switch f.Kind(term) {
	case lexer.Assign, lexer.PlusAssign:
		if v := f.NextCode(term); v >= 0 && v <= last {
			return v
		}
	}
	return -1
}

func (b *builder) endOf(open int) int {
	if m := b.f.Match(open); m > open {
		return b.f.Span(m).End
	}
	return len(b.f.Text)
}

func (b *builder) declare(kind DeclKind, name int, scope ScopeID) *Declaration {
	return b.t.add(&Declaration{
		Name:  b.f.TokenText(name),
		Kind:  kind,
		Scope: scope,
		Token: name,
		Span:  b.f.Span(name),
		Value: -1,
		Body:  -1,
	})
}

func (b *builder) variable(kind DeclKind, head int, st syntax.Stmt, scope ScopeID) {
	f := b.f
	name, typ, typeSpan, term := typedName(f, f.Next(head), st.Last)
	if name < 0 {
		b.nested(head, st.Last, scope)
		return
	}
	d := b.declare(kind, name, scope)
	d.Type = typ
	d.TypeSpan = typeSpan
	d.Value = valueAfter(f, term, st.Last)
	if term >= 0 {
		b.nested(term, st.Last, scope)
	}
}

func (b *builder) alias(head int, st syntax.Stmt, scope ScopeID) {
	f := b.f
	name := f.Next(head)
	if f.Kind(name) != lexer.Identifier {
		return
	}
	d := b.declare(TypeAlias, name, scope)
	d.Value = valueAfter(f, f.Next(name), st.Last)
}

func (b *builder) function(head int, st syntax.Stmt, scope ScopeID) {
	f := b.f
	j := f.Next(head)
	nameTok := -1
	if f.Kind(j) == lexer.Identifier {
		nameTok = j
		j = f.Next(j)
	}
	if f.Kind(j) != lexer.LParen {
		b.nested(head, st.Last, scope)
		return
	}
	closeParen := f.Match(j)
	body := f.BodyOf(st)
	end := f.Span(st.Last).End
	if body >= 0 {
		end = b.endOf(body)
	}
	fnScope := b.t.addScope(ScopeFunction, scope, syntax.Span{Start: f.Span(j).Start, End: end})
	params := b.params(j, fnScope)

	var ret strings.Builder
	if closeParen > 0 {
		for k := f.Next(closeParen); k >= 0 && k <= st.Last && k != body; k = f.Next(k) {
			if f.Kind(k) != lexer.Newline {
				ret.WriteString(f.TokenText(k))
			}
		}
	}

	if nameTok >= 0 {
		d := b.declare(Function, nameTok, scope)
		d.Params = params
		d.ReturnType = ret.String()
		d.Body = body
	}
	if body >= 0 {
		b.block(body, fnScope)
	}
}

// params walks `type name, type name = default, ...`.
func (b *builder) params(open int, scope ScopeID) []Param {
	f := b.f
	closeParen := f.Match(open)
	last := closeParen
	if last < 0 {
		last = f.Len() - 1
	}
	var out []Param
	for j := f.Next(open); j >= 0 && j < last; {
		name, typ, _, term := typedName(f, j, last)
		if name >= 0 {
			d := b.declare(Parameter, name, scope)
			d.Type = typ
			out = append(out, Param{Name: d.Name, Type: typ, Token: name, Span: d.Span})
		}
		for term >= 0 && term < last && f.Kind(term) != lexer.Comma {
			if m := f.Match(term); m > term {
				term = m
			}
			term = f.Next(term)
		}
		if term < 0 || term >= last {
			break
		}
		j = f.Next(term)
	}
	return out
}

func (b *builder) schema(head int, st syntax.Stmt, scope ScopeID) {
	f := b.f
	name := f.Next(head)
	if f.Kind(name) != lexer.Identifier {
		return
	}
	d := b.declare(Schema, name, scope)
	d.Body = f.BodyOf(st)
}

func (b *builder) resource(head int, st syntax.Stmt, scope ScopeID) {
	f := b.f
	name, typ, typeSpan, _ := typedName(f, f.Next(head), st.Last)
	if name < 0 {
		b.nested(head, st.Last, scope)
		return
	}
	d := b.declare(Resource, name, scope)
	d.Type = typ
	d.TypeSpan = typeSpan
	d.Instance = true
	d.Body = f.BodyOf(st)
	if d.Body >= 0 {
		b.block(d.Body, scope)
	}
}

func (b *builder) component(head int, st syntax.Stmt, scope ScopeID) {
	f := b.f
	name, typ, typeSpan, _ := typedName(f, f.Next(head), st.Last)
	if name < 0 {
		b.nested(head, st.Last, scope)
		return
	}
	d := b.declare(Component, name, scope)
	d.Body = f.BodyOf(st)
	if typ != "" {
		d.Type = typ
		d.TypeSpan = typeSpan
		d.Instance = true
		if d.Body >= 0 {
			b.block(d.Body, scope)
		}
		return
	}
	if d.Body >= 0 {
		inner := b.t.addScope(ScopeComponent, scope, syntax.Span{Start: f.Span(d.Body).Start, End: b.endOf(d.Body)})
		b.block(d.Body, inner)
	}
}

func (b *builder) loop(head int, st syntax.Stmt, scope ScopeID) {
	f := b.f
	body := f.BodyOf(st)
	end := f.Span(st.Last).End
	if body >= 0 {
		end = b.endOf(body)
	}
	loopScope := b.t.addScope(ScopeLoop, scope, syntax.Span{Start: f.Span(head).Start, End: end})

	j := f.Next(head)
	for ; j >= 0 && j <= st.Last; j = f.Next(j) {
		k := f.Kind(j)
		if k == lexer.KwIn || k == lexer.LBrace {
			break
		}
		if k == lexer.Identifier {
			b.declare(LoopVariable, j, loopScope)
		}
	}
	if f.Kind(j) == lexer.KwIn {
		to := st.Last
		if body >= 0 {
			to = body - 1
		}
		b.nested(j, to, scope)
	}
	if body >= 0 {
		b.block(body, loopScope)
	}
}

// nested looks inside an expression for blocks and list comprehensions.
func (b *builder) nested(from, to int, scope ScopeID) {
	f := b.f
	for j := from; j >= 0 && j <= to; j = f.Next(j) {
		switch f.Kind(j) {
		case lexer.LBrace:
			if f.BlockKind(j) == syntax.BlockObject {
				b.block(j, scope)
			} else {
				inner := b.t.addScope(ScopeBlock, scope, syntax.Span{Start: f.Span(j).Start, End: b.endOf(j)})
				b.block(j, inner)
			}
		case lexer.LBracket:
			if f.Kind(f.NextCode(j)) != lexer.KwFor {
				continue
			}
			b.comprehension(j, scope)
		default:
			continue
		}
		m := f.Match(j)
		if m < 0 {
			return
		}
		j = m
	}
}

// comprehension handles `[for x in items: expr]`.
func (b *builder) comprehension(open int, scope ScopeID) {
	f := b.f
	closeBracket := f.Match(open)
	last := closeBracket
	if last < 0 {
		last = f.Len() - 1
	}
	loopScope := b.t.addScope(ScopeLoop, scope, syntax.Span{Start: f.Span(open).Start, End: b.endOf(open)})
	j := f.Next(f.NextCode(open))
	for ; j >= 0 && j <= last; j = f.Next(j) {
		k := f.Kind(j)
		if k == lexer.KwIn || k == lexer.Colon {
			break
		}
		if k == lexer.Identifier {
			b.declare(LoopVariable, j, loopScope)
		}
	}
	if j >= 0 && j < last {
		b.nested(f.Next(j), last-1, loopScope)
	}
}
