package types

import (
	"strings"

	"kite/internal/engine/classifier"
	"kite/internal/engine/imports"
	"kite/internal/engine/lexer"
	"kite/internal/engine/symbols"
)

const maxDepth = 16

// Engine infers value types. Names resolve in the unit first and then through
// its import closure when a resolver is set.
type Engine struct {
	resolver *imports.Resolver
	scoping  symbols.Scoping
}

func NewEngine(resolver *imports.Resolver, scoping symbols.Scoping) *Engine {
	return &Engine{resolver: resolver, scoping: scoping}
}

func (e *Engine) Scoping() symbols.Scoping {
	return e.scoping
}

// Infer returns the type of the expression starting at token i.
func (e *Engine) Infer(u *imports.Unit, i int) string {
	if u == nil || i < 0 {
		return Unknown
	}
	return e.expr(u, i, u.File.StatementEnd(i), 0)
}

// DeclaredOrInferred is the explicit type of d or, failing that, the type of
// its initializer.
func (e *Engine) DeclaredOrInferred(u *imports.Unit, d *symbols.Declaration) string {
	return e.declType(u, d, 0)
}

// Resolve finds the declaration a name refers to from offset.
func (e *Engine) Resolve(u *imports.Unit, name string, offset int) (*imports.Unit, *symbols.Declaration) {
	if d := u.Table.LookupAt(name, offset, e.scoping); d != nil {
		return u, d
	}
	if e.resolver != nil {
		return e.resolver.LookupFrom(u, name)
	}
	return nil, nil
}

// Function resolves name to a function declaration.
func (e *Engine) Function(u *imports.Unit, name string, offset int) (*imports.Unit, *symbols.Declaration) {
	du, d := e.Resolve(u, name, offset)
	if d == nil || d.Kind != symbols.Function {
		return nil, nil
	}
	return du, d
}

// Schema finds the schema called name, trying the last segment of dotted
// names as well.
func (e *Engine) Schema(u *imports.Unit, name string) (*imports.Unit, *symbols.SchemaDef) {
	for _, n := range candidatesFor(name) {
		if def, ok := u.Table.Schema(n); ok {
			return u, def
		}
		if e.resolver == nil {
			continue
		}
		if tu, d := e.resolver.LookupFrom(u, n); d != nil && d.Kind == symbols.Schema {
			if def, ok := tu.Table.Schema(n); ok {
				return tu, def
			}
		}
	}
	return nil, nil
}

// Component finds the component definition called name.
func (e *Engine) Component(u *imports.Unit, name string) (*imports.Unit, *symbols.ComponentDef) {
	for _, n := range candidatesFor(name) {
		if def, ok := u.Table.Component(n); ok {
			return u, def
		}
		if e.resolver == nil {
			continue
		}
		if tu, d := e.resolver.LookupFrom(u, n); d != nil && d.Kind == symbols.Component && !d.Instance {
			if def, ok := tu.Table.Component(n); ok {
				return tu, def
			}
		}
	}
	return nil, nil
}

func candidatesFor(name string) []string {
	if i := strings.LastIndex(name, "."); i >= 0 && i < len(name)-1 {
		return []string{name, name[i+1:]}
	}
	return []string{name}
}

func isGroup(k lexer.TokenKind) bool {
	switch k {
	case lexer.LParen, lexer.LBrace, lexer.LBracket, lexer.StringStart, lexer.InterpOpen:
		return true
	}
	return false
}

func (e *Engine) expr(u *imports.Unit, i, end, depth int) string {
	f := u.File
	if depth > maxDepth || i < 0 || i > end {
		return Unknown
	}

	var ops []int
	for j := i; j >= 0 && j <= end; j = f.Next(j) {
		k := f.Kind(j)
		if isGroup(k) && f.Match(j) > j {
			j = f.Match(j)
			continue
		}
		switch k {
		case lexer.Eq, lexer.NotEq, lexer.Lt, lexer.Le, lexer.Gt, lexer.Ge, lexer.And, lexer.Or, lexer.Not,
			lexer.Plus, lexer.Minus, lexer.Star, lexer.Slash, lexer.Percent, lexer.Question, lexer.Colon,
			lexer.Range, lexer.Arrow, lexer.FatArrow:
			ops = append(ops, j)
		}
	}
	if len(ops) == 0 {
		return e.primary(u, i, end, depth)
	}

	for n, op := range ops {
		if f.Kind(op) != lexer.Question {
			continue
		}
		for _, c := range ops[n+1:] {
			if f.Kind(c) == lexer.Colon {
				then := e.expr(u, f.NextCode(op), f.Prev(c), depth+1)
				els := e.expr(u, f.NextCode(c), end, depth+1)
				switch {
				case then == els:
					return then
				case then == Null:
					return els
				case els == Null:
					return then
				}
				return Unknown
			}
		}
		return Unknown
	}

	arithmetic, onlyPlus := false, true
	for _, op := range ops {
		switch f.Kind(op) {
		case lexer.Arrow, lexer.FatArrow, lexer.Colon:
			return Unknown
		case lexer.Eq, lexer.NotEq, lexer.Lt, lexer.Le, lexer.Gt, lexer.Ge, lexer.And, lexer.Or, lexer.Not:
			return Boolean
		case lexer.Range:
			return Array
		case lexer.Plus:
			arithmetic = true
		default:
			arithmetic = true
			onlyPlus = false
		}
	}
	if !arithmetic {
		return Unknown
	}
	if !onlyPlus {
		return Number
	}

	// String concatenation wins over addition.
	allNumbers := true
	from := i
	for _, op := range append(ops, -1) {
		to := end
		if op >= 0 {
			to = f.Prev(op)
		}
		t := Unknown
		if from >= 0 && from <= to {
			t = e.expr(u, from, to, depth+1)
		}
		if t == String {
			return String
		}
		if t != Number {
			allNumbers = false
		}
		if op >= 0 {
			from = f.NextCode(op)
		}
	}
	if allNumbers {
		return Number
	}
	return Unknown
}

func (e *Engine) primary(u *imports.Unit, i, end, depth int) string {
	f := u.File
	switch k := f.Kind(i); k {
	case lexer.Identifier:
		return e.identifier(u, i, end, depth)
	case lexer.LParen:
		if m := f.Match(i); m > i {
			return e.expr(u, f.NextCode(i), f.Prev(m), depth+1)
		}
		return Unknown
	default:
		return LiteralType(k)
	}
}

func (e *Engine) identifier(u *imports.Unit, i, end, depth int) string {
	f := u.File
	name := f.TokenText(i)
	offset := f.Span(i).Start
	next := f.Next(i)

	if f.Kind(next) == lexer.LParen {
		closeParen := f.Match(next)
		if closeParen < 0 {
			return Unknown
		}
		if after := f.Next(closeParen); after >= 0 && after <= end && f.Kind(after) == lexer.Dot {
			return Unknown
		}
		return e.callType(u, name, offset)
	}

	var chain []string
	j := next
	for j >= 0 && j <= end && f.Kind(j) == lexer.Dot && f.Kind(f.Next(j)) == lexer.Identifier {
		chain = append(chain, f.TokenText(f.Next(j)))
		j = f.Next(f.Next(j))
	}
	if j >= 0 && j <= end && (f.Kind(j) == lexer.LBracket || f.Kind(j) == lexer.LParen) {
		return Unknown
	}

	du, d := e.Resolve(u, name, offset)
	if d == nil {
		return Unknown
	}
	if len(chain) == 0 {
		return e.declType(du, d, depth+1)
	}
	return e.chainType(du, d, chain, depth+1)
}

func (e *Engine) callType(u *imports.Unit, name string, offset int) string {
	if _, d := e.Function(u, name, offset); d != nil {
		return Normalize(d.ReturnType)
	}
	return classifier.BuiltinFunctionTypes[name]
}

func (e *Engine) declType(u *imports.Unit, d *symbols.Declaration, depth int) string {
	if d == nil || depth > maxDepth {
		return Unknown
	}
	switch d.Kind {
	case symbols.Resource, symbols.Component:
		if d.Instance {
			return Normalize(d.Type)
		}
		return Unknown
	case symbols.Schema, symbols.TypeAlias, symbols.Function:
		return Unknown
	}
	if d.Type != "" {
		return Normalize(d.Type)
	}
	if d.Value >= 0 {
		return e.expr(u, d.Value, u.File.StatementEnd(d.Value), depth+1)
	}
	return Unknown
}

// target is what a member access is looked up in: an object literal or
// instance body, and/or a nominal type with declared properties.
type target struct {
	u   *imports.Unit
	obj int
	typ string
}

var noTarget = target{obj: -1}

func (e *Engine) targetOf(u *imports.Unit, d *symbols.Declaration, depth int) target {
	if d == nil || depth > maxDepth {
		return noTarget
	}
	switch d.Kind {
	case symbols.Resource, symbols.Component:
		if d.Instance {
			return target{u: u, obj: d.Body, typ: d.Type}
		}
		return noTarget
	}
	t := target{u: u, obj: -1}
	if IsCustom(d.Type) {
		t.typ = d.Type
	}
	if d.Value >= 0 {
		return e.valueTarget(u, d.Value, t, depth)
	}
	return t
}

// valueTarget follows an initializer: object literals become the lookup
// scope, and a bare identifier is followed to its own declaration.
func (e *Engine) valueTarget(u *imports.Unit, v int, fallback target, depth int) target {
	f := u.File
	switch f.Kind(v) {
	case lexer.LBrace:
		fallback.obj = v
		return fallback
	case lexer.Identifier:
		if f.StatementEnd(v) == v {
			if du, d := e.Resolve(u, f.TokenText(v), f.Span(v).Start); d != nil {
				next := e.targetOf(du, d, depth+1)
				if next.u != nil {
					return next
				}
			}
		}
	}
	return fallback
}

func (e *Engine) chainType(u *imports.Unit, d *symbols.Declaration, chain []string, depth int) string {
	t := e.targetOf(u, d, depth)
	typ := Unknown
	for _, name := range chain {
		if t.u == nil {
			return Unknown
		}
		typ, t = e.member(t, name, depth+1)
	}
	return typ
}

func (e *Engine) member(t target, name string, depth int) (string, target) {
	if depth > maxDepth {
		return Unknown, noTarget
	}
	f := t.u.File
	if t.obj >= 0 {
		if a, ok := symbols.LookupAssignment(symbols.Assignments(f, t.obj), name); ok && a.Value >= 0 {
			typ := e.expr(t.u, a.Value, f.StatementEnd(a.Value), depth+1)
			next := e.valueTarget(t.u, a.Value, target{u: t.u, obj: -1}, depth+1)
			if typ != Unknown {
				return typ, next
			}
		}
	}
	if t.typ == "" {
		return Unknown, noTarget
	}
	if su, s := e.Schema(t.u, t.typ); s != nil {
		if p, ok := s.Property(name); ok {
			return e.propertyType(su, p, depth)
		}
	}
	if cu, c := e.Component(t.u, t.typ); c != nil {
		if p, ok := c.Member(name); ok {
			return e.propertyType(cu, p, depth)
		}
	}
	return Unknown, noTarget
}

// MemberDefinition locates what the member access target at token i names:
// a schema or component property when the chain is typed, otherwise an entry
// of an object literal. It returns a nil unit when the chain cannot be followed.
func (e *Engine) MemberDefinition(u *imports.Unit, i int) (*imports.Unit, int) {
	f := u.File
	if f.Kind(i) != lexer.Identifier {
		return nil, -1
	}
	chain := []string{f.TokenText(i)}
	root := -1
	for j := f.Prev(i); f.Kind(j) == lexer.Dot && f.Kind(f.Prev(j)) == lexer.Identifier; j = f.Prev(j) {
		j = f.Prev(j)
		root = j
		chain = append(chain, f.TokenText(j))
	}
	if root < 0 {
		return nil, -1
	}
	du, d := e.Resolve(u, f.TokenText(root), f.Span(root).Start)
	if d == nil {
		return nil, -1
	}
	t := e.targetOf(du, d, 0)
	for k := len(chain) - 2; k > 0; k-- {
		if t.u == nil {
			return nil, -1
		}
		_, t = e.member(t, chain[k], 1)
	}
	return e.memberDefinition(t, chain[0])
}

func (e *Engine) memberDefinition(t target, name string) (*imports.Unit, int) {
	if t.u == nil {
		return nil, -1
	}
	if t.typ != "" {
		if su, s := e.Schema(t.u, t.typ); s != nil {
			if p, ok := s.Property(name); ok {
				return su, p.Token
			}
		}
		if cu, c := e.Component(t.u, t.typ); c != nil {
			if p, ok := c.Member(name); ok {
				return cu, p.Token
			}
		}
	}
	if t.obj >= 0 {
		if a, ok := symbols.LookupAssignment(symbols.Assignments(t.u.File, t.obj), name); ok {
			return t.u, a.Token
		}
	}
	return nil, -1
}

func (e *Engine) propertyType(u *imports.Unit, p symbols.Property, depth int) (string, target) {
	next := target{u: u, obj: -1}
	if IsCustom(p.Type) {
		next.typ = p.Type
	}
	typ := Normalize(p.Type)
	if p.Value >= 0 {
		if typ == Unknown {
			typ = e.expr(u, p.Value, u.File.StatementEnd(p.Value), depth+1)
		}
		next = e.valueTarget(u, p.Value, next, depth+1)
	}
	return typ, next
}

// AliasUnion renders the normalized union a type alias stands for, such as
// "number | string" for `type T = 1 | "a" | 2`.
func (e *Engine) AliasUnion(u *imports.Unit, d *symbols.Declaration) string {
	if d == nil || d.Kind != symbols.TypeAlias || d.Value < 0 {
		return Unknown
	}
	f := u.File
	end := f.StatementEnd(d.Value)
	var members []string
	start := d.Value
	flush := func(to int) {
		if start >= 0 && start <= to {
			members = append(members, e.memberText(u, start))
		}
	}
	for j := d.Value; j >= 0 && j <= end; j = f.Next(j) {
		if isGroup(f.Kind(j)) && f.Match(j) > j {
			j = f.Match(j)
			continue
		}
		if f.Kind(j) == lexer.Pipe {
			flush(f.Prev(j))
			start = f.NextCode(j)
		}
	}
	flush(end)
	return NormalizeUnion(members)
}

func (e *Engine) memberText(u *imports.Unit, i int) string {
	f := u.File
	if t := LiteralType(f.Kind(i)); t != Unknown {
		return t
	}
	if f.Kind(i) == lexer.Minus && f.Kind(f.Next(i)) == lexer.Number {
		return Number
	}
	return f.TokenText(i)
}
