package syntax

import "kite/internal/engine/lexer"

// BlockKind says what construct a '{' opens.
type BlockKind int

const (
	BlockNone BlockKind = iota
	BlockSchema
	BlockResource
	BlockComponent
	BlockFunction
	BlockFor
	BlockControl
	BlockObject
	BlockOther
)

func (k BlockKind) String() string {
	switch k {
	case BlockSchema:
		return "schema"
	case BlockResource:
		return "resource"
	case BlockComponent:
		return "component"
	case BlockFunction:
		return "function"
	case BlockFor:
		return "for"
	case BlockControl:
		return "control"
	case BlockObject:
		return "object"
	case BlockOther:
		return "other"
	default:
		return "none"
	}
}

// Stmt is a statement as an inclusive range of token indices.
type Stmt struct {
	First int
	Last  int
}

func (s Stmt) Contains(i int) bool {
	return i >= s.First && i <= s.Last
}

func isOpener(k lexer.TokenKind) bool {
	_, ok := closerOf[k]
	return ok
}

func isCloser(k lexer.TokenKind) bool {
	_, ok := openerOf[k]
	return ok
}

// splitsAt reports whether token i ends a statement. Commas only separate
// statements inside brackets, so top-level import lists stay whole.
func (f *File) splitsAt(i int) bool {
	switch f.Kind(i) {
	case lexer.Newline, lexer.Semicolon:
		return true
	case lexer.Comma:
		return f.Owner(i) >= 0
	}
	return false
}

// BlockKind reports the construct opened by the '{' at index i.
func (f *File) BlockKind(i int) BlockKind {
	if k, ok := f.block[i]; ok {
		return k
	}
	return BlockNone
}

func (f *File) classifyBlock(i int) BlockKind {
	switch f.Kind(f.PrevCode(i)) {
	case lexer.Assign, lexer.PlusAssign, lexer.Colon, lexer.LParen, lexer.Comma, lexer.LBracket,
		lexer.KwReturn, lexer.InterpOpen, lexer.LBrace, lexer.Question, lexer.Plus, lexer.EOF,
		lexer.FatArrow, lexer.Arrow, lexer.Or, lexer.And:
		return BlockObject
	}

	head := f.SkipDecorators(f.StatementStart(i))
	switch f.Kind(head) {
	case lexer.KwSchema:
		return BlockSchema
	case lexer.KwResource:
		return BlockResource
	case lexer.KwComponent:
		return BlockComponent
	case lexer.KwFun, lexer.KwInit:
		return BlockFunction
	case lexer.KwFor:
		return BlockFor
	case lexer.KwIf, lexer.KwElse, lexer.KwWhile:
		return BlockControl
	}
	if f.Kind(f.PrevCode(i)) == lexer.KwElse {
		return BlockControl
	}
	return BlockOther
}

// StatementStart walks back from i to the first token of its statement,
// jumping over closed bracket groups.
func (f *File) StatementStart(i int) int {
	j := i
	for {
		p := f.Prev(j)
		if p < 0 || f.splitsAt(p) {
			return j
		}
		k := f.Kind(p)
		if isOpener(k) {
			return j
		}
		if isCloser(k) {
			if m := f.Match(p); m >= 0 {
				j = m
				continue
			}
		}
		j = p
	}
}

// StatementEnd walks forward from i to the last token of its statement.
func (f *File) StatementEnd(i int) int {
	j := i
	if isOpener(f.Kind(j)) && f.Match(j) > j {
		j = f.Match(j)
	}
	for {
		n := f.Next(j)
		if n < 0 || f.splitsAt(n) {
			return j
		}
		k := f.Kind(n)
		if isCloser(k) {
			return j
		}
		if isOpener(k) && f.Match(n) > n {
			j = f.Match(n)
			continue
		}
		j = n
	}
}

// StatementOf returns the statement containing token i.
func (f *File) StatementOf(i int) Stmt {
	start := f.StatementStart(i)
	return Stmt{First: start, Last: f.StatementEnd(start)}
}

// Statements lists the statements directly inside the opener at index open,
// or at file level when open is -1.
func (f *File) Statements(open int) []Stmt {
	from, to := 0, len(f.Tokens)
	if open >= 0 {
		from = open + 1
		to = len(f.Tokens)
		if m := f.Match(open); m > open {
			to = m
		}
	}

	var out []Stmt
	cur := Stmt{First: -1, Last: -1}
	flush := func() {
		if cur.First >= 0 {
			out = append(out, cur)
		}
		cur = Stmt{First: -1, Last: -1}
	}
	for i := from; i < to; i++ {
		k := f.Tokens[i].Kind
		if k.IsTrivia() {
			continue
		}
		if f.splitsAt(i) && f.Owner(i) == open {
			flush()
			continue
		}
		if isCloser(k) && f.Owner(i) == open && f.Match(i) < 0 {
			// Stray closer at this level; it belongs to no statement.
			flush()
			continue
		}
		if cur.First < 0 {
			cur.First = i
		}
		cur.Last = i
		if isOpener(k) && f.Match(i) > i && f.Match(i) < to {
			i = f.Match(i)
			cur.Last = i
		}
	}
	flush()
	return out
}

// SkipDecorators returns the first token after any leading @name(...)
// decorators starting at i, or -1 if the statement is only decorators.
func (f *File) SkipDecorators(i int) int {
	for f.Kind(i) == lexer.At {
		i = f.Next(i)
		for f.Kind(i) == lexer.Identifier && f.Kind(f.Next(i)) == lexer.Dot {
			i = f.Next(f.Next(i))
		}
		if f.Kind(i) != lexer.Identifier {
			return -1
		}
		n := f.Next(i)
		if f.Kind(n) == lexer.LParen && f.Match(n) > n {
			n = f.Next(f.Match(n))
		}
		for f.Kind(n) == lexer.Newline {
			n = f.Next(n)
		}
		i = n
	}
	return i
}

// BodyOf returns the '{' that opens the body of the statement, or -1.
func (f *File) BodyOf(st Stmt) int {
	for i := st.First; i >= 0 && i <= st.Last; i = f.Next(i) {
		if f.Tokens[i].Kind == lexer.LBrace {
			return i
		}
		if isOpener(f.Tokens[i].Kind) && f.Match(i) > i {
			i = f.Match(i)
		}
	}
	return -1
}

// ExprSpan covers the expression from token i to the end of its statement.
func (f *File) ExprSpan(i int) Span {
	return f.SpanOf(i, f.StatementEnd(i))
}

// LineStart reports whether token i is the first code on its line within its
// bracket group.
func (f *File) LineStart(i int) bool {
	p := f.Prev(i)
	if p < 0 {
		return true
	}
	switch f.Kind(p) {
	case lexer.Newline, lexer.Semicolon, lexer.LBrace:
		return true
	case lexer.Comma:
		return f.Owner(p) >= 0 && f.BlockKind(f.Owner(p)) != BlockNone
	}
	return false
}
