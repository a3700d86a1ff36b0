// Package syntax indexes a token stream so analysis can walk siblings,
// brackets and statements without a parse tree. Every link is a token index;
// -1 means "none".
package syntax

import (
	"kite/internal/engine/lexer"
)

// Span is a half-open byte range.
type Span struct {
	Start int
	End   int
}

func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

func (s Span) Len() int {
	return s.End - s.Start
}

// File is one source text and its indexed tokens.
type File struct {
	Path   string
	Text   string
	Tokens []lexer.Token

	prev  []int
	next  []int
	match []int
	// owner is the innermost open bracket enclosing each token.
	owner []int
	depth []int
	lines []int
	block map[int]BlockKind
}

// Parse lexes text and indexes the result.
func Parse(path, text string) *File {
	return FromTokens(path, text, lexer.Lex(text))
}

// FromTokens indexes an existing token stream for text.
func FromTokens(path, text string, tokens []lexer.Token) *File {
	f := &File{
		Path:   path,
		Text:   text,
		Tokens: tokens,
		prev:   make([]int, len(tokens)),
		next:   make([]int, len(tokens)),
		match:  make([]int, len(tokens)),
		owner:  make([]int, len(tokens)),
		depth:  make([]int, len(tokens)),
	}
	f.linkSiblings()
	f.linkBrackets()
	f.indexLines()
	f.block = make(map[int]BlockKind)
	for i, tok := range tokens {
		if tok.Kind == lexer.LBrace {
			f.block[i] = f.classifyBlock(i)
		}
	}
	return f
}

func (f *File) linkSiblings() {
	last := -1
	for i, tok := range f.Tokens {
		f.prev[i] = last
		if !tok.Kind.IsTrivia() {
			last = i
		}
	}
	last = -1
	for i := len(f.Tokens) - 1; i >= 0; i-- {
		f.next[i] = last
		if !f.Tokens[i].Kind.IsTrivia() {
			last = i
		}
	}
}

var closerOf = map[lexer.TokenKind]lexer.TokenKind{
	lexer.LParen:      lexer.RParen,
	lexer.LBrace:      lexer.RBrace,
	lexer.LBracket:    lexer.RBracket,
	lexer.InterpOpen:  lexer.InterpClose,
	lexer.StringStart: lexer.StringEnd,
}

var openerOf = map[lexer.TokenKind]lexer.TokenKind{
	lexer.RParen:      lexer.LParen,
	lexer.RBrace:      lexer.LBrace,
	lexer.RBracket:    lexer.LBracket,
	lexer.InterpClose: lexer.InterpOpen,
	lexer.StringEnd:   lexer.StringStart,
}

func (f *File) linkBrackets() {
	stack := make([]int, 0, 16)
	for i, tok := range f.Tokens {
		f.match[i] = -1
		if opener, ok := openerOf[tok.Kind]; ok {
			// Pop to the nearest matching opener; openers skipped on the way
			// stay unmatched.
			for j := len(stack) - 1; j >= 0; j-- {
				if f.Tokens[stack[j]].Kind == opener {
					f.match[stack[j]] = i
					f.match[i] = stack[j]
					stack = stack[:j]
					break
				}
			}
		}
		f.owner[i] = -1
		if len(stack) > 0 {
			f.owner[i] = stack[len(stack)-1]
		}
		f.depth[i] = len(stack)
		if _, ok := closerOf[tok.Kind]; ok {
			stack = append(stack, i)
		}
	}
}

func (f *File) indexLines() {
	f.lines = []int{0}
	for i := 0; i < len(f.Text); i++ {
		if f.Text[i] == '\n' {
			f.lines = append(f.lines, i+1)
		}
	}
}

func (f *File) Len() int {
	return len(f.Tokens)
}

func (f *File) valid(i int) bool {
	return i >= 0 && i < len(f.Tokens)
}

// Kind returns the kind of token i, or lexer.EOF out of range.
func (f *File) Kind(i int) lexer.TokenKind {
	if !f.valid(i) {
		return lexer.EOF
	}
	return f.Tokens[i].Kind
}

func (f *File) TokenText(i int) string {
	if !f.valid(i) {
		return ""
	}
	return f.Tokens[i].Text(f.Text)
}

func (f *File) Span(i int) Span {
	if !f.valid(i) {
		return Span{Start: len(f.Text), End: len(f.Text)}
	}
	return Span{Start: f.Tokens[i].Start, End: f.Tokens[i].End}
}

// SpanOf covers tokens from..to inclusive.
func (f *File) SpanOf(from, to int) Span {
	return Span{Start: f.Span(from).Start, End: f.Span(to).End}
}

// Prev is the previous non-trivia token. Newlines count.
func (f *File) Prev(i int) int {
	if !f.valid(i) {
		return -1
	}
	return f.prev[i]
}

// Next is the next non-trivia token. Newlines count.
func (f *File) Next(i int) int {
	if !f.valid(i) {
		return -1
	}
	return f.next[i]
}

// PrevCode skips newlines as well as trivia.
func (f *File) PrevCode(i int) int {
	j := f.Prev(i)
	for j >= 0 && f.Tokens[j].Kind == lexer.Newline {
		j = f.prev[j]
	}
	return j
}

// NextCode skips newlines as well as trivia.
func (f *File) NextCode(i int) int {
	j := f.Next(i)
	for j >= 0 && f.Tokens[j].Kind == lexer.Newline {
		j = f.next[j]
	}
	return j
}

// First is the first non-trivia token of the file.
func (f *File) First() int {
	for i, tok := range f.Tokens {
		if !tok.Kind.IsTrivia() {
			return i
		}
	}
	return -1
}

// Match returns the partner of a bracket, string quote or interpolation
// delimiter.
func (f *File) Match(i int) int {
	if !f.valid(i) {
		return -1
	}
	return f.match[i]
}

// Owner is the innermost opener enclosing token i.
func (f *File) Owner(i int) int {
	if !f.valid(i) {
		return -1
	}
	return f.owner[i]
}

// EnclosingBrace is the innermost '{' enclosing token i.
func (f *File) EnclosingBrace(i int) int {
	o := f.Owner(i)
	for o >= 0 && f.Tokens[o].Kind != lexer.LBrace {
		o = f.owner[o]
	}
	return o
}

// Depth is the bracket nesting depth at token i.
func (f *File) Depth(i int) int {
	if !f.valid(i) {
		return 0
	}
	return f.depth[i]
}

// TokenAt returns the token containing offset. An offset equal to the end of
// an identifier-like token resolves to that token so carets after a word work.
func (f *File) TokenAt(offset int) int {
	lo, hi := 0, len(f.Tokens)
	for lo < hi {
		mid := (lo + hi) / 2
		if f.Tokens[mid].End <= offset {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(f.Tokens) && f.Tokens[lo].Start <= offset {
		if lo > 0 && f.Tokens[lo].Start == offset && isWordKind(f.Tokens[lo-1].Kind) && !isWordKind(f.Tokens[lo].Kind) {
			return lo - 1
		}
		return lo
	}
	if len(f.Tokens) > 0 && offset == len(f.Text) && isWordKind(f.Tokens[len(f.Tokens)-1].Kind) {
		return len(f.Tokens) - 1
	}
	return -1
}

func isWordKind(k lexer.TokenKind) bool {
	return k == lexer.Identifier || k == lexer.InterpSimple || k.IsKeyword()
}

// Position converts an offset to a 1-based line and column.
func (f *File) Position(offset int) (line, column int) {
	lo, hi := 0, len(f.lines)
	for lo < hi {
		mid := (lo + hi) / 2
		if f.lines[mid] <= offset {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	line = lo
	if line == 0 {
		line = 1
	}
	return line, offset - f.lines[line-1] + 1
}

// Offset converts a 1-based line and column back to an offset, clamped to
// the line and the text.
func (f *File) Offset(line, column int) int {
	if line < 1 {
		line = 1
	}
	if line > len(f.lines) {
		return len(f.Text)
	}
	start := f.lines[line-1]
	end := len(f.Text)
	if line < len(f.lines) {
		end = f.lines[line] - 1
	}
	off := start + column - 1
	if off < start {
		off = start
	}
	if off > end {
		off = end
	}
	return off
}
