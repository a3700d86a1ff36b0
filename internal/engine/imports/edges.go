// Package imports parses import statements and resolves them across files.
package imports

import (
	"kite/internal/engine/lexer"
	"kite/internal/engine/syntax"
)

// Edge is one import statement: Source imports Symbols (or everything) from Path.
type Edge struct {
	Source       string
	Path         string
	Symbols      []string
	SymbolTokens []int
	Wildcard     bool
	// Keyword is the index of the import keyword.
	Keyword int
	// PathToken is the opening quote of the path literal, or -1.
	PathToken int
	Span      syntax.Span
	PathSpan  syntax.Span
	// Late is set when a non-import statement precedes this one.
	Late bool
}

// HasPath reports whether the statement carried a path literal at all.
func (e Edge) HasPath() bool {
	return e.PathToken >= 0
}

// Edges lists the file-level import statements of f in source order.
func Edges(f *syntax.File) []Edge {
	var out []Edge
	sawOther := false
	for _, st := range f.Statements(-1) {
		head := f.SkipDecorators(st.First)
		if head < 0 || head > st.Last {
			continue
		}
		if f.Kind(head) != lexer.KwImport {
			sawOther = true
			continue
		}
		e := Edge{
			Source:    f.Path,
			Keyword:   head,
			PathToken: -1,
			Span:      f.SpanOf(st.First, st.Last),
			Late:      sawOther,
		}
	scan:
		for j := f.Next(head); j >= 0 && j <= st.Last; j = f.Next(j) {
			switch f.Kind(j) {
			case lexer.Star:
				e.Wildcard = true
			case lexer.Identifier:
				e.Symbols = append(e.Symbols, f.TokenText(j))
				e.SymbolTokens = append(e.SymbolTokens, j)
			case lexer.StringStart, lexer.SingleString:
				e.PathToken = j
				e.Path, e.PathSpan = literal(f, j, st.Last)
				break scan
			}
		}
		if len(e.Symbols) == 0 {
			e.Wildcard = true
		}
		out = append(out, e)
	}
	return out
}

// literal returns the contents and full span of the string starting at i.
func literal(f *syntax.File, i, last int) (string, syntax.Span) {
	if f.Kind(i) == lexer.SingleString {
		text := f.TokenText(i)
		span := f.Span(i)
		if len(text) >= 2 && text[len(text)-1] == '\'' {
			return text[1 : len(text)-1], span
		}
		return text[1:], span
	}
	end := f.Match(i)
	if end < 0 {
		span := f.SpanOf(i, last)
		return f.Text[f.Span(i).End:span.End], span
	}
	return f.Text[f.Span(i).End:f.Span(end).Start], f.SpanOf(i, end)
}
