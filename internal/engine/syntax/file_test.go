package syntax

import (
	"testing"

	"kite/internal/engine/lexer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stmtTexts(f *File, stmts []Stmt) []string {
	out := make([]string, 0, len(stmts))
	for _, st := range stmts {
		out = append(out, f.Text[f.Span(st.First).Start:f.Span(st.Last).End])
	}
	return out
}

func find(t *testing.T, f *File, text string, nth int) int {
	t.Helper()
	seen := 0
	for i := range f.Tokens {
		if f.TokenText(i) == text {
			if seen == nth {
				return i
			}
			seen++
		}
	}
	t.Fatalf("token %q #%d not found", text, nth)
	return -1
}

func TestStatements_TopLevel(t *testing.T) {
	src := "import a, b from \"lib.kite\"\nvar x = {\n  k: 1\n}\n\n// note\nfun f(a, b) { return a }"
	f := Parse("main.kite", src)
	got := stmtTexts(f, f.Statements(-1))
	assert.Equal(t, []string{
		`import a, b from "lib.kite"`,
		"var x = {\n  k: 1\n}",
		"fun f(a, b) { return a }",
	}, got)
}

func TestStatements_BodyCommaSeparated(t *testing.T) {
	src := "schema C { string host, number port }"
	f := Parse("s.kite", src)
	open := find(t, f, "{", 0)
	assert.Equal(t, BlockSchema, f.BlockKind(open))
	assert.Equal(t, []string{"string host", "number port"}, stmtTexts(f, f.Statements(open)))
}

func TestBlockKinds(t *testing.T) {
	src := `resource VM.Instance web { tags = { env: "x" } }
component Server { input number port = 80 }
fun f() number { if true { } else { } }
for x in items { }
var o = { a: 1 }
@provider("aws")
schema S { }`
	f := Parse("b.kite", src)
	var kinds []BlockKind
	for i, tok := range f.Tokens {
		if tok.Kind == lexer.LBrace {
			kinds = append(kinds, f.BlockKind(i))
		}
	}
	assert.Equal(t, []BlockKind{
		BlockResource, BlockObject,
		BlockComponent,
		BlockFunction, BlockControl, BlockControl,
		BlockFor,
		BlockObject,
		BlockSchema,
	}, kinds)
}

func TestBrackets_MatchAndOwner(t *testing.T) {
	src := `var s = "a ${ f(x) } b"`
	f := Parse("m.kite", src)
	open := find(t, f, "(", 0)
	closeIdx := find(t, f, ")", 0)
	assert.Equal(t, closeIdx, f.Match(open))
	assert.Equal(t, open, f.Match(closeIdx))

	x := find(t, f, "x", 0)
	assert.Equal(t, open, f.Owner(x))
	assert.Equal(t, -1, f.EnclosingBrace(x))
	assert.Equal(t, 3, f.Depth(x))

	quote := find(t, f, `"`, 0)
	assert.Equal(t, lexer.StringEnd, f.Kind(f.Match(quote)))
}

func TestBrackets_Unbalanced(t *testing.T) {
	f := Parse("u.kite", "var a = ( ]\n}\nvar b = 1")
	paren := find(t, f, "(", 0)
	assert.Equal(t, -1, f.Match(paren))
	stmts := stmtTexts(f, f.Statements(-1))
	require.NotEmpty(t, stmts)
	assert.Equal(t, "var a = ( ]\n}\nvar b = 1", stmts[0])
}

func TestSiblingNavigation(t *testing.T) {
	f := Parse("n.kite", "var  a /* c */ =\n b")
	a := find(t, f, "a", 0)
	eq := find(t, f, "=", 0)
	b := find(t, f, "b", 0)
	assert.Equal(t, eq, f.Next(a))
	assert.Equal(t, lexer.Newline, f.Kind(f.Next(eq)))
	assert.Equal(t, b, f.NextCode(eq))
	assert.Equal(t, eq, f.PrevCode(b))
	assert.Equal(t, -1, f.Next(b))
	assert.Equal(t, lexer.EOF, f.Kind(f.Next(b)))
}

func TestStatementOf(t *testing.T) {
	src := "var a = f(1,\n 2) + g\nvar b = 2"
	f := Parse("s.kite", src)
	two := find(t, f, "2", 0)
	st := f.StatementOf(find(t, f, "g", 0))
	assert.Equal(t, "var", f.TokenText(st.First))
	assert.Equal(t, "g", f.TokenText(st.Last))
	assert.True(t, st.Contains(two))

	args := f.StatementOf(find(t, f, "1", 0))
	assert.Equal(t, "1", f.TokenText(args.First))
	assert.Equal(t, "1", f.TokenText(args.Last))
}

func TestSkipDecorators(t *testing.T) {
	src := "@description(\"port\") @sensitive input number port"
	f := Parse("d.kite", src)
	head := f.SkipDecorators(f.First())
	assert.Equal(t, lexer.KwInput, f.Kind(head))

	f = Parse("d.kite", "@only")
	assert.Equal(t, -1, f.SkipDecorators(f.First()))
}

func TestTokenAtAndPosition(t *testing.T) {
	src := "var abc = 1\nvar d = abc"
	f := Parse("p.kite", src)
	assert.Equal(t, "abc", f.TokenText(f.TokenAt(5)))
	assert.Equal(t, "abc", f.TokenText(f.TokenAt(7)), "caret right after a word")
	assert.Equal(t, "abc", f.TokenText(f.TokenAt(len(src))))
	assert.Equal(t, -1, f.TokenAt(len(src)+5))

	line, col := f.Position(len("var abc = 1\nvar "))
	assert.Equal(t, 2, line)
	assert.Equal(t, 5, col)
	line, col = f.Position(0)
	assert.Equal(t, 1, line)
	assert.Equal(t, 1, col)
}

func TestOffset(t *testing.T) {
	src := "var abc = 1\nvar d = abc"
	f := Parse("p.kite", src)
	assert.Equal(t, len("var abc = 1\nvar "), f.Offset(2, 5))
	assert.Equal(t, 0, f.Offset(1, 1))
	assert.Equal(t, len("var abc = 1"), f.Offset(1, 99), "clamped to end of line")
	assert.Equal(t, len(src), f.Offset(7, 1))
	for off := 0; off <= len(src); off++ {
		line, col := f.Position(off)
		assert.Equal(t, off, f.Offset(line, col))
	}
}

func TestLineStart(t *testing.T) {
	f := Parse("l.kite", "schema C {\n  string host, number port\n}")
	assert.True(t, f.LineStart(find(t, f, "string", 0)))
	assert.True(t, f.LineStart(find(t, f, "number", 0)))
	assert.False(t, f.LineStart(find(t, f, "host", 0)))
}
