package navigation

import (
	"strings"
	"testing"

	"kite/internal/engine/imports"
	"kite/internal/engine/symbols"
	"kite/internal/engine/types"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// at returns the offset of the n-th (0-based) occurrence of needle.
func at(t *testing.T, src, needle string, n int) int {
	t.Helper()
	from := 0
	for k := 0; ; k++ {
		i := strings.Index(src[from:], needle)
		require.GreaterOrEqualf(t, i, 0, "occurrence %d of %q", n, needle)
		if k == n {
			return from + i
		}
		from += i + len(needle)
	}
}

func starts(ls []Location) []int {
	out := make([]int, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.Span.Start)
	}
	return out
}

func navigator(scoping symbols.Scoping) *Navigator {
	return New(types.NewEngine(nil, scoping))
}

func TestGoto_ReferenceToDeclaration(t *testing.T) {
	src := "var a = 1\nvar b = a"
	u := imports.NewUnit("/p/main.kite", src)

	got := navigator(symbols.ScopingFlat).Goto(u, len(src)-1)
	require.Len(t, got, 1)
	assert.Equal(t, "/p/main.kite", got[0].Path)
	assert.Equal(t, 4, got[0].Span.Start)
	assert.Equal(t, 5, got[0].Span.End)
	assert.Equal(t, 1, got[0].Line)
	assert.Equal(t, 5, got[0].Column)
}

func TestGoto_DeclarationListsUsages(t *testing.T) {
	src := "var a = 1\nvar b = a + a\nvar s = \"$a and ${a}\""
	u := imports.NewUnit("/p/main.kite", src)

	got := navigator(symbols.ScopingFlat).Goto(u, 4)
	assert.Equal(t, []int{
		at(t, src, "a + a", 0),
		at(t, src, "a\n", 0),
		at(t, src, "$a", 0) + 1,
		at(t, src, "${a}", 0) + 2,
	}, starts(got))
}

func TestGoto_Interpolations(t *testing.T) {
	src := "var name = \"x\"\nvar s = \"hi $name, ${name}!\""
	u := imports.NewUnit("/p/main.kite", src)
	nav := navigator(symbols.ScopingFlat)

	simple := nav.Goto(u, at(t, src, "$name", 0))
	require.Len(t, simple, 1)
	assert.Equal(t, 4, simple[0].Span.Start)

	braced := nav.Goto(u, at(t, src, "${name}", 0))
	require.Len(t, braced, 1)
	assert.Equal(t, 4, braced[0].Span.Start)

	inside := nav.Goto(u, at(t, src, "${name}", 0)+3)
	require.Len(t, inside, 1)
	assert.Equal(t, 4, inside[0].Span.Start)

	assert.Empty(t, nav.Goto(u, at(t, src, "hi", 0)))
}

func TestGoto_SchemaAndResource(t *testing.T) {
	src := `schema Database {
  string host
}
resource Database db {
  host = "x"
}
var h = db.host`
	u := imports.NewUnit("/p/main.kite", src)
	nav := navigator(symbols.ScopingFlat)
	schemaName := at(t, src, "Database", 0)
	propDecl := at(t, src, "host", 0)

	typ := nav.Goto(u, at(t, src, "Database", 1))
	require.Len(t, typ, 1)
	assert.Equal(t, schemaName, typ[0].Span.Start)

	prop := nav.Goto(u, at(t, src, "host", 1))
	require.Len(t, prop, 1)
	assert.Equal(t, propDecl, prop[0].Span.Start)

	access := nav.Goto(u, at(t, src, "host", 2))
	require.Len(t, access, 1)
	assert.Equal(t, propDecl, access[0].Span.Start)

	usages := nav.Goto(u, propDecl)
	assert.Equal(t, []int{at(t, src, "host", 1), at(t, src, "host", 2)}, starts(usages))

	schemaUsages := nav.Goto(u, schemaName)
	assert.Equal(t, []int{at(t, src, "Database", 1)}, starts(schemaUsages))
}

func TestGoto_Component(t *testing.T) {
	src := `component Server {
  input number port = 80
  output string url = "x"
}
component Server api {
  port = 8080
}
var u = api.url`
	u := imports.NewUnit("/p/main.kite", src)
	nav := navigator(symbols.ScopingFlat)

	out := nav.Goto(u, at(t, src, "url", 1))
	require.Len(t, out, 1)
	assert.Equal(t, at(t, src, "url", 0), out[0].Span.Start)

	in := nav.Goto(u, at(t, src, "port", 1))
	require.Len(t, in, 1)
	assert.Equal(t, at(t, src, "port", 0), in[0].Span.Start)

	assert.Equal(t, []int{at(t, src, "port", 1)}, starts(nav.Goto(u, at(t, src, "port", 0))))

	def := nav.Goto(u, at(t, src, "Server", 1))
	require.Len(t, def, 1)
	assert.Equal(t, at(t, src, "Server", 0), def[0].Span.Start)
}

func TestGoto_FunctionParameter(t *testing.T) {
	src := "fun f(number x) number { return x }"
	u := imports.NewUnit("/p/main.kite", src)
	got := navigator(symbols.ScopingFlat).Goto(u, at(t, src, "x", 0))
	assert.Equal(t, []int{at(t, src, "x", 1)}, starts(got))
}

func TestGoto_LexicalUsagesRespectShadowing(t *testing.T) {
	src := "var x = 1\nfun f(number x) { return x }\nvar y = x"
	u := imports.NewUnit("/p/main.kite", src)

	flat := navigator(symbols.ScopingFlat).Goto(u, 4)
	assert.Len(t, flat, 2)

	lexical := navigator(symbols.ScopingLexical).Goto(u, 4)
	assert.Equal(t, []int{at(t, src, "x", 3)}, starts(lexical))
}

func TestGoto_AcrossImports(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/p/common.kite", []byte("var shared = 1"), 0o644))
	src := "import * from \"common.kite\"\nvar x = shared"
	require.NoError(t, afero.WriteFile(fs, "/p/main.kite", []byte(src), 0o644))

	loader := imports.NewFSLoader(fs)
	r := imports.NewResolver(loader, imports.Roots{ProjectRoot: "/p"})
	u, err := loader.Load("/p/main.kite")
	require.NoError(t, err)

	got := New(types.NewEngine(r, symbols.ScopingFlat)).Goto(u, at(t, src, "shared", 0))
	require.Len(t, got, 1)
	assert.Equal(t, "/p/common.kite", got[0].Path)
	assert.Equal(t, 4, got[0].Span.Start)
}

func TestGoto_NoTarget(t *testing.T) {
	src := "var a = missing"
	u := imports.NewUnit("/p/main.kite", src)
	nav := navigator(symbols.ScopingFlat)

	assert.Empty(t, nav.Goto(u, at(t, src, "=", 0)))
	assert.Empty(t, nav.Goto(u, at(t, src, "missing", 0)))
	assert.Empty(t, nav.Goto(u, 500))
	assert.Empty(t, nav.Goto(nil, 0))
}
