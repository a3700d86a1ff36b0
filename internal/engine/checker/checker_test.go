package checker

import (
	"strings"
	"testing"

	"kite/internal/engine/classifier"
	"kite/internal/engine/imports"
	"kite/internal/engine/symbols"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChecker(t *testing.T, files map[string]string, opts Options) (*Checker, *imports.FSLoader) {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	loader := imports.NewFSLoader(fs)
	return New(imports.NewResolver(loader, imports.Roots{ProjectRoot: "/p"}), opts), loader
}

func checkSource(t *testing.T, src string) []Diagnostic {
	t.Helper()
	c, _ := newChecker(t, nil, Options{})
	return c.Check(imports.NewUnit("/p/main.kite", src))
}

func byCode(ds []Diagnostic, code string) []Diagnostic {
	var out []Diagnostic
	for _, d := range ds {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

func TestSchemaResourceScenario(t *testing.T) {
	ok := "schema C { string host, number port }\nresource C db { host = \"x\", port = 5432 }"
	assert.Empty(t, checkSource(t, ok))

	bad := strings.Replace(ok, "port = 5432", `port = "bad"`, 1)
	ds := checkSource(t, bad)
	require.Len(t, ds, 1)
	d := ds[0]
	assert.Equal(t, SeverityError, d.Severity)
	assert.Equal(t, CodeTypeMismatch, d.Code)
	assert.Equal(t, `"bad"`, bad[d.Span.Start:d.Span.End])
	assert.Contains(t, d.Message, "port")
	assert.Contains(t, d.Message, "number")
	assert.Contains(t, d.Message, "string")
	assert.Equal(t, "Type mismatch: expected 'number' but got 'string' for 'port'", d.Message)
}

func TestMissingImportScenario(t *testing.T) {
	ds := checkSource(t, `import x from "missing.kite"`)
	require.Len(t, ds, 1)
	assert.Equal(t, "Cannot resolve import path 'missing.kite'", ds[0].Message)
	assert.Equal(t, SeverityError, ds[0].Severity)
}

func TestUnresolvedScenario(t *testing.T) {
	src := "var a = 1\nvar b = a\nvar c = z"
	ds := checkSource(t, src)
	require.Len(t, ds, 1)
	assert.Equal(t, "Cannot resolve symbol 'z'", ds[0].Message)
	assert.Equal(t, SeverityWarning, ds[0].Severity)
	assert.Equal(t, "z", src[ds[0].Span.Start:ds[0].Span.End])
}

func TestTwoFileScenario(t *testing.T) {
	c, loader := newChecker(t, map[string]string{
		"/p/common.kite": "var shared = 1",
		"/p/main.kite":   "import * from \"common.kite\"\nvar x = shared",
	}, Options{})
	u, err := loader.Load("/p/main.kite")
	require.NoError(t, err)
	assert.Empty(t, c.Check(u))
}

func TestNamedAndWildcardImportsOfSameFile(t *testing.T) {
	named := `import x from "b.kite"`
	wildcard := `import * from "c.kite"`
	for _, order := range [][2]string{{named, wildcard}, {wildcard, named}} {
		c, loader := newChecker(t, map[string]string{
			"/p/b.kite":    "var x = 1\nvar y = 2",
			"/p/c.kite":    `import * from "b.kite"`,
			"/p/main.kite": order[0] + "\n" + order[1] + "\nvar v = x + y",
		}, Options{})
		u, err := loader.Load("/p/main.kite")
		require.NoError(t, err)
		assert.Empty(t, byCode(c.Check(u), CodeUnresolved), "imports: %q", order)
	}
}

func TestImportCycleDoesNotHang(t *testing.T) {
	c, loader := newChecker(t, map[string]string{
		"/p/a.kite": "import * from \"b.kite\"\nvar fromA = fromB",
		"/p/b.kite": "import * from \"a.kite\"\nvar fromB = fromA",
	}, Options{})
	u, err := loader.Load("/p/a.kite")
	require.NoError(t, err)
	assert.Empty(t, c.Check(u))
}

func TestExemptions(t *testing.T) {
	src := `@description("x")
input String name = "n"
var l = len(name)
var s = "$name and ${upper(name)}"
var m = name.length
var custom = lookup("k")`
	c, _ := newChecker(t, nil, Options{Builtins: classifier.NewBuiltins([]string{"lookup"})})
	assert.Empty(t, c.Check(imports.NewUnit("/p/main.kite", src)))

	ds := checkSource(t, src)
	require.Len(t, ds, 1)
	assert.Equal(t, "Cannot resolve symbol 'lookup'", ds[0].Message)
}

func TestInterpolationReference(t *testing.T) {
	src := `var s = "hello $who"`
	ds := checkSource(t, src)
	require.Len(t, ds, 1)
	assert.Equal(t, "who", src[ds[0].Span.Start:ds[0].Span.End])
}

func TestTypedDeclarations(t *testing.T) {
	src := `var number n = "text"
input boolean flag = true
output string url = 80
var any whatever = 1
type Region = "us" | "eu"
var Region r = "us"
var string nothing = null`
	ds := byCode(checkSource(t, src), CodeTypeMismatch)
	require.Len(t, ds, 2)
	assert.Equal(t, "Type mismatch: expected 'number' but got 'string' for 'n'", ds[0].Message)
	assert.Equal(t, "Type mismatch: expected 'string' but got 'number' for 'url'", ds[1].Message)
}

func TestComponentInstanceInputs(t *testing.T) {
	src := `component Server {
  input number port = 80
  output string url = "x"
}
component Server api {
  port = "eighty"
}`
	ds := checkSource(t, src)
	require.Len(t, ds, 1)
	assert.Contains(t, ds[0].Message, "'port'")
	assert.Equal(t, SeverityError, ds[0].Severity)
}

func TestCallArguments(t *testing.T) {
	src := `fun scale(number factor, string unit) number { return factor }
var a = scale(2, "x")
var b = scale("two", 3)`
	ds := byCode(checkSource(t, src), CodeTypeMismatch)
	require.Len(t, ds, 2)
	assert.Contains(t, ds[0].Message, "for 'factor'")
	assert.Contains(t, ds[1].Message, "for 'unit'")
}

func TestImportDiagnostics(t *testing.T) {
	c, _ := newChecker(t, map[string]string{"/p/lib.kite": "var used = 1\nvar spare = 2"}, Options{})
	src := "import * from \"lib.kite\"\nimport * from \"lib.kite\"\nvar x = used\nimport * from \"\"\nimport spare from \"lib.kite\""
	ds := c.Check(imports.NewUnit("/p/main.kite", src))

	var msgs []string
	for _, d := range ds {
		msgs = append(msgs, d.Message)
	}
	assert.Equal(t, []string{
		"Duplicate import 'lib.kite'",
		"Import statements must precede other statements",
		"Empty import path",
		"Import statements must precede other statements",
		"Duplicate import 'lib.kite'",
	}, msgs)
}

func TestUnusedNamedImport(t *testing.T) {
	c, _ := newChecker(t, map[string]string{"/p/lib.kite": "var a = 1\nvar b = 2"}, Options{})
	ds := c.Check(imports.NewUnit("/p/main.kite", "import a, b from \"lib.kite\"\nvar x = a"))
	require.Len(t, ds, 1)
	assert.Equal(t, "Unused import 'b'", ds[0].Message)
}

func TestScopingModes(t *testing.T) {
	src := "fun f(number x) { return x }\nfun g() { return x }\nvar x2 = 1\nfor x2 in [1] { }"

	flat := checkSource(t, src)
	assert.Empty(t, flat)

	c, _ := newChecker(t, nil, Options{Scoping: symbols.ScopingLexical})
	ds := c.Check(imports.NewUnit("/p/main.kite", src))
	require.Len(t, ds, 2)
	assert.Equal(t, "Cannot resolve symbol 'x'", ds[0].Message)
	assert.Equal(t, CodeShadowed, ds[1].Code)
}

func TestCount(t *testing.T) {
	errs, warns := Count([]Diagnostic{{Severity: SeverityError}, {Severity: SeverityWarning}, {Severity: SeverityWarning}})
	assert.Equal(t, 1, errs)
	assert.Equal(t, 2, warns)
}
