package hints

import (
	"strings"
	"testing"

	"kite/internal/engine/imports"
	"kite/internal/engine/symbols"
	"kite/internal/engine/syntax"
	"kite/internal/engine/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(src string) []Hint {
	u := imports.NewUnit("/p/main.kite", src)
	return New(types.NewEngine(nil, symbols.ScopingFlat)).Hints(u)
}

func TestHints_InferredTypes(t *testing.T) {
	src := `var port = 8080
var name = "api"
var string typed = "x"
output url = "http://" + name
var unknown = missing
input size = 3`
	hs := render(src)

	require.Len(t, hs, 3)
	assert.Equal(t, Hint{Offset: strings.Index(src, "port") + 4, Kind: KindType, Label: "number"}, hs[0])
	assert.Equal(t, Hint{Offset: strings.Index(src, "name") + 4, Kind: KindType, Label: "string"}, hs[1])
	assert.Equal(t, Hint{Offset: strings.Index(src, "url") + 3, Kind: KindType, Label: "string"}, hs[2])
	assert.Equal(t, ": number", hs[0].Text())
}

func TestHints_AliasUnion(t *testing.T) {
	hs := render(`type Port = 80 | 443 | "http"`)
	require.Len(t, hs, 1)
	assert.Equal(t, KindAlias, hs[0].Kind)
	assert.Equal(t, "number | string", hs[0].Label)
	assert.Equal(t, "= number | string", hs[0].Text())
}

func TestHints_Parameters(t *testing.T) {
	src := `fun scale(number factor, string unit) number { return factor }
var factor = 2
scale(factor, "x")
scale(3, "y", 4)`
	var params []Hint
	for _, h := range render(src) {
		if h.Kind == KindParameter {
			params = append(params, h)
		}
	}

	call := strings.LastIndex(src, "scale(")
	require.Len(t, params, 3)
	assert.Equal(t, "unit", params[0].Label)
	assert.Equal(t, strings.Index(src, `"x"`), params[0].Offset)
	assert.Equal(t, Hint{Offset: call + 6, Kind: KindParameter, Label: "factor"}, params[1])
	assert.Equal(t, "unit", params[2].Label)
	assert.Equal(t, "factor:", params[1].Text())
}

func TestHints_BuiltinCallsHaveNoParameterHints(t *testing.T) {
	for _, h := range render(`var n = len("abc")`) {
		assert.NotEqual(t, KindParameter, h.Kind)
	}
}

func TestInRange(t *testing.T) {
	src := "var a = 1\nvar b = true"
	u := imports.NewUnit("/p/main.kite", src)
	r := New(types.NewEngine(nil, symbols.ScopingFlat))

	all := r.Hints(u)
	require.Len(t, all, 2)
	second := r.InRange(u, syntax.Span{Start: 10, End: len(src)})
	require.Len(t, second, 1)
	assert.Equal(t, "boolean", second[0].Label)
}
