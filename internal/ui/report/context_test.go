package report

import (
	"strings"
	"testing"

	"kite/internal/engine/graph"

	"github.com/spf13/afero"
)

const sampleSource = `import * from "common.kite"

var number port = 8080

resource Server api {
  port = port
}
`

func TestSourceContext(t *testing.T) {
	got := SourceContext([]byte(sampleSource), 3, 1)
	want := []string{
		"      2: ",
		">     3: var number port = 8080",
		"      4: ",
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("unexpected context:\n%s", strings.Join(got, "\n"))
	}
}

func TestSourceContext_ClampsToFile(t *testing.T) {
	got := SourceContext([]byte(sampleSource), 1, 3)
	if len(got) != 4 || !strings.HasPrefix(got[0], ">") {
		t.Fatalf("unexpected context %q", got)
	}
	end := SourceContext([]byte(sampleSource), 7, 5)
	if len(end) != 6 || !strings.HasSuffix(end[len(end)-1], "}") {
		t.Fatalf("unexpected context %q", end)
	}
}

func TestSourceContext_OutOfRange(t *testing.T) {
	if got := SourceContext([]byte(sampleSource), 0, 2); got != nil {
		t.Errorf("expected nil for line 0, got %q", got)
	}
	if got := SourceContext([]byte(sampleSource), 99, 2); got != nil {
		t.Errorf("expected nil past the end, got %q", got)
	}
}

func TestSpliceMarked(t *testing.T) {
	doc := "# Project\n<!-- kite:graph:start -->\nold\n<!-- kite:graph:end -->\ntail\n"
	got, err := spliceMarked(doc, "graph", "flowchart LR\n  a --> b\n")
	if err != nil {
		t.Fatal(err)
	}
	want := "# Project\n<!-- kite:graph:start -->\nflowchart LR\n  a --> b\n<!-- kite:graph:end -->\ntail\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	crlf := "<!-- kite:g:start -->\r\nx\r\n<!-- kite:g:end -->\r\n"
	got, err = spliceMarked(crlf, "g", "a\nb")
	if err != nil {
		t.Fatal(err)
	}
	if got != "<!-- kite:g:start -->\r\na\r\nb\r\n<!-- kite:g:end -->\r\n" {
		t.Fatalf("line endings not preserved: %q", got)
	}
}

func TestSpliceMarked_Errors(t *testing.T) {
	cases := map[string]struct{ doc, marker string }{
		"empty marker": {"<!-- kite::start --><!-- kite::end -->", " "},
		"missing":      {"no markers here", "graph"},
		"reversed":     {"<!-- kite:g:end -->\n<!-- kite:g:start -->\n", "g"},
		"duplicated":   {"<!-- kite:g:start --><!-- kite:g:end --><!-- kite:g:start -->", "g"},
	}
	for name, tc := range cases {
		if _, err := spliceMarked(tc.doc, tc.marker, "x"); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestInjectGraph(t *testing.T) {
	fs := afero.NewMemMapFs()
	doc := "intro\n<!-- kite:deps:start -->\n<!-- kite:deps:end -->\n"
	if err := afero.WriteFile(fs, "/p/README.md", []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		format graph.Format
		want   string
	}{
		{graph.FormatMermaid, "<!-- kite:deps:start -->\n```mermaid\nflowchart LR\n  n0 --> n1\n```\n<!-- kite:deps:end -->"},
		{graph.FormatText, "<!-- kite:deps:start -->\n```text\nmain.kite -> common.kite\n```\n<!-- kite:deps:end -->"},
	}
	rendered := map[graph.Format]string{
		graph.FormatMermaid: "flowchart LR\n  n0 --> n1\n",
		graph.FormatText:    "main.kite -> common.kite\n",
	}
	for _, tc := range cases {
		if err := InjectGraph(fs, "/p/README.md", "deps", tc.format, rendered[tc.format]); err != nil {
			t.Fatal(err)
		}
		data, err := afero.ReadFile(fs, "/p/README.md")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), tc.want) {
			t.Fatalf("%s graph not injected:\n%s", tc.format, data)
		}
		if !strings.HasPrefix(string(data), "intro\n") {
			t.Fatalf("text outside the markers changed:\n%s", data)
		}
	}
	if info, err := fs.Stat("/p/README.md"); err != nil || info.Mode().Perm() != 0o600 {
		t.Fatalf("expected mode 0600 kept, got %v (%v)", info.Mode(), err)
	}

	if err := InjectGraph(fs, "/p/missing.md", "deps", graph.FormatText, "x"); err == nil {
		t.Error("expected error for a missing file")
	}
}
