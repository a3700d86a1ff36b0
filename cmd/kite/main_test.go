package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kite/internal/core/config"
)

const (
	testMain   = "import * from \"common.kite\"\nvar number port = \"x\"\nvar y = shared\n"
	testCommon = "var shared = 1\n"
)

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"kite.toml": "version = 1\n\n[db]\nenabled = true\npath = \".kite/history.db\"\n",
		"main.kite":   testMain,
		"common.kite": testCommon,
	}
	for name, text := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--dir", dir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCheck_ReportsErrorsAndRecordsRun(t *testing.T) {
	dir := writeProject(t)

	out, err := run(t, dir, "check")
	var exit *exitError
	if !errors.As(err, &exit) || exit.ExitCode() != 1 || !exit.silent {
		t.Fatalf("expected silent exit code 1, got %v", err)
	}
	for _, want := range []string{
		"main.kite:2:",
		"Type mismatch: expected 'number' but got 'string' for 'port'",
		"[type-mismatch]",
		"2 files checked: 1 errors, 0 warnings",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}

	hist, err := run(t, dir, "history")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(hist, "files=2 errors=1(+0) warnings=0(+0)") {
		t.Fatalf("unexpected history output:\n%s", hist)
	}
}

func TestCheck_FilteredToFiles(t *testing.T) {
	dir := writeProject(t)
	out, err := run(t, dir, "check", "--no-record", filepath.Join(dir, "common.kite"))
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !strings.Contains(out, "1 files checked, no problems") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	hist, err := run(t, dir, "history")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(hist, "no recorded runs") {
		t.Fatalf("--no-record still stored a run:\n%s", hist)
	}
}

func TestGoto(t *testing.T) {
	dir := writeProject(t)
	out, err := run(t, dir, "goto", filepath.Join(dir, "main.kite"), "3", "9")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "common.kite:1:5" {
		t.Fatalf("unexpected goto output %q", out)
	}

	if _, err := run(t, dir, "goto", filepath.Join(dir, "main.kite"), "x", "1"); err == nil {
		t.Fatal("expected invalid line error")
	}
}

func TestHintsSymbolsTokens(t *testing.T) {
	dir := writeProject(t)
	common := filepath.Join(dir, "common.kite")

	hints, err := run(t, dir, "hints", common)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(hints) != "1:11\ttype\t: number" {
		t.Fatalf("unexpected hints %q", hints)
	}

	syms, err := run(t, dir, "symbols", filepath.Join(dir, "main.kite"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(syms, "2:12\tvariable\tport\tnumber") || !strings.Contains(syms, "variable\ty\t-") {
		t.Fatalf("unexpected symbols:\n%s", syms)
	}

	toks, err := run(t, dir, "tokens", "--code", common)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(toks), "\n")
	if lines[0] != "0-3\tKW_VAR\t\"var\"" {
		t.Fatalf("unexpected first token %q", lines[0])
	}
	if len(lines) != 4 {
		t.Fatalf("expected 4 code tokens, got %d:\n%s", len(lines), toks)
	}
}

func TestGraph(t *testing.T) {
	dir := writeProject(t)

	text, err := run(t, dir, "graph")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(text) != "main.kite -> common.kite" {
		t.Fatalf("unexpected graph %q", text)
	}

	dot, err := run(t, dir, "graph", "--format", "dot")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(dot, "digraph imports {") || !strings.Contains(dot, `"main.kite" -> "common.kite";`) {
		t.Fatalf("unexpected dot output:\n%s", dot)
	}

	chain, err := run(t, dir, "graph", "--trace", filepath.Join(dir, "main.kite")+","+filepath.Join(dir, "common.kite"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(chain) != "main.kite -> common.kite" {
		t.Fatalf("unexpected chain %q", chain)
	}

	impact, err := run(t, dir, "graph", "--impact", filepath.Join(dir, "common.kite"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(impact, "direct     main.kite") || !strings.Contains(impact, "exposes    shared") {
		t.Fatalf("unexpected impact output:\n%s", impact)
	}

	table, err := run(t, dir, "graph", "--metrics")
	if err != nil {
		t.Fatal(err)
	}
	rows := strings.Split(strings.TrimSpace(table), "\n")
	if len(rows) != 3 || !strings.HasPrefix(rows[1], "common.kite ") || !strings.HasPrefix(rows[2], "main.kite ") {
		t.Fatalf("unexpected metrics table:\n%s", table)
	}
	if fields := strings.Fields(rows[2]); strings.Join(fields[1:], " ") != "1 0 1 2.0" {
		t.Fatalf("unexpected main.kite metrics %q", rows[2])
	}

	if _, err := run(t, dir, "graph", "--format", "svg"); err == nil {
		t.Fatal("expected unknown format error")
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, t.TempDir(), "version")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "kite "+version {
		t.Fatalf("unexpected version output %q", out)
	}
}

func TestCheck_SARIF(t *testing.T) {
	dir := writeProject(t)
	out, err := run(t, dir, "check", "--no-record", "--format", "sarif")
	var exit *exitError
	if !errors.As(err, &exit) || exit.ExitCode() != 1 {
		t.Fatalf("expected exit code 1, got %v", err)
	}
	if !strings.Contains(out, `"ruleId": "type-mismatch"`) || !strings.Contains(out, `"uri": "main.kite"`) {
		t.Fatalf("unexpected sarif output:\n%s", out)
	}

	if _, err := run(t, dir, "check", "--format", "xml"); err == nil {
		t.Fatal("expected unknown format error")
	}
}

func TestHistory_TSV(t *testing.T) {
	dir := writeProject(t)
	if _, err := run(t, dir, "check"); err == nil {
		t.Fatal("expected errors from check")
	}
	out, err := run(t, dir, "history", "--format", "tsv")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "ID\tStarted") {
		t.Fatalf("unexpected tsv:\n%s", out)
	}
	if !strings.HasSuffix(lines[1], "\t2\t1\t0\t0\t0\t0\t0") {
		t.Fatalf("unexpected row %q", lines[1])
	}
}

func TestGoto_Context(t *testing.T) {
	dir := writeProject(t)
	out, err := run(t, dir, "goto", "--context", "1", filepath.Join(dir, "main.kite"), "3", "9")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || lines[1] != ">     1: var shared = 1" {
		t.Fatalf("unexpected goto context:\n%s", out)
	}
}

func TestGraph_Inject(t *testing.T) {
	dir := writeProject(t)
	doc := filepath.Join(dir, "README.md")
	if err := os.WriteFile(doc, []byte("# deps\n<!-- kite:graph:start -->\n<!-- kite:graph:end -->\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, dir, "graph", "--format", "mermaid", "--inject", doc); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(doc)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "<!-- kite:graph:start -->\n```mermaid\nflowchart LR") {
		t.Fatalf("graph not injected:\n%s", data)
	}
}

func TestOfferLatest_KeepsNewestConfig(t *testing.T) {
	ch := make(chan *config.Config, 1)
	older, newer := config.Default(), config.Default()
	newer.Analysis.Scoping = "lexical"

	offerLatest(ch, older)
	offerLatest(ch, newer)

	if got := <-ch; got != newer {
		t.Fatalf("expected the newest config, got %+v", got.Analysis)
	}
	select {
	case extra := <-ch:
		t.Fatalf("expected one pending config, found another: %+v", extra.Analysis)
	default:
	}
}
