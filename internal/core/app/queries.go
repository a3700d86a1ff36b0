package app

import (
	"context"
	"errors"
	"sort"
	"strings"

	kerrors "kite/internal/core/errors"
	"kite/internal/engine/graph"
	"kite/internal/engine/hints"
	"kite/internal/engine/lexer"
	"kite/internal/engine/navigation"
	"kite/internal/engine/symbols"
	"kite/internal/engine/syntax"
	"kite/internal/shared/observability"
	"kite/internal/shared/util"
)

// Token is one lexed token with its text.
type Token struct {
	Kind lexer.TokenKind
	Span syntax.Span
	Text string
}

// Tokens lists the tokens of path, trivia included.
func (a *App) Tokens(path string) ([]Token, error) {
	u, err := a.Load(path)
	if err != nil {
		return nil, err
	}
	f := u.File
	out := make([]Token, 0, f.Len())
	for i := 0; i < f.Len(); i++ {
		out = append(out, Token{Kind: f.Kind(i), Span: f.Span(i), Text: f.TokenText(i)})
	}
	return out, nil
}

// Symbols lists the declarations of path in source order.
func (a *App) Symbols(path string) ([]*symbols.Declaration, error) {
	u, err := a.Load(path)
	if err != nil {
		return nil, err
	}
	return u.Table.All(), nil
}

func (a *App) Goto(ctx context.Context, path string, offset int) ([]navigation.Location, error) {
	_, span := observability.Tracer.Start(ctx, "app.Goto")
	defer span.End()

	u, err := a.Load(path)
	if err != nil {
		return nil, err
	}
	return navigation.New(a.checker.Engine()).Goto(u, offset), nil
}

func (a *App) Hints(ctx context.Context, path string) ([]hints.Hint, error) {
	_, span := observability.Tracer.Start(ctx, "app.Hints")
	defer span.End()

	u, err := a.Load(path)
	if err != nil {
		return nil, err
	}
	return hints.New(a.checker.Engine()).Hints(u), nil
}

// ImportChain returns the shortest import chain from one file to another.
func (a *App) ImportChain(from, to string) (string, error) {
	chain, ok := a.Graph.FindImportChain(from, to)
	if !ok {
		return "", kerrors.New(kerrors.CodeNotFound, "no import chain from "+from+" to "+to)
	}
	return strings.Join(chain, " -> "), nil
}

func (a *App) AnalyzeImpact(path string) (graph.ImpactReport, error) {
	report, err := a.Graph.AnalyzeImpact(path)
	if errors.Is(err, graph.ErrImpactTargetNotFound) {
		return report, kerrors.WithPath(kerrors.Wrap(err, kerrors.CodeNotFound, "impact"), path)
	}
	return report, err
}

// RenderGraph renders the import graph relative to the project root.
func (a *App) RenderGraph(format graph.Format) (string, error) {
	return a.Graph.Render(format, a.Paths.ProjectRoot)
}

// PathMetrics is a file's import-graph metrics.
type PathMetrics struct {
	Path string
	graph.FileMetrics
}

// GraphMetrics lists every analysed file, most important first.
func (a *App) GraphMetrics() []PathMetrics {
	all := a.Graph.ComputeMetrics()
	out := make([]PathMetrics, 0, len(all))
	for _, p := range util.SortedStringKeys(all) {
		out = append(out, PathMetrics{Path: p, FileMetrics: all[p]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Importance > out[j].Importance })
	return out
}
