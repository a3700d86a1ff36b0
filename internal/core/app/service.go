package app

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"kite/internal/data/history"
	"kite/internal/engine/checker"
	"kite/internal/shared/observability"
	"kite/internal/shared/util"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Finding is a diagnostic with its 1-based start position.
type Finding struct {
	checker.Diagnostic
	Line   int
	Column int
}

// FileError is a file that could not be analysed at all.
type FileError struct {
	Path string
	Err  error
}

type Report struct {
	Started  time.Time
	Duration time.Duration
	Files    []string
	Findings []Finding
	Failures []FileError
	Cycles   [][]string
	Errors   int
	Warnings int
}

// CheckProject discovers every file under the configured watch paths and
// checks it.
func (a *App) CheckProject(ctx context.Context) (Report, error) {
	files, err := a.Discover(a.Paths.WatchPaths)
	if err != nil {
		return Report{}, err
	}
	return a.Check(ctx, files)
}

// Check analyses paths in order, updating the import graph as it goes.
// Files that cannot be read are reported as failures, not errors.
func (a *App) Check(ctx context.Context, paths []string) (Report, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.Check", trace.WithAttributes(attribute.Int("files", len(paths))))
	defer span.End()

	report := Report{Started: time.Now().UTC()}
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return Report{}, err
		}
		path = filepath.Clean(path)
		findings, err := a.checkFile(path)
		if err != nil {
			slog.Warn("failed to check file", "path", path, "error", err)
			report.Failures = append(report.Failures, FileError{Path: path, Err: err})
			continue
		}
		report.Files = append(report.Files, path)
		report.Findings = append(report.Findings, findings...)

		if i%100 == 99 && a.Config.Analysis.MaxHeapMB > 0 && util.HeapAllocMB() > uint64(a.Config.Analysis.MaxHeapMB) {
			slog.Debug("heap above limit, pruning unit cache", "heap_mb", util.HeapAllocMB())
			a.PruneCache(20)
		}
	}

	report.Cycles = a.Graph.DetectCycles()
	for _, f := range report.Findings {
		if f.Severity == checker.SeverityError {
			report.Errors++
		} else {
			report.Warnings++
		}
	}
	report.Duration = time.Since(report.Started)
	observability.AnalysisDuration.WithLabelValues("check").Observe(report.Duration.Seconds())
	span.SetAttributes(
		attribute.Int("errors", report.Errors),
		attribute.Int("warnings", report.Warnings),
		attribute.Int("cycles", len(report.Cycles)),
	)
	slog.Debug("check finished", "files", len(report.Files), "errors", report.Errors, "warnings", report.Warnings, "duration", report.Duration)
	return report, nil
}

func (a *App) checkFile(path string) ([]Finding, error) {
	u, err := a.Load(path)
	if err != nil {
		return nil, err
	}
	diags := a.checker.Check(u)
	a.Graph.AddUnit(a.resolver, u)

	findings := make([]Finding, 0, len(diags))
	for _, d := range diags {
		line, col := u.File.Position(d.Span.Start)
		findings = append(findings, Finding{Diagnostic: d, Line: line, Column: col})
		observability.DiagnosticsTotal.WithLabelValues(d.Severity.String()).Inc()
	}
	a.findingsMu.Lock()
	a.findings[path] = findings
	a.findingsMu.Unlock()
	return findings, nil
}

// Findings returns the latest findings of every checked file, by path then
// position.
func (a *App) Findings() []Finding {
	a.findingsMu.RLock()
	defer a.findingsMu.RUnlock()
	var out []Finding
	for _, path := range util.SortedStringKeys(a.findings) {
		out = append(out, a.findings[path]...)
	}
	return out
}

// HandleChanges re-checks changed files and everything that imports them.
// Deleted files leave the graph; files that had unresolved imports are
// re-checked too since a new file may satisfy them.
func (a *App) HandleChanges(ctx context.Context, paths []string) (Report, error) {
	slog.Info("detected changes", "count", len(paths))
	affected := make(map[string]bool)
	var created bool

	for _, path := range paths {
		path = filepath.Clean(path)
		if !util.IsKiteFile(path) {
			continue
		}
		_, known := a.Graph.File(path)
		for _, f := range a.Graph.Dependents(path) {
			affected[f] = true
		}
		if !a.Exists(path) {
			a.Graph.RemoveFile(path)
			a.units.Evict(path)
			a.findingsMu.Lock()
			delete(a.findings, path)
			a.findingsMu.Unlock()
			delete(affected, path)
			continue
		}
		if !known {
			created = true
		}
	}
	if created {
		for _, f := range a.Graph.Files() {
			if node, ok := a.Graph.File(f); ok && len(node.Broken) > 0 {
				affected[f] = true
			}
		}
	}

	recheck := make([]string, 0, len(affected))
	for path := range affected {
		if a.Exists(path) {
			recheck = append(recheck, path)
		}
	}
	sort.Strings(recheck)

	report, err := a.Check(ctx, recheck)
	if err != nil {
		return Report{}, err
	}
	a.emitUpdate(Update{
		Changed:     paths,
		Rechecked:   recheck,
		Diagnostics: report.Findings,
		Cycles:      report.Cycles,
		FileCount:   len(a.Graph.Files()),
	})
	return report, nil
}

// RecordRun stores report in the history database, if enabled, and applies
// the configured retention. It returns the run ID or "".
func (a *App) RecordRun(ctx context.Context, report Report) (string, error) {
	if a.history == nil {
		return "", nil
	}
	run := history.Run{
		ProjectKey:   a.Paths.ProjectRoot,
		Started:      report.Started,
		Duration:     report.Duration,
		FileCount:    len(report.Files),
		ErrorCount:   report.Errors,
		WarningCount: report.Warnings,
		CycleCount:   len(report.Cycles),
	}
	for _, f := range report.Findings {
		run.Diagnostics = append(run.Diagnostics, history.Diagnostic{
			Path:     f.Path,
			Line:     f.Line,
			Column:   f.Column,
			Severity: f.Severity.String(),
			Code:     f.Code,
			Message:  f.Message,
		})
	}
	id, err := a.history.SaveRun(ctx, run)
	if err != nil {
		return "", err
	}
	if keep := a.Config.DB.Retain; keep > 0 {
		if n, err := a.history.Prune(ctx, run.ProjectKey, keep); err != nil {
			slog.Warn("failed to prune history", "error", err)
		} else if n > 0 {
			slog.Debug("pruned history", "runs", n)
		}
	}
	return id, nil
}
