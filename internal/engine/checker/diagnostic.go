// Package checker turns the analysis of one file into diagnostics: unresolved
// symbols, type mismatches and import problems.
package checker

import (
	"fmt"
	"sort"

	"kite/internal/engine/syntax"
)

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityError {
		return "ERROR"
	}
	return "WARNING"
}

const (
	CodeUnresolved   = "unresolved-symbol"
	CodeTypeMismatch = "type-mismatch"
	CodeShadowed     = "shadowed-declaration"
)

type Diagnostic struct {
	Path     string
	Span     syntax.Span
	Severity Severity
	Code     string
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d-%d %s %s", d.Path, d.Span.Start, d.Span.End, d.Severity, d.Message)
}

func unresolved(path string, span syntax.Span, name string) Diagnostic {
	return Diagnostic{
		Path:     path,
		Span:     span,
		Severity: SeverityWarning,
		Code:     CodeUnresolved,
		Message:  fmt.Sprintf("Cannot resolve symbol '%s'", name),
	}
}

func mismatch(path string, span syntax.Span, expected, actual, name string) Diagnostic {
	return Diagnostic{
		Path:     path,
		Span:     span,
		Severity: SeverityError,
		Code:     CodeTypeMismatch,
		Message:  fmt.Sprintf("Type mismatch: expected '%s' but got '%s' for '%s'", expected, actual, name),
	}
}

func sortDiagnostics(ds []Diagnostic) {
	sort.SliceStable(ds, func(i, j int) bool {
		if ds[i].Span.Start != ds[j].Span.Start {
			return ds[i].Span.Start < ds[j].Span.Start
		}
		return ds[i].Code < ds[j].Code
	})
}

// Count tallies diagnostics by severity.
func Count(ds []Diagnostic) (errors, warnings int) {
	for _, d := range ds {
		if d.Severity == SeverityError {
			errors++
		} else {
			warnings++
		}
	}
	return errors, warnings
}
