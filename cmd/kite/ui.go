package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"kite/internal/core/app"
	"kite/internal/engine/checker"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

func relPath(root, path string) string {
	if root == "" {
		return path
	}
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

func severityLabel(s checker.Severity) string {
	if s == checker.SeverityError {
		return errorStyle.Render("error")
	}
	return warningStyle.Render("warning")
}

// renderFindings prints one line per finding: path:line:col severity message [code].
func renderFindings(w io.Writer, root string, findings []app.Finding) {
	for _, f := range findings {
		fmt.Fprintf(w, "%s:%d:%d %s %s %s\n",
			titleStyle.Render(relPath(root, f.Path)), f.Line, f.Column,
			severityLabel(f.Severity), f.Message, statusStyle.Render("["+f.Code+"]"))
	}
}

func renderFailures(w io.Writer, root string, failures []app.FileError) {
	for _, f := range failures {
		fmt.Fprintf(w, "%s %s %v\n", titleStyle.Render(relPath(root, f.Path)), errorStyle.Render("unreadable"), f.Err)
	}
}

func renderCycles(w io.Writer, root string, cycles [][]string) {
	for _, c := range cycles {
		names := make([]string, 0, len(c)+1)
		for _, p := range c {
			names = append(names, relPath(root, p))
		}
		names = append(names, names[0])
		fmt.Fprintf(w, "%s %s\n", warningStyle.Render("import cycle:"), strings.Join(names, " -> "))
	}
}

func renderSummary(w io.Writer, report app.Report) {
	if report.Errors == 0 && report.Warnings == 0 {
		fmt.Fprintln(w, successStyle.Render(fmt.Sprintf("%d files checked, no problems", len(report.Files))))
		return
	}
	summary := fmt.Sprintf("%d files checked: %d errors, %d warnings", len(report.Files), report.Errors, report.Warnings)
	style := warningStyle
	if report.Errors > 0 {
		style = errorStyle
	}
	fmt.Fprintln(w, style.Render(summary))
}

func renderReport(w io.Writer, root string, report app.Report) {
	renderFindings(w, root, report.Findings)
	renderFailures(w, root, report.Failures)
	renderCycles(w, root, report.Cycles)
	renderSummary(w, report)
	fmt.Fprintln(w, statusStyle.Render(fmt.Sprintf("took %s", report.Duration.Round(time.Millisecond))))
}
