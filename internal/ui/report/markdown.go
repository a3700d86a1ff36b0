package report

import (
	"fmt"
	"strings"

	"kite/internal/engine/graph"

	"github.com/spf13/afero"
)

// InjectGraph writes a rendered import graph into the markdown file at path,
// between `<!-- kite:MARKER:start -->` and `<!-- kite:MARKER:end -->`. The
// graph is fenced with its format as the info string so mermaid and DOT
// blocks render on forges that support them.
func InjectGraph(fs afero.Fs, path, marker string, format graph.Format, rendered string) error {
	info, err := fs.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %q: %w", path, err)
	}
	doc, err := afero.ReadFile(fs, path)
	if err != nil {
		return fmt.Errorf("read %q: %w", path, err)
	}
	next, err := spliceMarked(string(doc), marker, fenceGraph(format, rendered))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if next == string(doc) {
		return nil
	}
	if err := afero.WriteFile(fs, path, []byte(next), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	return nil
}

func fenceGraph(format graph.Format, rendered string) string {
	return "```" + string(format) + "\n" + strings.TrimRight(rendered, "\n") + "\n```"
}

// spliceMarked replaces the body of the kite marker pair, keeping the
// markers and the document's line endings.
func spliceMarked(doc, marker, body string) (string, error) {
	marker = strings.TrimSpace(marker)
	if marker == "" {
		return "", fmt.Errorf("empty marker name")
	}
	open := "<!-- kite:" + marker + ":start -->"
	shut := "<!-- kite:" + marker + ":end -->"

	i := strings.Index(doc, open)
	j := strings.Index(doc, shut)
	switch {
	case i < 0 || j < 0:
		return "", fmt.Errorf("marker %q not found", marker)
	case strings.Count(doc, open) > 1 || strings.Count(doc, shut) > 1:
		return "", fmt.Errorf("marker %q appears more than once", marker)
	case j < i:
		return "", fmt.Errorf("marker %q ends before it starts", marker)
	}

	eol := "\n"
	if strings.Contains(doc, "\r\n") {
		eol = "\r\n"
	}
	body = strings.ReplaceAll(strings.TrimRight(body, "\r\n"), "\n", eol)
	return doc[:i+len(open)] + eol + body + eol + doc[j:], nil
}
