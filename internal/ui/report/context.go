package report

import (
	"fmt"
	"strings"
)

// SourceContext returns the lines within radius of the 1-based line, each
// formatted as "<linenum>: <source>". The target line is prefixed with ">".
func SourceContext(content []byte, line, radius int) []string {
	lines := strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
	if line < 1 || line > len(lines) {
		return nil
	}
	start := max(line-1-radius, 0)
	end := min(line+radius, len(lines))

	out := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		mark := " "
		if i == line-1 {
			mark = ">"
		}
		out = append(out, fmt.Sprintf("%s%6d: %s", mark, i+1, strings.TrimRight(lines[i], "\r")))
	}
	return out
}
