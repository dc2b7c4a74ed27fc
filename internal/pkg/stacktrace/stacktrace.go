package stacktrace

import "strings"

// InternalPaths extracts internal package frames ("internal/...go:line") from
// a raw debug.Stack() dump, so panic logs stay readable.
func InternalPaths(stack []byte) []string {
	lines := strings.Split(string(stack), "\n")
	paths := make([]string, 0, 4)

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, "/internal/") {
			continue
		}

		idx := strings.Index(line, ".go:")
		if idx == -1 {
			continue
		}

		end := strings.Index(line[idx:], " ")
		if end == -1 {
			end = len(line)
		} else {
			end += idx
		}

		short := line[:end]
		if i := strings.Index(short, "/internal/"); i != -1 {
			paths = append(paths, short[i+1:])
		}
	}

	return paths
}
