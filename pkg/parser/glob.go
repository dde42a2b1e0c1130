package parser

import (
	"fmt"
	"path/filepath"
	"sort"
)

// ExpandGlobs expands file paths and glob patterns into a sorted, deduplicated
// list of paths. A pattern that matches nothing is kept as a literal path so
// that opening it later reports a clear file-not-found error.
func ExpandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			result = append(result, path)
		}
	}

	for _, pattern := range patterns {
		if pattern == StdinName {
			return nil, fmt.Errorf("%q cannot be combined with file arguments; omit files to read standard input", StdinName)
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}

		if len(matches) == 0 {
			add(pattern)
			continue
		}
		for _, match := range matches {
			add(match)
		}
	}

	sort.Strings(result)
	return result, nil
}
