package compactor

import "strings"

// Generic is a pattern-based compactor parameterized by file-name
// suffixes: it applies a caller-supplied transform to every file whose
// bundle path ends in one of Suffixes.
type Generic struct {
	Suffixes []string
	Fn       func([]byte) ([]byte, error)
}

func (g Generic) Supports(bundlePath string) bool {
	for _, s := range g.Suffixes {
		if strings.HasSuffix(bundlePath, s) {
			return true
		}
	}
	return false
}

func (g Generic) Compact(contents []byte) ([]byte, error) {
	return g.Fn(contents)
}
