// Package mapper implements the box.json "map" option: an ordered list of
// prefix -> replacement rules applied to a relative source path.
package mapper

import (
	"path/filepath"
	"strings"
)

// Rule is one (prefix, replacement) pair. Order matters: Rules.Apply tries
// each Rule in slice order and uses the first whose Prefix matches.
type Rule struct {
	Prefix      string
	Replacement string
}

// Rules is an ordered MapFile.
type Rules []Rule

// Apply rewrites relPath by the first matching rule's prefix, or returns
// relPath unchanged if no rule's prefix matches. Matching is on path
// segments: "src" matches "src/Foo.php" but not "srcFoo.php".
func (rs Rules) Apply(relPath string) string {
	relPath = filepath.ToSlash(relPath)
	for _, r := range rs {
		prefix := strings.TrimSuffix(filepath.ToSlash(r.Prefix), "/")
		if prefix == "" {
			continue
		}
		if relPath == prefix {
			return r.Replacement
		}
		if strings.HasPrefix(relPath, prefix+"/") {
			rest := strings.TrimPrefix(relPath, prefix+"/")
			if r.Replacement == "" {
				return rest
			}
			return strings.TrimSuffix(r.Replacement, "/") + "/" + rest
		}
	}
	return relPath
}
