// Package compactor implements the content-compaction stage: a
// registered, ordered list of content transformers, each supporting a
// subset of bundle paths, looked up and invoked uniformly by identifier
// rather than through a type switch over compactor kinds.
package compactor

import "strings"

// Compactor is a pure, deterministic content transformer. Compact must
// satisfy Compact(Compact(x)) == Compact(x) for any x it Supports.
type Compactor interface {
	Supports(bundlePath string) bool
	Compact(contents []byte) ([]byte, error)
}

// Registry is an ordered list of compactors, applied in declared order;
// each transforms only the files it Supports.
type Registry []Compactor

// Apply runs every registered compactor that supports bundlePath, in
// order, threading the output of each into the next.
func (r Registry) Apply(bundlePath string, contents []byte) ([]byte, error) {
	for _, c := range r {
		if !c.Supports(bundlePath) {
			continue
		}
		out, err := c.Compact(contents)
		if err != nil {
			return nil, err
		}
		contents = out
	}
	return contents, nil
}

// Build resolves the box.json "compactors" identifier list
// into a Registry of the built-in compactors. An identifier of the form
// "file-suffix:.ext1,.ext2" registers a Generic compactor scoped to those
// suffixes, stripping trailing whitespace from every line.
func Build(identifiers []string) Registry {
	reg := make(Registry, 0, len(identifiers))
	for _, id := range identifiers {
		switch {
		case id == "php" || id == "Php" || id == "PhpScoper":
			reg = append(reg, PHP{})
		case id == "json" || id == "Json":
			reg = append(reg, JSON{})
		case strings.HasPrefix(id, "file-suffix:"):
			suffixes := strings.Split(strings.TrimPrefix(id, "file-suffix:"), ",")
			reg = append(reg, Generic{Suffixes: suffixes, Fn: stripTrailingLineWhitespace})
		}
	}
	return reg
}

// stripTrailingLineWhitespace trims trailing spaces and tabs from every
// line without collapsing blank lines, preserving line numbers the same
// way PHP.Compact does.
func stripTrailingLineWhitespace(contents []byte) ([]byte, error) {
	lines := strings.Split(string(contents), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return []byte(strings.Join(lines, "\n")), nil
}
