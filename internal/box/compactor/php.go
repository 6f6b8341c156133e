package compactor

import (
	"bytes"
	"strings"
)

// PHP strips comments and extraneous whitespace from PHP-like source
// while preserving line numbers, so stack traces from inside the bundle
// still point at sensible lines.
type PHP struct{}

func (PHP) Supports(bundlePath string) bool {
	return strings.HasSuffix(bundlePath, ".php")
}

// Compact tokenizes just enough PHP to tell comments and single- or
// double-quoted string literals apart from code, so it never strips inside
// such a string; heredoc and nowdoc bodies are not recognised and are
// scanned as code. Every
// stripped token is replaced with a run of newlines equal to the number of
// newlines it contained, so line numbers of surviving tokens are
// unchanged.
func (PHP) Compact(contents []byte) ([]byte, error) {
	var out bytes.Buffer
	i, n := 0, len(contents)
	for i < n {
		c := contents[i]
		switch {
		case c == '/' && i+1 < n && contents[i+1] == '/':
			j := i
			for j < n && contents[j] != '\n' {
				j++
			}
			i = j
		case c == '#' && !(i+1 < n && contents[i+1] == '['):
			j := i
			for j < n && contents[j] != '\n' {
				j++
			}
			i = j
		case c == '/' && i+1 < n && contents[i+1] == '*':
			j := i + 2
			for j+1 < n && !(contents[j] == '*' && contents[j+1] == '/') {
				j++
			}
			j += 2
			if j > n {
				j = n
			}
			out.Write(bytes.Repeat([]byte{'\n'}, bytes.Count(contents[i:j], []byte{'\n'})))
			i = j
		case c == '\'' || c == '"':
			j := i + 1
			for j < n && contents[j] != c {
				if contents[j] == '\\' && j+1 < n {
					j++
				}
				j++
			}
			j++
			if j > n {
				j = n
			}
			out.Write(contents[i:j])
			i = j
		case c == ' ' || c == '\t':
			j := i
			for j < n && (contents[j] == ' ' || contents[j] == '\t') {
				j++
			}
			if out.Len() > 0 {
				last := out.Bytes()[out.Len()-1]
				if last != '\n' && last != ' ' && last != '\t' {
					out.WriteByte(' ')
				}
			}
			i = j
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.Bytes(), nil
}
