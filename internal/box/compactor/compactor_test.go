package compactor

import (
	"bytes"
	"strings"
	"testing"
)

func TestPHPCompactStripsLineComments(t *testing.T) {
	in := "<?php\n// a comment\n$x = 1;\n"
	out, err := PHP{}.Compact([]byte(in))
	if err != nil {
		t.Fatalf("Compact returned error: %v", err)
	}
	if strings.Contains(string(out), "a comment") {
		t.Fatalf("Compact did not strip line comment: %q", out)
	}
	if !strings.Contains(string(out), "$x = 1;") {
		t.Fatalf("Compact dropped surviving code: %q", out)
	}
}

func TestPHPCompactPreservesLineCount(t *testing.T) {
	in := "<?php\n/* block\ncomment\nspanning lines */\n$x = 1;\n"
	out, err := PHP{}.Compact([]byte(in))
	if err != nil {
		t.Fatalf("Compact returned error: %v", err)
	}
	wantLines := strings.Count(in, "\n")
	gotLines := strings.Count(string(out), "\n")
	if gotLines != wantLines {
		t.Fatalf("Compact changed line count: got %d, want %d (%q)", gotLines, wantLines, out)
	}
}

func TestPHPCompactLeavesStringsAlone(t *testing.T) {
	in := `<?php $s = "// not a comment";`
	out, err := PHP{}.Compact([]byte(in))
	if err != nil {
		t.Fatalf("Compact returned error: %v", err)
	}
	if !strings.Contains(string(out), "// not a comment") {
		t.Fatalf("Compact stripped a string literal: %q", out)
	}
}

func TestJSONCompactMinifies(t *testing.T) {
	in := []byte("{\n  \"a\": 1,\n  \"b\": 2\n}\n")
	out, err := JSON{}.Compact(in)
	if err != nil {
		t.Fatalf("Compact returned error: %v", err)
	}
	if string(out) != `{"a":1,"b":2}` {
		t.Fatalf("Compact = %q, want minified object", out)
	}
}

func TestJSONCompactPassesThroughInvalidJSON(t *testing.T) {
	in := []byte("not json at all")
	out, err := JSON{}.Compact(in)
	if err != nil {
		t.Fatalf("Compact returned error: %v", err)
	}
	if !bytes.Equal(out, in) {
		t.Fatalf("Compact = %q, want unchanged passthrough", out)
	}
}

func TestGenericSupportsBySuffix(t *testing.T) {
	g := Generic{Suffixes: []string{".txt", ".md"}}
	if !g.Supports("README.md") {
		t.Fatalf("Supports(README.md) = false, want true")
	}
	if g.Supports("main.php") {
		t.Fatalf("Supports(main.php) = true, want false")
	}
}

func TestRegistryAppliesInOrder(t *testing.T) {
	upper := Generic{Suffixes: []string{".txt"}, Fn: func(b []byte) ([]byte, error) {
		return bytes.ToUpper(b), nil
	}}
	trim := Generic{Suffixes: []string{".txt"}, Fn: func(b []byte) ([]byte, error) {
		return bytes.TrimSpace(b), nil
	}}
	reg := Registry{upper, trim}
	out, err := reg.Apply("notes.txt", []byte("  hello  "))
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if string(out) != "HELLO" {
		t.Fatalf("Apply() = %q, want %q", out, "HELLO")
	}
}

func TestBuildResolvesKnownIdentifiers(t *testing.T) {
	reg := Build([]string{"php", "json", "unknown"})
	if len(reg) != 2 {
		t.Fatalf("Build returned %d compactors, want 2", len(reg))
	}
	if _, ok := reg[0].(PHP); !ok {
		t.Fatalf("reg[0] = %T, want PHP", reg[0])
	}
	if _, ok := reg[1].(JSON); !ok {
		t.Fatalf("reg[1] = %T, want JSON", reg[1])
	}
}

func TestBuildResolvesFileSuffixIdentifier(t *testing.T) {
	reg := Build([]string{"file-suffix:.txt,.md"})
	if len(reg) != 1 {
		t.Fatalf("Build returned %d compactors, want 1", len(reg))
	}
	g, ok := reg[0].(Generic)
	if !ok {
		t.Fatalf("reg[0] = %T, want Generic", reg[0])
	}
	if !g.Supports("notes.txt") || !g.Supports("README.md") || g.Supports("main.php") {
		t.Fatalf("Generic built from file-suffix identifier has wrong Suffixes: %v", g.Suffixes)
	}

	out, err := reg.Apply("notes.txt", []byte("hello   \nworld\t\n"))
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if string(out) != "hello\nworld\n" {
		t.Fatalf("Apply() = %q, want trailing whitespace stripped per line", out)
	}
}
