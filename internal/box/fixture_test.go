package box

import (
	"os"
	"path/filepath"
	"testing"
)

// writeFixture writes contents to root/rel, creating parent directories as
// needed, and fails the test on any I/O error.
func writeFixture(t *testing.T, root, rel, contents string) string {
	t.Helper()
	full := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatalf("MkdirAll(%q) failed: %v", filepath.Dir(full), err)
	}
	if err := os.WriteFile(full, []byte(contents), 0644); err != nil {
		t.Fatalf("WriteFile(%q) failed: %v", full, err)
	}
	return full
}
