package box

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/magnetik/box/internal/box/boxerr"
)

func writeFakePHP(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "php")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("writing fake php failed: %v", err)
	}
	return path
}

func TestCheckHostWritableAllowsWhenNotReadonly(t *testing.T) {
	old := PHPBinary
	PHPBinary = writeFakePHP(t, `echo ""`)
	defer func() { PHPBinary = old }()

	if err := CheckHostWritable(context.Background()); err != nil {
		t.Fatalf("CheckHostWritable returned %v, want nil", err)
	}
}

func TestCheckHostWritableFailsWhenReadonly(t *testing.T) {
	old := PHPBinary
	PHPBinary = writeFakePHP(t, `echo "1"`)
	defer func() { PHPBinary = old }()

	err := CheckHostWritable(context.Background())
	if err == nil {
		t.Fatalf("CheckHostWritable returned nil, want a HostReadOnly error")
	}
	fatal, ok := err.(*boxerr.Fatal)
	if !ok || fatal.Kind != boxerr.HostReadOnly {
		t.Fatalf("CheckHostWritable error = %#v, want *boxerr.Fatal{Kind: HostReadOnly}", err)
	}
}

func TestCheckHostWritableSkipsMissingInterpreter(t *testing.T) {
	old := PHPBinary
	PHPBinary = filepath.Join(t.TempDir(), "no-such-binary")
	defer func() { PHPBinary = old }()

	if err := CheckHostWritable(context.Background()); err != nil {
		t.Fatalf("CheckHostWritable returned %v, want nil when the interpreter isn't found", err)
	}
}
