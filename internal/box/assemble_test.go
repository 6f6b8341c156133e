package box

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunAssembleOrdersRequirementPayloadBeforeRegularAndBinaryFiles(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "index.php", "<?php echo 'hi';")

	c, err := Resolve(RawConfig{Main: mustJSON(t, "index.php")}, ResolveOptions{WorkingDir: dir})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	binPath := writeFixture(t, dir, "asset.bin", "binary")

	processed := []PrefixFiles{{BundlePath: "src/App.php", Contents: []byte("<?php")}}
	binaryFiles := []SourceEntry{{BundlePath: "asset.bin", LocalPath: binPath}}
	requirementEntry := &PrefixFiles{BundlePath: ".box/.requirements.php", Contents: []byte("<?php return [];")}
	checkerEntries := []PrefixFiles{{BundlePath: ".box/bin/check-requirements.php", Contents: []byte("<?php")}}

	w, err := RunAssemble(c, NewContext(nil), processed, binaryFiles, requirementEntry, checkerEntries)
	if err != nil {
		t.Fatalf("RunAssemble returned error: %v", err)
	}

	want := []string{
		"index.php",
		".box/.requirements.php",
		".box/bin/check-requirements.php",
		"src/App.php",
		"asset.bin",
	}
	got := w.BundlePaths()
	if len(got) != len(want) {
		t.Fatalf("BundlePaths() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("BundlePaths()[%d] = %q, want %q (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestRunAssembleRejectsDuplicateBundlePathAcrossRegularAndBinaryFiles(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "index.php", "<?php")
	c, err := Resolve(RawConfig{Main: mustJSON(t, "index.php")}, ResolveOptions{WorkingDir: dir})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	binPath := writeFixture(t, dir, "dup.php", "binary")
	processed := []PrefixFiles{{BundlePath: "dup.php", Contents: []byte("<?php")}}
	binaryFiles := []SourceEntry{{BundlePath: "dup.php", LocalPath: binPath}}

	if _, err := RunAssemble(c, NewContext(nil), processed, binaryFiles, nil, nil); err == nil {
		t.Fatalf("RunAssemble returned nil error, want DuplicateEntry when a regular and binary file share a bundle path")
	}
}

func mustExist(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected %q to exist: %v", path, err)
	}
}

func TestRunAssembleSkipsRequirementPayloadWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "index.php", "<?php")
	c, err := Resolve(RawConfig{Main: mustJSON(t, "index.php")}, ResolveOptions{WorkingDir: dir})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	w, err := RunAssemble(c, NewContext(nil), nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("RunAssemble returned error: %v", err)
	}
	if got := w.BundlePaths(); len(got) != 1 || got[0] != "index.php" {
		t.Fatalf("BundlePaths() = %v, want just [index.php]", got)
	}
	mustExist(t, filepath.Join(dir, "index.php"))
}
