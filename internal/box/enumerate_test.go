package box

import (
	"path/filepath"
	"testing"

	"github.com/magnetik/box/internal/box/mapper"
)

func TestEnumerateListsExplicitFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFixture(t, dir, "src/A.php", "a")
	writeFixture(t, dir, "src/B.php", "b")

	c := &Config{basePath: dir, files: []string{a}, outputPath: filepath.Join(dir, "out.phar")}
	files, binaryFiles, err := Enumerate(c, "", "")
	if err != nil {
		t.Fatalf("Enumerate returned error: %v", err)
	}
	if len(files) != 1 || files[0].BundlePath != "src/A.php" {
		t.Fatalf("files = %+v, want only src/A.php", files)
	}
	if len(binaryFiles) != 0 {
		t.Fatalf("binaryFiles = %+v, want none", binaryFiles)
	}
}

func TestEnumerateExcludesVCSDirs(t *testing.T) {
	dir := t.TempDir()
	a := writeFixture(t, dir, "src/A.php", "a")
	gitFile := writeFixture(t, dir, ".git/HEAD", "ref: refs/heads/main")

	c := &Config{basePath: dir, files: []string{a, gitFile}, outputPath: filepath.Join(dir, "out.phar")}
	files, _, err := Enumerate(c, "", "")
	if err != nil {
		t.Fatalf("Enumerate returned error: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("files = %+v, want VCS path excluded", files)
	}
}

func TestEnumerateExcludesOutputAndConfigPaths(t *testing.T) {
	dir := t.TempDir()
	a := writeFixture(t, dir, "src/A.php", "a")
	outputPath := filepath.Join(dir, "out.phar")
	writeFixture(t, dir, "out.phar", "junk leftover from a previous build")
	cfgPath := writeFixture(t, dir, "box.json", "{}")

	c := &Config{basePath: dir, files: []string{a, outputPath}, outputPath: outputPath}
	files, _, err := Enumerate(c, cfgPath, "")
	if err != nil {
		t.Fatalf("Enumerate returned error: %v", err)
	}
	if len(files) != 1 || files[0].BundlePath != "src/A.php" {
		t.Fatalf("files = %+v, want only src/A.php after excluding the output path", files)
	}
}

func TestEnumerateDetectsConflictingSourcePaths(t *testing.T) {
	dir := t.TempDir()
	a := writeFixture(t, dir, "src/A.php", "a")
	b := writeFixture(t, dir, "other/A.php", "b")

	c := &Config{
		basePath: dir,
		files:    []string{a},
		filesBin: []string{b},
		mapRules: mapper.Rules{
			{Prefix: "other", Replacement: "src"},
		},
		outputPath: filepath.Join(dir, "out.phar"),
	}
	if _, _, err := Enumerate(c, "", ""); err == nil {
		t.Fatalf("Enumerate returned nil error for two sources mapped to the same bundle path")
	}
}
