package composer

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestReadManifestParsesComposerJSON(t *testing.T) {
	dir := t.TempDir()
	body := `{"require": {"php": "^8.1"}, "autoload": {"psr-4": {"App\\": "src/"}}}`
	if err := os.WriteFile(filepath.Join(dir, "composer.json"), []byte(body), 0644); err != nil {
		t.Fatalf("writing fixture failed: %v", err)
	}
	m, err := ReadManifest(dir)
	if err != nil {
		t.Fatalf("ReadManifest returned error: %v", err)
	}
	if m.Require["php"] != "^8.1" {
		t.Fatalf("Require[php] = %q, want ^8.1", m.Require["php"])
	}
	dirs := m.AutoloadDirs()
	if len(dirs) != 1 || dirs[0] != "src/" {
		t.Fatalf("AutoloadDirs() = %v, want [src/]", dirs)
	}
}

func TestReadManifestMissingFileErrors(t *testing.T) {
	if _, err := ReadManifest(t.TempDir()); err == nil {
		t.Fatalf("ReadManifest returned nil error for a missing composer.json")
	}
}

func TestReadLockParsesPackagesAndDevPackages(t *testing.T) {
	dir := t.TempDir()
	body := `{
		"packages": [{"name": "vendor/a", "require": {"php": ">=7.4"}}],
		"packages-dev": [{"name": "vendor/dev-a", "require": {}}]
	}`
	if err := os.WriteFile(filepath.Join(dir, "composer.lock"), []byte(body), 0644); err != nil {
		t.Fatalf("writing fixture failed: %v", err)
	}
	l, err := ReadLock(dir)
	if err != nil {
		t.Fatalf("ReadLock returned error: %v", err)
	}
	if len(l.Packages) != 1 || l.Packages[0].Name != "vendor/a" {
		t.Fatalf("Packages = %+v, want one vendor/a entry", l.Packages)
	}

	dirs := l.DevPackageDirs("vendor")
	sort.Strings(dirs)
	want := filepath.Join("vendor", "vendor/dev-a")
	if len(dirs) != 1 || dirs[0] != want {
		t.Fatalf("DevPackageDirs() = %v, want [%s]", dirs, want)
	}
}

func TestAutoloadDirsCollectsAllSources(t *testing.T) {
	m := Manifest{Autoload: Autoload{
		Classmap: []string{"lib/"},
		Files:    []string{"bootstrap.php"},
	}}
	dirs := m.AutoloadDirs()
	sort.Strings(dirs)
	want := []string{"bootstrap.php", "lib/"}
	if len(dirs) != len(want) {
		t.Fatalf("AutoloadDirs() = %v, want %v", dirs, want)
	}
	for i := range want {
		if dirs[i] != want[i] {
			t.Fatalf("AutoloadDirs()[%d] = %q, want %q", i, dirs[i], want[i])
		}
	}
}
