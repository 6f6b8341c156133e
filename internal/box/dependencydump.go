package box

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/magnetik/box/internal/box/composer"
)

// RunDependencyDump executes stage 3, DependencyDump. It is
// a no-op when dumpAutoload is disabled. Candidate file lists must already
// have been produced by Enumerate — the dependency manager refreshes
// vendor/ in place; it does not introduce new bundle paths the finder
// configuration didn't already cover.
func RunDependencyDump(ctx context.Context, c *Config, log *logrus.Entry) error {
	if !c.dumpAutoload {
		return nil
	}
	return composer.Dump(ctx, c.basePath, composer.Options{NoDev: c.excludeDevFiles}, log)
}

// excludedComposerFiles are pruned from the candidate set after
// DependencyDump when excludeComposerFiles is true.
var excludedComposerFiles = []string{
	"composer.json",
	"composer.lock",
	filepath.Join("vendor", "composer", "installed.json"),
}

// FilterComposerFiles drops composer.{json,lock} and
// vendor/composer/installed.json from files when c.excludeComposerFiles
// is set.
func FilterComposerFiles(c *Config, files []SourceEntry) []SourceEntry {
	if !c.excludeComposerFiles {
		return files
	}
	out := make([]SourceEntry, 0, len(files))
	for _, f := range files {
		if isExcludedComposerFile(f.BundlePath) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func isExcludedComposerFile(bundlePath string) bool {
	bundlePath = filepath.ToSlash(bundlePath)
	for _, ex := range excludedComposerFiles {
		if bundlePath == filepath.ToSlash(ex) || strings.HasSuffix(bundlePath, "/"+filepath.ToSlash(ex)) {
			return true
		}
	}
	return false
}
