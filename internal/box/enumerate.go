package box

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/magnetik/box/internal/box/boxerr"
	"github.com/magnetik/box/internal/box/composer"
	"github.com/magnetik/box/internal/box/finder"
)

// vcsNames are pruned from discovery regardless of configuration.
var vcsNames = []string{".git", ".svn", ".hg"}

// Enumerate runs the SourceEnumerate stage: expands finders, directories,
// explicit file lists, and auto-discovery into two deduplicated,
// canonicalized, deterministically ordered SourceEntry lists.
func Enumerate(c *Config, configFilePath, builderExePath string) (files, binaryFiles []SourceEntry, err error) {
	var candidates []string

	if c.autoDiscover {
		discovered, err := autoDiscover(c.basePath)
		if err != nil {
			return nil, nil, err
		}
		candidates = append(candidates, discovered...)
	} else {
		candidates = append(candidates, c.files...)
		for _, dir := range c.directories {
			fc := finder.DefaultConfig()
			fc.In = []string{dir}
			found, err := finder.Discover(fc)
			if err != nil {
				return nil, nil, boxerr.Wrap(boxerr.UnreadableSource, err, "walking directory %q", dir)
			}
			candidates = append(candidates, found...)
		}
		for _, fc := range c.finders {
			found, err := finder.Discover(fc)
			if err != nil {
				return nil, nil, boxerr.Wrap(boxerr.UnreadableSource, err, "running finder")
			}
			candidates = append(candidates, found...)
		}
	}

	var binCandidates []string
	binCandidates = append(binCandidates, c.filesBin...)
	for _, dir := range c.directoriesBin {
		fc := finder.DefaultConfig()
		fc.In = []string{dir}
		found, err := finder.Discover(fc)
		if err != nil {
			return nil, nil, boxerr.Wrap(boxerr.UnreadableSource, err, "walking binary directory %q", dir)
		}
		binCandidates = append(binCandidates, found...)
	}
	for _, fc := range c.findersBin {
		found, err := finder.Discover(fc)
		if err != nil {
			return nil, nil, boxerr.Wrap(boxerr.UnreadableSource, err, "running binary finder")
		}
		binCandidates = append(binCandidates, found...)
	}

	excluded := append([]string{}, c.blacklist...)
	excluded = append(excluded, c.outputPath, c.tmpOutputPath)
	if configFilePath != "" {
		excluded = append(excluded, configFilePath)
	}
	if builderExePath != "" {
		excluded = append(excluded, builderExePath)
	}

	if c.excludeDevFiles {
		if lock, err := composer.ReadLock(c.basePath); err == nil {
			for _, dir := range lock.DevPackageDirs(filepath.Join(c.basePath, "vendor")) {
				excluded = append(excluded, dir)
			}
		}
	}

	files, err = buildEntries(c, candidates, excluded)
	if err != nil {
		return nil, nil, err
	}
	binaryFiles, err = buildEntries(c, binCandidates, excluded)
	if err != nil {
		return nil, nil, err
	}

	if err := checkConflicts(files, binaryFiles); err != nil {
		return nil, nil, err
	}

	return files, binaryFiles, nil
}

func autoDiscover(basePath string) ([]string, error) {
	manifest, err := composer.ReadManifest(basePath)
	if err != nil {
		// No composer.json: nothing to auto-discover from; an empty
		// result is valid.
		return nil, nil
	}
	var candidates []string
	for _, dir := range manifest.AutoloadDirs() {
		full := filepath.Join(basePath, dir)
		if isDir(full) {
			fc := finder.DefaultConfig()
			fc.In = []string{full}
			found, err := finder.Discover(fc)
			if err != nil {
				return nil, boxerr.Wrap(boxerr.UnreadableSource, err, "auto-discovering %q", dir)
			}
			candidates = append(candidates, found...)
		} else if isFile(full) {
			candidates = append(candidates, full)
		}
	}
	return candidates, nil
}

func buildEntries(c *Config, candidates []string, excluded []string) ([]SourceEntry, error) {
	seen := map[string]string{} // bundlePath -> localPath
	var out []SourceEntry
	for _, local := range candidates {
		abs, err := filepath.Abs(local)
		if err != nil {
			return nil, boxerr.Wrap(boxerr.UnreadableSource, err, "resolving %q", local)
		}
		if isExcluded(abs, excluded) {
			continue
		}
		if isVCSPath(abs) {
			continue
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, boxerr.Wrap(boxerr.UnreadableSource, err, "stat %q", abs)
		}
		if !info.Mode().IsRegular() {
			continue
		}
		f, err := os.Open(abs)
		if err != nil {
			return nil, boxerr.Wrap(boxerr.UnreadableSource, err, "opening %q", abs)
		}
		f.Close()

		rel, err := filepath.Rel(c.basePath, abs)
		if err != nil {
			return nil, boxerr.Wrap(boxerr.UnreadableSource, err, "relativizing %q", abs)
		}
		bundlePath := filepath.ToSlash(c.mapRules.Apply(filepath.ToSlash(rel)))
		bundlePath = strings.TrimPrefix(bundlePath, "/")

		if existing, ok := seen[bundlePath]; ok && existing != abs {
			return nil, boxerr.New(boxerr.ConflictingSourcePaths,
				"both %q and %q map to bundle path %q", existing, abs, bundlePath)
		}
		seen[bundlePath] = abs
		out = append(out, SourceEntry{LocalPath: abs, BundlePath: bundlePath})
	}

	dedup := map[string]bool{}
	var final []SourceEntry
	for _, e := range out {
		if dedup[e.BundlePath] {
			continue
		}
		dedup[e.BundlePath] = true
		final = append(final, e)
	}
	sort.Slice(final, func(i, j int) bool { return final[i].BundlePath < final[j].BundlePath })
	return final, nil
}

func checkConflicts(files, binaryFiles []SourceEntry) error {
	seen := map[string]string{}
	for _, e := range append(append([]SourceEntry{}, files...), binaryFiles...) {
		if existing, ok := seen[e.BundlePath]; ok && existing != e.LocalPath {
			return boxerr.New(boxerr.ConflictingSourcePaths,
				"both %q and %q map to bundle path %q", existing, e.LocalPath, e.BundlePath)
		}
		seen[e.BundlePath] = e.LocalPath
	}
	return nil
}

func isExcluded(path string, excluded []string) bool {
	for _, ex := range excluded {
		if ex == "" {
			continue
		}
		exAbs, err := filepath.Abs(ex)
		if err == nil && (path == exAbs || strings.HasPrefix(path, exAbs+string(filepath.Separator))) {
			return true
		}
	}
	return false
}

func isVCSPath(path string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		for _, vcs := range vcsNames {
			if seg == vcs {
				return true
			}
		}
	}
	return false
}

func isDir(p string) bool {
	st, err := os.Stat(p)
	return err == nil && st.IsDir()
}

func isFile(p string) bool {
	st, err := os.Stat(p)
	return err == nil && st.Mode().IsRegular()
}
