// Package finder implements a declarative directory walker for source
// file discovery.
package finder

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	orderedset "github.com/emirpasic/gods/sets/linkedhashset"
)

// Config is one finder declaration from box.json's "finder"/"finder-bin"
// array.
type Config struct {
	In             []string
	Name           []string
	NotName        []string
	Path           []string
	NotPath        []string
	Exclude        []string
	MinDepth       int
	MaxDepth       int // 0 means unbounded
	IgnoreVCS      bool
	IgnoreDotFiles bool
}

// DefaultConfig returns a Config with both ignoreVCS and ignoreDotFiles
// set true.
func DefaultConfig() Config {
	return Config{IgnoreVCS: true, IgnoreDotFiles: true}
}

var vcsDirs = map[string]bool{".git": true, ".svn": true, ".hg": true}

// Discover walks every directory in cfg.In and returns the absolute paths
// of every regular file surviving cfg's name/path/exclude/depth filters, in
// deterministic (sorted) order. Symlinks are followed to regular files
// only; directories reached through a symlink are walked once.
func Discover(cfg Config) ([]string, error) {
	found := orderedset.New()
	for _, root := range cfg.In {
		root = filepath.Clean(root)
		rootDepth := strings.Count(root, string(filepath.Separator))
		walkCfg := &fastwalk.Config{Follow: true}
		err := fastwalk.Walk(walkCfg, root, func(path string, de fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path == root {
				return nil
			}
			name := de.Name()
			if cfg.IgnoreDotFiles && strings.HasPrefix(name, ".") {
				if de.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if de.IsDir() {
				if cfg.IgnoreVCS && vcsDirs[name] {
					return filepath.SkipDir
				}
				if cfg.MaxDepth > 0 {
					depth := strings.Count(path, string(filepath.Separator)) - rootDepth
					if depth >= cfg.MaxDepth {
						return filepath.SkipDir
					}
				}
				return nil
			}
			if !de.Type().IsRegular() {
				return nil
			}
			depth := strings.Count(path, string(filepath.Separator)) - rootDepth
			if depth < cfg.MinDepth {
				return nil
			}
			if cfg.MaxDepth > 0 && depth > cfg.MaxDepth {
				return nil
			}
			if !matches(cfg, path, name) {
				return nil
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			found.Add(abs)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	out := make([]string, found.Size())
	for i, v := range found.Values() {
		out[i] = v.(string)
	}
	sort.Strings(out)
	return out, nil
}

func matches(cfg Config, path, name string) bool {
	if len(cfg.Name) > 0 && !anyGlob(cfg.Name, name) {
		return false
	}
	if anyGlob(cfg.NotName, name) {
		return false
	}
	if len(cfg.Path) > 0 && !anyGlob(cfg.Path, path) {
		return false
	}
	if anyGlob(cfg.NotPath, path) {
		return false
	}
	if anyGlob(cfg.Exclude, path) {
		return false
	}
	return true
}

func anyGlob(patterns []string, subject string) bool {
	for _, pat := range patterns {
		if ok, _ := doublestar.Match(pat, subject); ok {
			return true
		}
	}
	return false
}
