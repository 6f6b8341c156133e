package composer

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Autoload mirrors composer.json's "autoload" block, used by
// SourceEnumerate's auto-discovery path.
type Autoload struct {
	PSR4     map[string]json.RawMessage `json:"psr-4"`
	PSR0     map[string]json.RawMessage `json:"psr-0"`
	Classmap []string                   `json:"classmap"`
	Files    []string                   `json:"files"`
}

// Manifest is the subset of composer.json this package reads.
type Manifest struct {
	Autoload Autoload          `json:"autoload"`
	Require  map[string]string `json:"require"`
}

// Package is one entry of composer.lock's "packages"/"packages-dev".
type Package struct {
	Name    string            `json:"name"`
	Require map[string]string `json:"require"`
}

// LockFile is the subset of composer.lock this package reads.
type LockFile struct {
	Packages    []Package `json:"packages"`
	PackagesDev []Package `json:"packages-dev"`
}

// ReadManifest loads composer.json from basePath.
func ReadManifest(basePath string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(basePath, "composer.json"))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ReadLock loads composer.lock from basePath.
func ReadLock(basePath string) (*LockFile, error) {
	data, err := os.ReadFile(filepath.Join(basePath, "composer.lock"))
	if err != nil {
		return nil, err
	}
	var l LockFile
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// AutoloadDirs flattens every directory declared under psr-4, psr-0,
// classmap, and files into a single list of paths relative to basePath,
// for SourceEnumerate's autoDiscover mode.
func (m Manifest) AutoloadDirs() []string {
	var dirs []string
	collect := func(raw map[string]json.RawMessage) {
		for _, v := range raw {
			var single string
			if err := json.Unmarshal(v, &single); err == nil {
				dirs = append(dirs, single)
				continue
			}
			var many []string
			if err := json.Unmarshal(v, &many); err == nil {
				dirs = append(dirs, many...)
			}
		}
	}
	collect(m.Autoload.PSR4)
	collect(m.Autoload.PSR0)
	dirs = append(dirs, m.Autoload.Classmap...)
	dirs = append(dirs, m.Autoload.Files...)
	return dirs
}

// DevPackageDirs returns each packages-dev entry's conventional vendor
// install directory ("vendor/<name>"), used to prune dev dependencies
// from the candidate set when excludeDevFiles is true.
func (l LockFile) DevPackageDirs(vendorDir string) []string {
	dirs := make([]string, 0, len(l.PackagesDev))
	for _, p := range l.PackagesDev {
		dirs = append(dirs, filepath.Join(vendorDir, p.Name))
	}
	return dirs
}
