// Package requirement implements the RequirementCollect stage: reading the dependency lock file to produce a small requirement
// manifest (PHP version + extensions) embedded in the bundle at
// .box/.requirements.php.
package requirement

import (
	"strings"

	"github.com/magnetik/box/internal/box/composer"
)

// Kind distinguishes a PHP-version constraint from an extension
// constraint.
type Kind string

const (
	PHPVersion Kind = "php-version"
	Extension  Kind = "extension"
)

// Requirement is one entry of the manifest.
type Requirement struct {
	Kind       Kind   `json:"kind"`
	Constraint string `json:"constraint"`
	Source     string `json:"source"`
}

// Manifest is the full requirement-checker payload data.
type Manifest struct {
	Requirements []Requirement `json:"requirements"`
}

// Collect merges require.php and require.ext-* constraints from every
// package in the lock file (and the top-level project manifest) into a
// Manifest. Packages-dev is included unless excludeDev is true.
func Collect(project *composer.Manifest, lock *composer.LockFile, excludeDev bool) Manifest {
	var m Manifest
	if project != nil {
		m.add(project.Require, "composer.json")
	}
	if lock != nil {
		for _, p := range lock.Packages {
			m.add(p.Require, p.Name)
		}
		if !excludeDev {
			for _, p := range lock.PackagesDev {
				m.add(p.Require, p.Name)
			}
		}
	}
	return m.merged()
}

func (m *Manifest) add(require map[string]string, source string) {
	for name, constraint := range require {
		switch {
		case name == "php":
			m.Requirements = append(m.Requirements, Requirement{Kind: PHPVersion, Constraint: constraint, Source: source})
		case strings.HasPrefix(name, "ext-"):
			m.Requirements = append(m.Requirements, Requirement{Kind: Extension, Constraint: strings.TrimPrefix(name, "ext-") + " " + constraint, Source: source})
		}
	}
}

// merged intersects same-kind, same-extension constraints where they can
// be compared as simple minimum-version lower bounds (">=X", "^X", or a
// bare "X"); any constraint string that isn't in one of those three
// recognized shapes is
// kept as-is and contributes its own manifest entry rather than being
// folded into another constraint.
func (m Manifest) merged() Manifest {
	type key struct {
		kind Kind
		name string // extension name, or "" for php-version
	}
	best := map[key]Requirement{}
	bestLower := map[key]string{}
	var unnormalizable []Requirement
	order := []key{}

	for _, r := range m.Requirements {
		k := key{kind: r.Kind}
		constraint := r.Constraint
		if r.Kind == Extension {
			parts := strings.SplitN(r.Constraint, " ", 2)
			k.name = parts[0]
			if len(parts) == 2 {
				constraint = parts[1]
			} else {
				constraint = ""
			}
		}
		lower, ok := lowerBound(constraint)
		if !ok {
			unnormalizable = append(unnormalizable, r)
			continue
		}
		_, seen := best[k]
		if !seen {
			order = append(order, k)
		}
		if !seen || compareVersions(lower, bestLower[k]) > 0 {
			best[k] = r
			bestLower[k] = lower
		}
	}

	out := Manifest{}
	for _, k := range order {
		out.Requirements = append(out.Requirements, best[k])
	}
	out.Requirements = append(out.Requirements, unnormalizable...)
	return out
}

// lowerBound extracts the minimum version from a "^X", ">=X", or bare "X"
// constraint string. It returns ok=false for ranges, OR-lists, or any
// other shape this simple merge cannot normalize.
func lowerBound(constraint string) (string, bool) {
	c := strings.TrimSpace(constraint)
	switch {
	case strings.HasPrefix(c, "^"):
		return strings.TrimPrefix(c, "^"), true
	case strings.HasPrefix(c, ">="):
		return strings.TrimSpace(strings.TrimPrefix(c, ">=")), true
	case c != "" && !strings.ContainsAny(c, "|, <>*"):
		return c, true
	}
	return "", false
}

// compareVersions does a lexical-numeric dotted-version comparison
// sufficient for the lower-bound merge above; it does not implement full
// semver precedence (pre-release tags, build metadata).
func compareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var av, bv int
		if i < len(as) {
			av = atoiSafe(as[i])
		}
		if i < len(bs) {
			bv = atoiSafe(bs[i])
		}
		if av != bv {
			return av - bv
		}
	}
	return 0
}

func atoiSafe(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}
