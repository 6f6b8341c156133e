package box

import (
	"strings"

	"github.com/magnetik/box/internal/box/archive"
	"github.com/magnetik/box/internal/box/composer"
	"github.com/magnetik/box/internal/box/requirement"
)

// RunRequirementCollect builds the requirement manifest from the base
// path's composer.json/composer.lock and renders it into the
// .box/.requirements.php payload file the embedded checker reads. It
// returns nil, nil when checkRequirements is disabled.
func RunRequirementCollect(c *Config) (requirement.Manifest, *PrefixFiles, error) {
	if !c.checkRequirements {
		return requirement.Manifest{}, nil, nil
	}

	project, _ := composer.ReadManifest(c.basePath)
	lock, _ := composer.ReadLock(c.basePath)

	manifest := requirement.Collect(project, lock, c.excludeDevFiles)
	body := renderRequirementsPHP(manifest)

	entry := &PrefixFiles{BundlePath: ".box/.requirements.php", Contents: body}
	return manifest, entry, nil
}

// renderRequirementsPHP serializes manifest as a plain PHP array literal,
// the format check-requirements.php expects from its `include` — no JSON
// extension dependency, since this file must be readable by the same
// bare interpreter the checker itself validates.
func renderRequirementsPHP(manifest requirement.Manifest) []byte {
	var b strings.Builder
	b.WriteString("<?php\n\nreturn ['requirements' => [\n")
	for _, r := range manifest.Requirements {
		b.WriteString("    [\n")
		b.WriteString("        'kind' => " + phpQuote(string(r.Kind)) + ",\n")
		b.WriteString("        'constraint' => " + phpQuote(r.Constraint) + ",\n")
		b.WriteString("        'source' => " + phpQuote(r.Source) + ",\n")
		b.WriteString("    ],\n")
	}
	b.WriteString("]];\n")
	return []byte(b.String())
}

func phpQuote(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "'", "\\'")
	return "'" + s + "'"
}

// RequirementCheckerEntries returns the fixed payload files to add to the
// bundle under .box/ when checkRequirements is enabled.
func RequirementCheckerEntries() ([]PrefixFiles, error) {
	payload, err := archive.RequirementCheckerPayload()
	if err != nil {
		return nil, err
	}
	out := make([]PrefixFiles, 0, len(payload))
	for _, p := range payload {
		out = append(out, PrefixFiles{BundlePath: p.BundlePath, Contents: p.Contents})
	}
	return out, nil
}
