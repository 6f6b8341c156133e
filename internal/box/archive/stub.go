package archive

import (
	"fmt"
	"os"
	"strings"

	"github.com/magnetik/box/internal/box/boxerr"
)

// Terminator is the exact sequence the generated stub must end with.
const Terminator = "__HALT_COMPILER(); ?>"

// StubSpec is the input to stub rendering.
type StubSpec struct {
	Shebang            string
	HasShebang         bool
	Banner             string
	Alias              string
	Index              string
	HasIndex           bool
	InterceptFileFuncs bool
	CheckRequirements  bool
}

// RenderStub synthesizes the stub's exact textual layout. Trailing
// whitespace in the banner is not trimmed; the stub is written verbatim
// as the archive's leading bytes.
func RenderStub(spec StubSpec) []byte {
	var b strings.Builder
	if spec.HasShebang && spec.Shebang != "" {
		b.WriteString(spec.Shebang)
		b.WriteByte('\n')
	}
	b.WriteString("<?php\n\n")
	if spec.Banner != "" {
		b.WriteString(renderBanner(spec.Banner))
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "Phar::mapPhar('%s');\n\n", spec.Alias)
	if spec.InterceptFileFuncs {
		b.WriteString("Phar::interceptFileFuncs();\n\n")
	}
	if spec.CheckRequirements {
		fmt.Fprintf(&b, "require 'phar://%s/.box/bin/check-requirements.php';\n\n", spec.Alias)
	}
	if spec.HasIndex && spec.Index != "" {
		fmt.Fprintf(&b, "require 'phar://%s/%s';\n\n", spec.Alias, spec.Index)
	}
	b.WriteString(Terminator + "\n")
	return []byte(b.String())
}

// renderBanner wraps banner text as a "/* ... */" comment block, one
// star-space prefix per line — even a one-line banner uses the block form.
func renderBanner(banner string) string {
	lines := strings.Split(banner, "\n")
	var b strings.Builder
	b.WriteString("/*\n")
	for _, line := range lines {
		b.WriteString(" * ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString(" */\n")
	return b.String()
}

// ValidateStub enforces that the stub ends with the Terminator, optionally
// followed by exactly one '\n'.
func ValidateStub(stub []byte) error {
	s := string(stub)
	if strings.HasSuffix(s, Terminator+"\n") {
		return nil
	}
	if strings.HasSuffix(s, Terminator) {
		return nil
	}
	return boxerr.New(boxerr.StubInvalid, "stub does not end with %q", Terminator)
}

// LoadCustomStub reads a user-provided stub file verbatim.
func LoadCustomStub(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, boxerr.Wrap(boxerr.StubInvalid, err, "reading stub file %q", path)
	}
	if err := ValidateStub(data); err != nil {
		return nil, err
	}
	return data, nil
}

// DefaultStub is the host interpreter's built-in default stub, requested
// with no banner, no shebang, and no alias mapping embedded in the stub
// text itself (the alias is still set in the manifest header).
func DefaultStub() []byte {
	return []byte("<?php\n" + Terminator + "\n")
}
