package box

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/magnetik/box/internal/box/boxerr"
)

// PHPBinary is the host interpreter executable probed by CheckHostWritable,
// overridable for testing.
var PHPBinary = "php"

// CheckHostWritable asks the host interpreter whether it permits creating
// self-executing archives and fails fast, before any stage runs, if it
// doesn't. Missing or unprobeable interpreters are not fatal here — DependencyDump
// is where a genuinely broken toolchain surfaces.
func CheckHostWritable(ctx context.Context) error {
	if _, err := exec.LookPath(PHPBinary); err != nil {
		return nil
	}

	cmd := exec.CommandContext(ctx, PHPBinary, "-r", `echo ini_get("phar.readonly");`)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil
	}

	switch strings.TrimSpace(out.String()) {
	case "1", "On", "on":
		return boxerr.New(boxerr.HostReadOnly, "the host interpreter has phar.readonly enabled; set phar.readonly=0 to build a bundle")
	default:
		return nil
	}
}
