// Package composer invokes the dependency manager subprocess for the
// dependency-dump stage: split the command line with go-shlex, run it
// with the project root as the working directory, capture combined
// stdout/stderr, and surface the output verbatim when the exit code is
// non-zero.
package composer

import (
	"bytes"
	"context"
	"os/exec"

	shlex "github.com/anmitsu/go-shlex"
	"github.com/sirupsen/logrus"

	"github.com/magnetik/box/internal/box/boxerr"
)

// Binary is the dependency-manager executable name, overridable for
// testing.
var Binary = "composer"

// Options controls the dump-autoload invocation.
type Options struct {
	NoDev   bool
	Verbose bool
}

// Dump runs `composer dump-autoload --classmap-authoritative [--no-dev]`
// in basePath. A non-zero exit is a fatal DependencyManagerFailed error
// carrying the captured combined output.
func Dump(ctx context.Context, basePath string, opts Options, log *logrus.Entry) error {
	line := Binary + " dump-autoload --classmap-authoritative"
	if opts.NoDev {
		line += " --no-dev"
	}
	if opts.Verbose {
		line += " -v"
	}
	words, err := shlex.Split(line, true)
	if err != nil {
		return boxerr.Wrap(boxerr.DependencyManagerFailed, err, "preparing %q for execution", line)
	}

	log.WithField("command", line).Debug("running dependency manager")

	cmd := exec.CommandContext(ctx, words[0], words[1:]...)
	cmd.Dir = basePath
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		log.WithField("output", out.String()).Error("dependency manager failed")
		return boxerr.Wrap(boxerr.DependencyManagerFailed, err, "%s failed", line).WithOutput(out.String())
	}
	log.Debug("dependency manager dump-autoload completed")
	return nil
}
