// Package scoper implements the prefix stage's pluggable source rewriter
// contract:
//
//	prefix(contents []byte, relativePath string) ([]byte, error)
//
// Two implementations are provided: NullTransform, a pass-through used
// when no scoper is configured, and External, which shells out to a
// configured scoper binary, feeding file content on stdin and reading
// transformed content from stdout.
package scoper

import (
	"bytes"
	"context"
	"os/exec"

	shlex "github.com/anmitsu/go-shlex"

	"github.com/magnetik/box/internal/box/boxerr"
)

// Transformer is the prefixer contract every scoper implementation
// satisfies.
type Transformer interface {
	Transform(ctx context.Context, contents []byte, relativePath string) ([]byte, error)
}

// NullTransform passes content through unchanged; used when Prefix is
// disabled.
type NullTransform struct{}

func (NullTransform) Transform(_ context.Context, contents []byte, _ string) ([]byte, error) {
	return contents, nil
}

// External invokes a configured external command once per matching file,
// writing file contents to its stdin and reading the rewritten contents
// from its stdout. Command is a shell-word template; the literal token
// "{path}" is substituted with relativePath before splitting, so a scoper
// binary that needs the path as an argument (rather than inferring it from
// content) can receive it.
type External struct {
	Command string
	Prefix  string // namespace prefix passed via BOX_SCOPER_PREFIX
}

func (e External) Transform(ctx context.Context, contents []byte, relativePath string) ([]byte, error) {
	line := substitutePath(e.Command, relativePath)
	words, err := shlex.Split(line, true)
	if err != nil {
		return nil, boxerr.Wrap(boxerr.PrefixFailed, err, "preparing scoper command %q", line)
	}
	if len(words) == 0 {
		return nil, boxerr.New(boxerr.PrefixFailed, "empty scoper command")
	}

	cmd := exec.CommandContext(ctx, words[0], words[1:]...)
	cmd.Env = append(cmd.Environ(), "BOX_SCOPER_PREFIX="+e.Prefix)
	cmd.Stdin = bytes.NewReader(contents)
	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut

	if err := cmd.Run(); err != nil {
		return nil, boxerr.Wrap(boxerr.PrefixFailed, err, "scoper failed on %s", relativePath).WithOutput(errOut.String())
	}
	return out.Bytes(), nil
}

func substitutePath(command, relativePath string) string {
	out := make([]byte, 0, len(command))
	for i := 0; i < len(command); i++ {
		if i+6 <= len(command) && command[i:i+6] == "{path}" {
			out = append(out, relativePath...)
			i += 5
			continue
		}
		out = append(out, command[i])
	}
	return string(out)
}

// GeneratedPrefix produces the auto-generated namespace prefix used when
// no alias is configured. suffix must already be a stable, caller-supplied
// token (e.g. derived from a content hash of the candidate file set) so
// that two builds of an unchanged tree pick the same prefix — determinism
// rules out a random suffix minted at build time.
func GeneratedPrefix(suffix string) string {
	return "_BoxScope" + suffix
}
