package box

import (
	"context"

	"github.com/magnetik/box/internal/box/boxerr"
	"github.com/magnetik/box/internal/box/scoper"
)

// PrefixFiles holds a file's bundle path together with its content,
// threaded through the prefix and compact stages before it reaches
// Assemble.
type PrefixFiles struct {
	BundlePath string
	LocalPath  string
	Contents   []byte
}

// RunPrefix applies transform to every regular (non-binary) file's
// contents, reading each file fully into memory — the scoper subprocess
// contract requires a complete buffer on stdin, so this stage is exempt
// from the streaming discipline that governs Assemble.
func RunPrefix(ctx context.Context, files []SourceEntry, transform scoper.Transformer) ([]PrefixFiles, error) {
	out := make([]PrefixFiles, 0, len(files))
	for _, f := range files {
		data, err := readFile(f.LocalPath)
		if err != nil {
			return nil, err
		}
		transformed, err := transform.Transform(ctx, data, f.BundlePath)
		if err != nil {
			return nil, boxerr.Wrap(boxerr.PrefixFailed, err, "prefixing %q", f.BundlePath)
		}
		out = append(out, PrefixFiles{BundlePath: f.BundlePath, LocalPath: f.LocalPath, Contents: transformed})
	}
	return out, nil
}
