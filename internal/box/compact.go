package box

import (
	"github.com/magnetik/box/internal/box/boxerr"
	"github.com/magnetik/box/internal/box/compactor"
)

// RunCompact applies reg to every file's contents in place, threading the
// already-prefixed buffer from RunPrefix into each registered compactor
// that supports its bundle path.
func RunCompact(files []PrefixFiles, reg compactor.Registry) ([]PrefixFiles, error) {
	out := make([]PrefixFiles, len(files))
	for i, f := range files {
		contents, err := reg.Apply(f.BundlePath, f.Contents)
		if err != nil {
			return nil, boxerr.Wrap(boxerr.CompactFailed, err, "compacting %q", f.BundlePath)
		}
		out[i] = PrefixFiles{BundlePath: f.BundlePath, LocalPath: f.LocalPath, Contents: contents}
	}
	return out, nil
}
