package box

import (
	cmap "github.com/orcaman/concurrent-map"

	"github.com/magnetik/box/internal/box/baton"
	"github.com/magnetik/box/internal/box/requirement"
)

// Context is the mutable build context: created at Assemble start,
// destroyed at Finalize. SeenBundlePaths backs Reserve, which RunAssemble
// wires into archive.Writer as its duplicate-bundle-path check (via
// Writer.SetReserver), so the reservation a Writer enforces and the one
// Context reports are the same map. It uses a per-bucket-locking
// concurrent map even though the pipeline runs single-threaded today, so
// that a future parallel Assemble can share it without a package-wide
// lock.
type Context struct {
	Baton           *baton.Baton
	SeenBundlePaths cmap.ConcurrentMap
	BytesWritten    int64
	FileCount       int
	Requirements    requirement.Manifest
	Warnings        []string
}

// NewContext creates a fresh BuildContext for one build.
func NewContext(b *baton.Baton) *Context {
	return &Context{
		Baton:           b,
		SeenBundlePaths: cmap.New(),
	}
}

// Reserve claims bundlePath for the archive, returning a DuplicateEntry-
// flavored boolean: false means the path was already taken.
func (ctx *Context) Reserve(bundlePath string) bool {
	if ctx.SeenBundlePaths.Has(bundlePath) {
		return false
	}
	ctx.SeenBundlePaths.Set(bundlePath, true)
	return true
}

func (ctx *Context) addWarning(msg string) {
	ctx.Warnings = append(ctx.Warnings, msg)
}
