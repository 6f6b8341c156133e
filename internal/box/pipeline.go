package box

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/magnetik/box/internal/box/baton"
	"github.com/magnetik/box/internal/box/compactor"
	"github.com/magnetik/box/internal/box/scoper"
)

// BuildOptions carries per-run inputs that sit outside box.json: the
// config file's own path and the running builder executable's path, both
// excluded from discovery, plus the prefix transformer to apply.
type BuildOptions struct {
	ConfigFilePath string
	BuilderExePath string
	Scoper         scoper.Transformer
}

// Run drives the full ten-stage pipeline — config is assumed already
// resolved — and returns the finished build report. Each stage's errors
// are returned as-is (already *boxerr.Fatal values); Run adds no
// additional wrapping so the CLI layer sees the original Kind.
func Run(ctx context.Context, c *Config, opts BuildOptions, log *logrus.Entry, b *baton.Baton) (*Report, error) {
	started := time.Now()
	buildCtx := NewContext(b)

	if err := CheckHostWritable(ctx); err != nil {
		return nil, err
	}

	b.StartCounter("Enumerating sources", 0)
	files, binaryFiles, err := Enumerate(c, opts.ConfigFilePath, opts.BuilderExePath)
	if err != nil {
		return nil, err
	}
	b.EndCounter()

	if err := RunDependencyDump(ctx, c, log); err != nil {
		return nil, err
	}
	files = FilterComposerFiles(c, files)

	transform := opts.Scoper
	if transform == nil {
		transform = scoper.NullTransform{}
	}
	b.StartCounter("Prefixing sources", 0)
	prefixed, err := RunPrefix(ctx, files, transform)
	if err != nil {
		return nil, err
	}
	b.EndCounter()

	reg := compactor.Build(c.compactors)
	b.StartCounter("Compacting sources", 0)
	compacted, err := RunCompact(prefixed, reg)
	if err != nil {
		return nil, err
	}
	b.EndCounter()

	manifest, requirementEntry, err := RunRequirementCollect(c)
	if err != nil {
		return nil, err
	}
	buildCtx.Requirements = manifest

	var checkerEntries []PrefixFiles
	if requirementEntry != nil {
		checkerEntries, err = RequirementCheckerEntries()
		if err != nil {
			return nil, err
		}
	}

	buildCtx := NewContext(b)
	buildCtx.Requirements = manifest

	b.StartProgress("Assembling archive", uint64(len(compacted)+len(binaryFiles)))
	w, err := RunAssemble(c, buildCtx, compacted, binaryFiles, requirementEntry, checkerEntries)
	if err != nil {
		return nil, err
	}
	b.PercentProgress(uint64(len(compacted) + len(binaryFiles)))
	b.EndProgress()

	signer, err := BuildSigner(c)
	if err != nil {
		return nil, err
	}

	closeResult, err := w.Close(signer)
	if err != nil {
		return nil, err
	}
	buildCtx.BytesWritten = closeResult.BytesWritten
	buildCtx.FileCount = closeResult.FileCount

	return RunFinalize(c, closeResult, started, b)
}
