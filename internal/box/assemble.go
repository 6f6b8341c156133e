package box

import (
	"github.com/magnetik/box/internal/box/archive"
	"github.com/magnetik/box/internal/box/boxerr"
)

// RunAssemble opens a Writer at c.tmpOutputPath and adds entries in the
// order the stub can require them: the main script, then the
// requirement-checker payload (when present), then every processed
// regular file, then every binary file (raw, no prefix/compact applied).
// Compression is applied inline as each entry is added — by the time
// Assemble runs, c.CompressionAlgorithm() is already fixed, and applying
// it per AddFrom* call lets large files stream straight from disk through
// the compressor without ever buffering their full, uncompressed content.
func RunAssemble(c *Config, ctx *Context, processedFiles []PrefixFiles, binaryFiles []SourceEntry, requirementEntry *PrefixFiles, checkerEntries []PrefixFiles) (*archive.Writer, error) {
	w, err := archive.Open(c.tmpOutputPath)
	if err != nil {
		return nil, err
	}
	w.SetReserver(ctx)

	w.SetCompression(compressionFlag(c.CompressionAlgorithm()))
	w.SetAlias(c.alias)
	w.SetMetadata(c.metadata)

	stub, err := buildStub(c)
	if err != nil {
		return nil, err
	}
	if err := w.SetStub(stub); err != nil {
		return nil, err
	}

	if c.mainScriptPath != "" {
		if err := w.AddFromString(mainBundlePath(c), c.mainScriptContents); err != nil {
			return nil, err
		}
	}

	if requirementEntry != nil {
		if err := w.AddFromString(requirementEntry.BundlePath, requirementEntry.Contents); err != nil {
			return nil, err
		}
		for _, f := range checkerEntries {
			if err := w.AddFromString(f.BundlePath, f.Contents); err != nil {
				return nil, err
			}
		}
	}

	for _, f := range processedFiles {
		if err := w.AddFromString(f.BundlePath, f.Contents); err != nil {
			return nil, err
		}
	}

	for _, f := range binaryFiles {
		if err := w.AddFromFile(f.BundlePath, f.LocalPath); err != nil {
			return nil, err
		}
	}

	return w, nil
}

func compressionFlag(alg CompressionAlgorithm) archive.EntryFlag {
	switch alg {
	case CompressionGZ:
		return archive.FlagGZ
	case CompressionBZ2:
		return archive.FlagBZ2
	default:
		return archive.FlagNone
	}
}

func mainBundlePath(c *Config) string {
	rel, err := relativeBundlePath(c.basePath, c.mainScriptPath)
	if err != nil {
		return "index.php"
	}
	return rel
}

func buildStub(c *Config) ([]byte, error) {
	switch c.stubMode {
	case StubDefault:
		return archive.DefaultStub(), nil
	case StubCustomPath:
		return archive.LoadCustomStub(c.stubPath)
	case StubGenerate:
		shebang, hasShebang := c.Shebang()
		spec := archive.StubSpec{
			Shebang:            shebang,
			HasShebang:         hasShebang,
			Banner:             c.bannerContents,
			Alias:              c.alias,
			Index:              mainBundlePath(c),
			HasIndex:           c.mainScriptPath != "",
			InterceptFileFuncs: c.interceptFileFuncs,
			CheckRequirements:  c.checkRequirements,
		}
		return archive.RenderStub(spec), nil
	default:
		return nil, boxerr.New(boxerr.StubInvalid, "unknown stub mode")
	}
}
