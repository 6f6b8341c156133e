package archive

import (
	"compress/gzip"
	"io"

	"github.com/dsnet/compress/bzip2"
)

// EntryFlag records per-entry compression. The archive-level compression
// flag is intentionally never set, even when every entry uses the same
// algorithm — entries carry their own flag independently.
type EntryFlag uint32

const (
	FlagNone EntryFlag = 0
	FlagGZ   EntryFlag = 1 << 0
	FlagBZ2  EntryFlag = 1 << 1
)

// compressWriteCloser wraps w so that bytes written through it land in w
// compressed per algo. NONE returns a no-op wrapper.
type compressWriteCloser struct {
	io.Writer
	closer func() error
}

func (c *compressWriteCloser) Close() error {
	if c.closer != nil {
		return c.closer()
	}
	return nil
}

func newCompressor(w io.Writer, flag EntryFlag) (*compressWriteCloser, error) {
	switch flag {
	case FlagGZ:
		gz := gzip.NewWriter(w)
		return &compressWriteCloser{Writer: gz, closer: gz.Close}, nil
	case FlagBZ2:
		bz, err := bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bzip2.DefaultCompression})
		if err != nil {
			return nil, err
		}
		return &compressWriteCloser{Writer: bz, closer: bz.Close}, nil
	default:
		return &compressWriteCloser{Writer: w}, nil
	}
}
