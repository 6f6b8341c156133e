// Package archive implements the assemble/compress/sign/finalize stages:
// a from-scratch writer for the bundle's self-executing archive container.
//
// Container layout, leading byte 0 to trailing byte:
//
//	stub bytes, ending in "__HALT_COMPILER(); ?>" + optional "\n"
//	manifest (version, alias, metadata, entry count, per-entry records)
//	entry bodies, concatenated, each optionally compressed
//	trailer: signature bytes, 1-byte algorithm tag, 4-byte magic "GBMB"
package archive

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"hash"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"

	"github.com/magnetik/box/internal/box/boxerr"
)

// ManifestVersion is this writer's container format version.
const ManifestVersion uint32 = 1

// Magic is the trailer's fixed marker.
const Magic = "GBMB"

// streamThreshold is the point above which AddFromFile streams rather
// than fully buffering a file's contents.
const streamThreshold = 64 * 1024

type entryRecord struct {
	bundlePath       string
	uncompressedSize uint32
	modTime          uint32
	compressedSize   uint32
	crc32            uint32
	flags            EntryFlag
	dataOffset       int64
}

// PathReserver claims bundle paths, returning false when a path is
// already taken. Writer uses one to detect duplicate entries; satisfied
// by internal/box.Context, so the writer's duplicate check can share
// state with the rest of a build rather than keep its own private set.
type PathReserver interface {
	Reserve(bundlePath string) bool
}

// mapReserver is the default PathReserver, used when no build context is
// wired in (e.g. package-local tests that open a Writer directly).
type mapReserver map[string]bool

func (m mapReserver) Reserve(bundlePath string) bool {
	if m[bundlePath] {
		return false
	}
	m[bundlePath] = true
	return true
}

// Writer assembles one bundle. Entry bodies are staged to a scratch file
// as they are added so Writer itself never holds more than one entry's
// content in memory at a time for entries above streamThreshold; only the
// small per-entry records (a few dozen bytes each) accumulate in memory.
type Writer struct {
	tmpPath   string
	dataPath  string
	dataFile  *os.File
	dataCount int64

	stub     []byte
	alias    string
	metadata interface{}

	compression EntryFlag
	entries     []entryRecord
	reserver    PathReserver
}

// Open creates the scratch data file backing a new Writer. The final
// stub+manifest+data+trailer file is produced by Close.
func Open(tmpPath string) (*Writer, error) {
	dataPath := tmpPath + ".data"
	f, err := os.OpenFile(dataPath, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0644)
	if err != nil {
		return nil, boxerr.Wrap(boxerr.ArchiveIOError, err, "creating scratch data file %q", dataPath)
	}
	return &Writer{
		tmpPath:  tmpPath,
		dataPath: dataPath,
		dataFile: f,
		reserver: make(mapReserver),
	}, nil
}

// SetReserver replaces the writer's duplicate-bundle-path check with r.
// Call before any AddFrom* call; typically wired to the build's
// internal/box.Context so bundle-path reservation is shared with the rest
// of the pipeline instead of kept in a private set.
func (w *Writer) SetReserver(r PathReserver) { w.reserver = r }

// SetCompression sets the per-entry compression algorithm every
// subsequent AddFrom* call applies. NONE is the zero
// value.
func (w *Writer) SetCompression(flag EntryFlag) { w.compression = flag }

// SetStub sets the leading stub bytes; must end with Terminator.
func (w *Writer) SetStub(stub []byte) error {
	if err := ValidateStub(stub); err != nil {
		return err
	}
	w.stub = stub
	return nil
}

// SetAlias records the archive alias for the manifest header.
func (w *Writer) SetAlias(alias string) { w.alias = alias }

// SetMetadata records archive metadata for the manifest header. A nil
// value is represented as absent, not empty-string.
func (w *Writer) SetMetadata(v interface{}) { w.metadata = v }

// EntryCount reports how many entries have been added so far.
func (w *Writer) EntryCount() int { return len(w.entries) }

// BundlePaths reports the bundlePath of every entry added so far, in
// manifest order.
func (w *Writer) BundlePaths() []string {
	out := make([]string, len(w.entries))
	for i, e := range w.entries {
		out[i] = e.bundlePath
	}
	return out
}

// AddFromString appends an entry whose contents are already in memory.
func (w *Writer) AddFromString(bundlePath string, data []byte) error {
	if !w.reserver.Reserve(bundlePath) {
		return boxerr.New(boxerr.DuplicateEntry, "duplicate bundle path %q", bundlePath)
	}
	crc := crc32.ChecksumIEEE(data)
	offset := w.dataCount
	compressedSize, err := w.writeCompressed(data)
	if err != nil {
		return err
	}
	w.entries = append(w.entries, entryRecord{
		bundlePath:       normalizeBundlePath(bundlePath),
		uncompressedSize: uint32(len(data)),
		// In-memory entries have no source file time; a fixed value
		// keeps the output reproducible across builds.
		modTime:        0,
		compressedSize: uint32(compressedSize),
		crc32:          crc,
		flags:          w.compression,
		dataOffset:     offset,
	})
	return nil
}

// AddFromFile streams bundlePath's content from localPath. Files at or
// under streamThreshold are read fully; larger
// files are copied through a bounded buffer so the process never holds
// more than a single streaming chunk of a large file's body in memory at
// once.
func (w *Writer) AddFromFile(bundlePath, localPath string) error {
	info, err := os.Stat(localPath)
	if err != nil {
		return boxerr.Wrap(boxerr.UnreadableSource, err, "stat %q", localPath)
	}
	if info.Size() <= streamThreshold {
		data, err := os.ReadFile(localPath)
		if err != nil {
			return boxerr.Wrap(boxerr.UnreadableSource, err, "reading %q", localPath)
		}
		return w.AddFromString(bundlePath, data)
	}
	if !w.reserver.Reserve(bundlePath) {
		return boxerr.New(boxerr.DuplicateEntry, "duplicate bundle path %q", bundlePath)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return boxerr.Wrap(boxerr.UnreadableSource, err, "opening %q", localPath)
	}
	defer f.Close()

	hasher := crc32.NewIEEE()
	reader := io.TeeReader(bufio.NewReaderSize(f, 32*1024), hasher)

	offset := w.dataCount
	compressor, err := newCompressor(w.dataFile, w.compression)
	if err != nil {
		return boxerr.Wrap(boxerr.ArchiveIOError, err, "preparing compressor for %q", bundlePath)
	}
	counting := &countingWriter{w: compressor}
	n, err := io.Copy(counting, reader)
	if err != nil {
		return boxerr.Wrap(boxerr.ArchiveIOError, err, "streaming %q", localPath)
	}
	if err := compressor.Close(); err != nil {
		return boxerr.Wrap(boxerr.ArchiveIOError, err, "flushing compressor for %q", bundlePath)
	}
	w.dataCount += counting.n

	w.entries = append(w.entries, entryRecord{
		bundlePath:       normalizeBundlePath(bundlePath),
		uncompressedSize: uint32(n),
		modTime:          uint32(info.ModTime().Unix()),
		compressedSize:   uint32(counting.n),
		crc32:            hasher.Sum32(),
		flags:            w.compression,
		dataOffset:       offset,
	})
	return nil
}

func (w *Writer) writeCompressed(data []byte) (int64, error) {
	compressor, err := newCompressor(w.dataFile, w.compression)
	if err != nil {
		return 0, boxerr.Wrap(boxerr.ArchiveIOError, err, "preparing compressor")
	}
	counting := &countingWriter{w: compressor}
	if _, err := counting.Write(data); err != nil {
		return 0, boxerr.Wrap(boxerr.ArchiveIOError, err, "writing entry data")
	}
	if err := compressor.Close(); err != nil {
		return 0, boxerr.Wrap(boxerr.ArchiveIOError, err, "flushing compressor")
	}
	w.dataCount += counting.n
	return counting.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// EnsureNotEmpty enforces the empty-bundle rule: if no entries were
// added, write a single zero-byte entry at .box_empty.
func (w *Writer) EnsureNotEmpty() error {
	if len(w.entries) > 0 {
		return nil
	}
	return w.AddFromString(".box_empty", nil)
}

// CloseResult reports what Finalize needs to build its report.
type CloseResult struct {
	FileCount    int
	BytesWritten int64
}

// Close writes the final stub+manifest+data file, computing the signing
// digest over every byte from offset 0 through the end of the last entry
// as it streams, then appends the trailer produced by signer. signer must
// be non-nil: Close calls its NewDigest and Sign unconditionally.
func (w *Writer) Close(signer Signer) (*CloseResult, error) {
	if err := w.EnsureNotEmpty(); err != nil {
		return nil, err
	}

	out, err := os.OpenFile(w.tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, boxerr.Wrap(boxerr.ArchiveIOError, err, "opening %q", w.tmpPath)
	}
	defer out.Close()

	digest := signer.NewDigest()
	mw := io.MultiWriter(out, digest)

	if _, err := mw.Write(w.stub); err != nil {
		return nil, w.ioError(err, "writing stub")
	}

	manifest, err := w.buildManifest()
	if err != nil {
		return nil, err
	}
	if _, err := mw.Write(manifest); err != nil {
		return nil, w.ioError(err, "writing manifest")
	}

	if _, err := w.dataFile.Seek(0, io.SeekStart); err != nil {
		return nil, w.ioError(err, "seeking scratch data")
	}
	written, err := io.Copy(mw, w.dataFile)
	if err != nil {
		return nil, w.ioError(err, "copying entry data")
	}

	trailer, err := signer.Sign(digest)
	if err != nil {
		return nil, err
	}
	if _, err := out.Write(trailer); err != nil {
		return nil, w.ioError(err, "writing trailer")
	}

	if err := out.Sync(); err != nil {
		return nil, w.ioError(err, "fsync")
	}

	total := int64(len(w.stub)) + int64(len(manifest)) + written + int64(len(trailer))

	w.dataFile.Close()
	os.Remove(w.dataPath)

	return &CloseResult{FileCount: len(w.entries), BytesWritten: total}, nil
}

func (w *Writer) ioError(err error, msg string) error {
	w.dataFile.Close()
	os.Remove(w.dataPath)
	os.Remove(w.tmpPath)
	return boxerr.Wrap(boxerr.ArchiveIOError, err, msg)
}

// buildManifest serializes the manifest header and every entry record.
func (w *Writer) buildManifest() ([]byte, error) {
	var buf []byte
	appendUint32 := func(v uint32) { buf = append(buf, uint32Bytes(v)...) }
	appendString := func(s string) {
		appendUint32(uint32(len(s)))
		buf = append(buf, s...)
	}

	appendUint32(ManifestVersion)
	appendString(w.alias)

	var metaBytes []byte
	if w.metadata != nil {
		b, err := json.Marshal(w.metadata)
		if err != nil {
			return nil, boxerr.Wrap(boxerr.ArchiveIOError, err, "serializing metadata")
		}
		metaBytes = b
	}
	appendString(string(metaBytes))

	appendUint32(uint32(len(w.entries)))
	for _, e := range w.entries {
		appendString(e.bundlePath)
		appendUint32(e.uncompressedSize)
		appendUint32(e.modTime)
		appendUint32(e.compressedSize)
		appendUint32(e.crc32)
		appendUint32(uint32(e.flags))
	}
	return buf, nil
}

func uint32Bytes(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func normalizeBundlePath(p string) string {
	return filepath.ToSlash(p)
}

// Signer abstracts the Sign stage so Writer.Close doesn't need to know
// which algorithm produced the trailer.
type Signer interface {
	// NewDigest returns a fresh running hash to tee every output byte
	// through.
	NewDigest() hash.Hash
	// Sign finalizes digest and returns the full trailer (signature +
	// algorithm tag + Magic).
	Sign(digest hash.Hash) ([]byte, error)
}
