package archive

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriterAddFromStringRejectsDuplicates(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(filepath.Join(dir, "out.phar"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := w.AddFromString("src/Foo.php", []byte("a")); err != nil {
		t.Fatalf("AddFromString returned error: %v", err)
	}
	if err := w.AddFromString("src/Foo.php", []byte("b")); err == nil {
		t.Fatalf("AddFromString accepted a duplicate bundle path")
	}
}

func TestWriterEnsureNotEmptyAddsPlaceholder(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(filepath.Join(dir, "out.phar"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := w.EnsureNotEmpty(); err != nil {
		t.Fatalf("EnsureNotEmpty returned error: %v", err)
	}
	if w.EntryCount() != 1 {
		t.Fatalf("EntryCount() = %d, want 1 after EnsureNotEmpty on an empty writer", w.EntryCount())
	}
}

func TestWriterCloseProducesValidStubPrefixedArchive(t *testing.T) {
	dir := t.TempDir()
	tmpPath := filepath.Join(dir, "out.phar")
	w, err := Open(tmpPath)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := w.SetStub(DefaultStub()); err != nil {
		t.Fatalf("SetStub returned error: %v", err)
	}
	w.SetAlias("app.phar")
	if err := w.AddFromString("index.php", []byte("<?php echo 'hi';")); err != nil {
		t.Fatalf("AddFromString returned error: %v", err)
	}

	result, err := w.Close(SHA1Signer())
	if err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if result.FileCount != 1 {
		t.Fatalf("FileCount = %d, want 1", result.FileCount)
	}

	data, err := os.ReadFile(tmpPath)
	if err != nil {
		t.Fatalf("reading output archive failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("<?php\n")) {
		t.Fatalf("archive does not start with the PHP open tag")
	}
	if !strings.Contains(string(data[:200]), Terminator) {
		t.Fatalf("archive stub does not contain the terminator near its head")
	}
	if !bytes.HasSuffix(data, []byte(Magic)) {
		t.Fatalf("archive does not end with the trailer magic %q", Magic)
	}
	if int64(len(data)) != result.BytesWritten {
		t.Fatalf("len(data) = %d, want BytesWritten = %d", len(data), result.BytesWritten)
	}

	if _, err := os.Stat(tmpPath + ".data"); !os.IsNotExist(err) {
		t.Fatalf("scratch data file %q.data was not cleaned up", tmpPath)
	}
}

func TestWriterAddFromFileStreamsLargeFiles(t *testing.T) {
	dir := t.TempDir()
	localPath := filepath.Join(dir, "big.bin")
	payload := bytes.Repeat([]byte("0123456789"), 10000) // > streamThreshold
	if err := os.WriteFile(localPath, payload, 0644); err != nil {
		t.Fatalf("writing fixture file failed: %v", err)
	}

	w, err := Open(filepath.Join(dir, "out.phar"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := w.AddFromFile("big.bin", localPath); err != nil {
		t.Fatalf("AddFromFile returned error: %v", err)
	}
	if w.EntryCount() != 1 {
		t.Fatalf("EntryCount() = %d, want 1", w.EntryCount())
	}
	if w.entries[0].uncompressedSize != uint32(len(payload)) {
		t.Fatalf("uncompressedSize = %d, want %d", w.entries[0].uncompressedSize, len(payload))
	}
}
