package box

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/magnetik/box/internal/box/archive"
	"github.com/magnetik/box/internal/box/baton"
	"github.com/magnetik/box/internal/box/boxerr"
)

// Report summarizes one completed build for the CLI to print.
type Report struct {
	OutputPath string
	FileCount  int
	Size       int64
	Elapsed    time.Duration
	Warnings   []string
}

// String renders the report in the builder's one-line-per-fact style.
func (r Report) String() string {
	return fmt.Sprintf(
		"%s: %d files, %s, built in %s",
		r.OutputPath, r.FileCount, humanize.Bytes(uint64(r.Size)), r.Elapsed.Round(time.Millisecond),
	)
}

// RunFinalize renames the temporary archive to its final output path,
// applies the configured file mode, and builds the build report. started
// is the wall-clock time Run began.
func RunFinalize(c *Config, closeResult *archive.CloseResult, started time.Time, b *baton.Baton) (*Report, error) {
	if err := os.Rename(c.tmpOutputPath, c.outputPath); err != nil {
		return nil, boxerr.Wrap(boxerr.ArchiveIOError, err, "moving %q to %q", c.tmpOutputPath, c.outputPath)
	}
	if err := os.Chmod(c.outputPath, c.chmod); err != nil {
		return nil, boxerr.Wrap(boxerr.ArchiveIOError, err, "chmod %q", c.outputPath)
	}

	report := &Report{
		OutputPath: c.outputPath,
		FileCount:  closeResult.FileCount,
		Size:       closeResult.BytesWritten,
		Elapsed:    time.Since(started),
		Warnings:   c.warnings,
	}

	for _, w := range c.warnings {
		b.Warn("%s", w)
	}
	b.PrintLogString(report.String() + "\n")

	return report, nil
}
