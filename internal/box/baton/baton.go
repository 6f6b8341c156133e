// Package baton provides the builder's progress reporting: StartProgress/
// Twirl/PercentProgress/EndProgress for streamed work of known total
// size, StartCounter/BumpCounter/EndCounter for streamed work of unknown
// size, PrintLog/PrintLogString for one-off status lines, Sync to flush
// before exit, and SetInteractivity to toggle the spinner on or off.
package baton

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

// Baton is the single progress-reporting sink threaded through every
// stage. It is safe for sequential use by one build; the builder never
// runs two stages concurrently, so Baton does not need to be
// goroutine-safe beyond guarding its own Sync/Write calls.
type Baton struct {
	mu          sync.Mutex
	out         io.Writer
	interactive bool

	legend string
	total  uint64
	done   uint64
	spin   int
}

var spinner = []rune{'-', '\\', '|', '/'}

// New creates a Baton writing to out. interactive controls whether the
// spinner/percentage is rendered at all; non-interactive builds (piped
// output, CI) only ever see PrintLog/PrintLogString lines.
func New(interactive bool) *Baton {
	return &Baton{out: os.Stderr, interactive: interactive}
}

// SetInteractivity toggles the spinner, called once stdin/stdout
// terminal-ness is known.
func (b *Baton) SetInteractivity(interactive bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.interactive = interactive
}

// StartProgress begins a bounded-total progress report under legend.
func (b *Baton) StartProgress(legend string, total uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.legend = legend
	b.total = total
	b.done = 0
	b.spin = 0
	if b.interactive {
		fmt.Fprintf(b.out, "%s...\n", legend)
	}
}

// Twirl advances the spinner by one frame without changing the percentage.
func (b *Baton) Twirl() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.interactive {
		return
	}
	b.spin = (b.spin + 1) % len(spinner)
	fmt.Fprintf(b.out, "\r%s %c", b.legend, spinner[b.spin])
}

// PercentProgress reports that `done` of the total announced in
// StartProgress has been completed.
func (b *Baton) PercentProgress(done uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.done = done
	if !b.interactive {
		return
	}
	pct := 100.0
	if b.total > 0 {
		pct = float64(done) * 100.0 / float64(b.total)
	}
	fmt.Fprintf(b.out, "\r%s %3.0f%%", b.legend, pct)
}

// EndProgress closes out a StartProgress/PercentProgress sequence.
func (b *Baton) EndProgress() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.interactive {
		fmt.Fprintf(b.out, "\r%s 100%%\n", b.legend)
	}
	b.legend = ""
	b.total = 0
	b.done = 0
}

// StartCounter begins an unbounded counting progress report.
func (b *Baton) StartCounter(legend string, start int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.legend = legend
	b.done = uint64(start)
	if b.interactive {
		fmt.Fprintf(b.out, "%s\n", legend)
	}
}

// BumpCounter increments the counter by one and redraws it.
func (b *Baton) BumpCounter() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.done++
	if b.interactive {
		fmt.Fprintf(b.out, "\r%s: %d", b.legend, b.done)
	}
}

// EndCounter closes out a StartCounter/BumpCounter sequence.
func (b *Baton) EndCounter() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.interactive {
		fmt.Fprintf(b.out, "\r%s: %d\n", b.legend, b.done)
	}
	b.legend = ""
	b.done = 0
}

// PrintLog writes raw bytes (typically captured subprocess output)
// verbatim, one blob at a time.
func (b *Baton) PrintLog(content []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.out.Write(content)
}

// PrintLogString writes a status line, unconditionally, regardless of
// interactivity.
func (b *Baton) PrintLogString(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprint(b.out, msg)
}

// Warn prints a yellow warning line, used for the recommendations/warnings
// collected across stages and rendered in the final report.
func (b *Baton) Warn(msg string, args ...interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	color.New(color.FgYellow).Fprintf(b.out, msg+"\n", args...)
}

// Sync flushes any buffered state before the process tears down. Kept as
// an explicit call site even though this Baton has nothing buffered
// beyond the underlying io.Writer, which os.Stderr writes through
// unbuffered.
func (b *Baton) Sync() {}
