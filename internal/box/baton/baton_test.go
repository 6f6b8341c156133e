package baton

import (
	"bytes"
	"strings"
	"testing"
)

func newTestBaton(interactive bool) (*Baton, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Baton{out: &buf, interactive: interactive}, &buf
}

func TestNonInteractiveBatonSuppressesProgressOutput(t *testing.T) {
	b, buf := newTestBaton(false)
	b.StartProgress("Assembling", 10)
	b.PercentProgress(5)
	b.EndProgress()
	if buf.Len() != 0 {
		t.Fatalf("non-interactive baton wrote progress output: %q", buf.String())
	}
}

func TestInteractiveBatonRendersPercentage(t *testing.T) {
	b, buf := newTestBaton(true)
	b.StartProgress("Assembling", 10)
	b.PercentProgress(5)
	b.EndProgress()
	out := buf.String()
	if !strings.Contains(out, "50%") {
		t.Fatalf("output = %q, want a 50%% progress line", out)
	}
	if !strings.Contains(out, "100%") {
		t.Fatalf("output = %q, want a final 100%% line from EndProgress", out)
	}
}

func TestPrintLogStringAlwaysWrites(t *testing.T) {
	b, buf := newTestBaton(false)
	b.PrintLogString("build finished\n")
	if buf.String() != "build finished\n" {
		t.Fatalf("buf = %q, want the status line regardless of interactivity", buf.String())
	}
}

func TestCounterTracksBumps(t *testing.T) {
	b, _ := newTestBaton(false)
	b.StartCounter("Enumerating", 0)
	b.BumpCounter()
	b.BumpCounter()
	if b.done != 2 {
		t.Fatalf("done = %d, want 2 after two bumps", b.done)
	}
	b.EndCounter()
	if b.done != 0 {
		t.Fatalf("done = %d, want reset to 0 after EndCounter", b.done)
	}
}

func TestSetInteractivityTogglesOutput(t *testing.T) {
	b, buf := newTestBaton(false)
	b.SetInteractivity(true)
	b.StartCounter("Scanning", 0)
	if buf.Len() == 0 {
		t.Fatalf("SetInteractivity(true) did not enable progress output")
	}
}
