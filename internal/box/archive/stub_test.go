package archive

import (
	"strings"
	"testing"
)

func TestRenderStubDefaultShape(t *testing.T) {
	stub := RenderStub(StubSpec{Alias: "app.phar"})
	s := string(stub)
	if !strings.HasPrefix(s, "<?php\n\n") {
		t.Fatalf("stub does not start with the PHP open tag: %q", s)
	}
	if !strings.Contains(s, "Phar::mapPhar('app.phar');") {
		t.Fatalf("stub missing mapPhar call: %q", s)
	}
	if !strings.HasSuffix(s, Terminator+"\n") {
		t.Fatalf("stub does not end with the terminator: %q", s)
	}
}

func TestRenderStubWithShebangBannerAndIndex(t *testing.T) {
	stub := RenderStub(StubSpec{
		Shebang: "#!/usr/bin/env php", HasShebang: true,
		Banner: "Built by box", Alias: "app.phar",
		Index: "bin/run.php", HasIndex: true,
		InterceptFileFuncs: true, CheckRequirements: true,
	})
	s := string(stub)
	if !strings.HasPrefix(s, "#!/usr/bin/env php\n<?php\n\n") {
		t.Fatalf("stub missing shebang before the open tag: %q", s)
	}
	if !strings.Contains(s, "/*\n * Built by box\n */\n") {
		t.Fatalf("stub missing rendered banner: %q", s)
	}
	if !strings.Contains(s, "Phar::interceptFileFuncs();") {
		t.Fatalf("stub missing interceptFileFuncs: %q", s)
	}
	if !strings.Contains(s, "require 'phar://app.phar/.box/bin/check-requirements.php';") {
		t.Fatalf("stub missing requirement checker require: %q", s)
	}
	if !strings.Contains(s, "require 'phar://app.phar/bin/run.php';") {
		t.Fatalf("stub missing index require: %q", s)
	}
}

func TestRenderBannerMultilinePrefixesEveryLine(t *testing.T) {
	got := renderBanner("line one\nline two")
	want := "/*\n * line one\n * line two\n */\n"
	if got != want {
		t.Fatalf("renderBanner() = %q, want %q", got, want)
	}
}

func TestValidateStubAcceptsTerminatorWithOrWithoutTrailingNewline(t *testing.T) {
	if err := ValidateStub([]byte("<?php\n" + Terminator)); err != nil {
		t.Fatalf("ValidateStub rejected a terminator with no trailing newline: %v", err)
	}
	if err := ValidateStub([]byte("<?php\n" + Terminator + "\n")); err != nil {
		t.Fatalf("ValidateStub rejected a terminator with a trailing newline: %v", err)
	}
}

func TestValidateStubRejectsMissingTerminator(t *testing.T) {
	if err := ValidateStub([]byte("<?php\necho 1;\n")); err == nil {
		t.Fatalf("ValidateStub accepted a stub with no terminator")
	}
}

func TestDefaultStubEndsWithTerminator(t *testing.T) {
	if err := ValidateStub(DefaultStub()); err != nil {
		t.Fatalf("DefaultStub() failed its own validation: %v", err)
	}
}
