package mapper

import "testing"

func TestRulesApply(t *testing.T) {
	rules := Rules{
		{Prefix: "src", Replacement: "lib"},
		{Prefix: "config", Replacement: ""},
		{Prefix: "res/", Replacement: "assets/"},
	}

	tests := []struct {
		in   string
		want string
	}{
		{"src/Foo.php", "lib/Foo.php"},
		{"src", "lib"},
		{"srcFoo.php", "srcFoo.php"},
		{"config/app.php", "app.php"},
		{"res/icon.png", "assets/icon.png"},
		{"unmatched/Bar.php", "unmatched/Bar.php"},
	}

	for _, tt := range tests {
		if got := rules.Apply(tt.in); got != tt.want {
			t.Errorf("Apply(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRulesApplyFirstMatchWins(t *testing.T) {
	rules := Rules{
		{Prefix: "src", Replacement: "first"},
		{Prefix: "src", Replacement: "second"},
	}
	if got := rules.Apply("src/File.php"); got != "first/File.php" {
		t.Fatalf("Apply() = %q, want first match to win", got)
	}
}

func TestRulesApplySkipsEmptyPrefix(t *testing.T) {
	rules := Rules{
		{Prefix: "", Replacement: "whatever"},
		{Prefix: "src", Replacement: "lib"},
	}
	if got := rules.Apply("src/File.php"); got != "lib/File.php" {
		t.Fatalf("Apply() = %q, want empty-prefix rule to be skipped", got)
	}
}
