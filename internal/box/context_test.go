package box

import "testing"

func TestReserveClaimsEachPathOnce(t *testing.T) {
	ctx := NewContext(nil)
	if !ctx.Reserve("src/A.php") {
		t.Fatalf("Reserve(src/A.php) = false on first claim, want true")
	}
	if ctx.Reserve("src/A.php") {
		t.Fatalf("Reserve(src/A.php) = true on second claim, want false")
	}
	if !ctx.Reserve("src/B.php") {
		t.Fatalf("Reserve(src/B.php) = false, want true for a distinct path")
	}
}
