package gamecat

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEmbeddedDefaults(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	g := c.Get("wordle")
	if g == nil {
		t.Fatal("wordle missing from defaults")
	}
	if g.ResetTime != "00:00" || !g.IsAsynchronous {
		t.Fatalf("wordle config: %+v", g)
	}
	if g.ScoreTypes["puzzle1"]["attempts"] != 6 {
		t.Fatalf("wordle score schema: %+v", g.ScoreTypes)
	}

	if c.Get("WORDLE") == nil {
		t.Fatal("lookup should be case-insensitive")
	}
	if c.Get("nope") != nil {
		t.Fatal("unknown game should be nil")
	}

	all := c.All()
	if len(all) < 10 {
		t.Fatalf("only %d default games", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].ID >= all[i].ID {
			t.Fatalf("All() not sorted: %s >= %s", all[i-1].ID, all[i].ID)
		}
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	override := `games:
  - id: wordle
    displayName: Wordle
    resetTime: "06:00"
  - id: colorle
    displayName: Colorle
    resetTime: "00:00"
    scoreTypes:
      puzzle1:
        attempts: 8
`
	if err := os.WriteFile(filepath.Join(dir, "10-custom.yaml"), []byte(override), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.Get("wordle").ResetTime; got != "06:00" {
		t.Fatalf("override not applied: %s", got)
	}
	if c.Get("colorle") == nil {
		t.Fatal("custom game missing")
	}
}

func TestMixedCaseOverrideID(t *testing.T) {
	dir := t.TempDir()
	body := "games:\n  - id: Colorle\n    resetTime: \"00:00\"\n"
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	g := c.Get("colorle")
	if g == nil {
		t.Fatal("mixed-case id unreachable")
	}
	if g.ID != "colorle" {
		t.Fatalf("stored id = %q, want lowercase", g.ID)
	}
}

func TestDuplicateAcrossOverrideFiles(t *testing.T) {
	dir := t.TempDir()
	body := "games:\n  - id: colorle\n    resetTime: \"00:00\"\n"
	for _, name := range []string{"a.yaml", "b.yaml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := New(dir); err == nil {
		t.Fatal("expected duplicate-game error")
	}
}

func TestMalformedResetTimeRejectedAtLoad(t *testing.T) {
	dir := t.TempDir()
	body := "games:\n  - id: broken\n    resetTime: \"24:61\"\n"
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(dir); err == nil {
		t.Fatal("expected reset-time validation error")
	}
}
