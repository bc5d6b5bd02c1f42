package msgcat

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderEmbedded(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := c.Render("game.started", map[string]any{"White": "alice", "Black": "bob"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != "alice (white) vs bob (black). bob moves first." {
		t.Fatalf("unexpected text %q", out)
	}
	if _, err := c.Render("game.started", map[string]any{"White": "alice"}); err == nil {
		t.Fatalf("missing key should fail")
	}
	if _, err := c.Render("nope.nothing", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	usage, err := c.Render("help.usage", map[string]any{"Prefix": "!"})
	if err != nil || !strings.Contains(usage, "!checkers lobby make") {
		t.Fatalf("usage = %q, %v", usage, err)
	}
}

func TestOverrides(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	write("a.yaml", "game:\n  illegal_move: \"Nope.\"\n")
	write("notes.txt", "ignored")

	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if out, _ := c.Render("game.illegal_move", nil); out != "Nope." {
		t.Fatalf("override not applied: %q", out)
	}
	if !c.Has("game.must_capture") {
		t.Fatalf("defaults lost after override")
	}

	write("b.yml", "game:\n  illegal_move: \"Again.\"\n")
	if _, err := New(dir); err == nil {
		t.Fatalf("expected duplicate key error")
	}
}

func TestNonStringLeafRejected(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("game:\n  turn: 3\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("expected error for numeric leaf")
	}
}
