package msgcat

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEmbeddedCatalogRenders(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := c.Render("match.found", map[string]string{"White": "alice", "Black": "bob"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "Match found: alice vs bob." {
		t.Fatalf("unexpected render: %q", got)
	}
}

func TestRenderMissingKeyFails(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Render("no.such.key", nil); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	override := "error:\n  room_full: \"Room is taken.\"\n"
	if err := os.WriteFile(filepath.Join(dir, "10-local.yaml"), []byte(override), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := c.Render("error.room_full", nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "Room is taken." {
		t.Fatalf("override not applied: %q", got)
	}
	// Untouched keys keep the embedded text.
	if _, err := c.Render("error.room_not_found", nil); err != nil {
		t.Fatalf("base key lost after override: %v", err)
	}
}

func TestDuplicateOverrideKeysRejected(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.yaml", "b.yaml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("error:\n  room_full: \"x\"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := New(dir); err == nil {
		t.Fatal("expected duplicate key error")
	}
}

func TestTextFallback(t *testing.T) {
	var nilCat *Catalog
	if got := nilCat.Text("error.room_full", nil, "fallback"); got != "fallback" {
		t.Fatalf("nil catalog: %q", got)
	}
	c, err := New("")
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Text("missing", nil, "fb"); got != "fb" {
		t.Fatalf("missing key fallback: %q", got)
	}
	if got := c.Text("error.room_full", nil, "fb"); got != "This room already has two players." {
		t.Fatalf("existing key: %q", got)
	}
}
