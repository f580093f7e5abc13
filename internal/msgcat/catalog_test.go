package msgcat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderEnglishDefaults(t *testing.T) {
	c, err := New("", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := c.Render("game.header", map[string]any{"White": "alice", "Black": "bob", "TimeControl": "5+3"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "alice vs bob [5+3]" {
		t.Fatalf("unexpected header %q", got)
	}
	if _, err := c.Render("game.header", map[string]any{"White": "alice"}); err == nil {
		t.Fatalf("missing template fields must fail")
	}
	if _, err := c.Render("no.such.key", nil); err == nil {
		t.Fatalf("unknown key must fail")
	}
}

func TestLocaleOverlayFallsBackToEnglish(t *testing.T) {
	c, err := New("ru", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, _ := c.Render("auth.logout", nil)
	if got != "Вы вышли." {
		t.Fatalf("expected russian text, got %q", got)
	}
	help, err := c.Render("help.text", nil)
	if err != nil || !strings.Contains(help, "login <email>") {
		t.Fatalf("missing keys must fall back to english: %q %v", help, err)
	}
	if _, err := New("xx", ""); err == nil {
		t.Fatalf("unknown locale must be rejected")
	}
	if locales := Locales(); len(locales) != 2 || locales[0] != "en" || locales[1] != "ru" {
		t.Fatalf("unexpected locales %v", locales)
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("auth:\n  logout: \"bye\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := New("en", dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got, _ := c.Render("auth.logout", nil); got != "bye" {
		t.Fatalf("override not applied, got %q", got)
	}

	if err := os.WriteFile(filepath.Join(dir, "b.yml"), []byte("auth:\n  logout: \"again\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := New("en", dir); err == nil {
		t.Fatalf("duplicate override keys must be rejected")
	}
}
