package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Deck.Group != "音楽" {
		t.Fatalf("unexpected deck group: %q", cfg.Deck.Group)
	}
	if cfg.Pipeline.GroupSize != 1 || cfg.Audio.PaddingMs != 200 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.OpenAI.Model != "gpt-4.1-mini" {
		t.Fatalf("unexpected model default: %q", cfg.OpenAI.Model)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ankicards.yaml")
	body := `
deck:
  group: 勉強
  tags: [jp, grammar]
pipeline:
  group_size: 3
audio:
  padding_ms: 500
download:
  subtitle_lang: en
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Deck.Group != "勉強" || len(cfg.Deck.Tags) != 2 {
		t.Fatalf("unexpected deck config: %+v", cfg.Deck)
	}
	if cfg.Pipeline.GroupSize != 3 || cfg.Audio.PaddingMs != 500 {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if cfg.Download.SubtitleLang != "en" {
		t.Fatalf("unexpected subtitle lang: %q", cfg.Download.SubtitleLang)
	}
	// Untouched sections keep defaults.
	if cfg.Anki.URL != "http://127.0.0.1:8765" {
		t.Fatalf("unexpected anki url: %q", cfg.Anki.URL)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("audio:\n  padding_ms: -5\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("\t:::"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
