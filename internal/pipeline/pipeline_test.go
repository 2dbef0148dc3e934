package pipeline

import (
	"errors"
	"testing"
)

func TestFileIDFromURL(t *testing.T) {
	tests := map[string]string{
		"https://www.youtube.com/watch?v=AbC123": "https_www_youtube_com_watch_v_abc123",
		"  https://youtu.be/XyZ  ":               "https_youtu_be_xyz",
		"https://example.com/視聴":                  "https_example_com_視聴",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			if got := fileIDFromURL(in); got != want {
				t.Fatalf("fileIDFromURL(%q) = %q, want %q", in, got, want)
			}
		})
	}
}

func TestFileIDFromURL_CollapsesSeparatorRuns(t *testing.T) {
	if got := fileIDFromURL("https://a.com/??!!x"); got != "https_a_com_x" {
		t.Fatalf("unexpected id: %q", got)
	}
}

func validConfig() Config {
	return Config{
		URL:            "https://www.youtube.com/watch?v=x",
		GroupSize:      1,
		AudioPaddingMs: 200,
		OpenAIAPIKey:   "sk-test",
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		sentinel error
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "empty url", mutate: func(c *Config) { c.URL = "" }, wantErr: true, sentinel: ErrInvalidSourceURL},
		{name: "not a url", mutate: func(c *Config) { c.URL = "notaurl" }, wantErr: true, sentinel: ErrInvalidSourceURL},
		{name: "bad scheme", mutate: func(c *Config) { c.URL = "ftp://x.com/a" }, wantErr: true, sentinel: ErrInvalidSourceURL},
		{name: "group size zero", mutate: func(c *Config) { c.GroupSize = 0 }, wantErr: true},
		{name: "negative padding", mutate: func(c *Config) { c.AudioPaddingMs = -1 }, wantErr: true},
		{name: "missing key", mutate: func(c *Config) { c.OpenAIAPIKey = "" }, wantErr: true},
		{name: "key without sk prefix", mutate: func(c *Config) { c.OpenAIAPIKey = "whatever" }, wantErr: true},
		{name: "bad base url host", mutate: func(c *Config) { c.OpenAIBaseURL = "https://evil.example.com" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				if tt.sentinel != nil && !errors.Is(err, tt.sentinel) {
					t.Fatalf("expected %v, got %v", tt.sentinel, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestNoteModel(t *testing.T) {
	def := noteModel("音楽::Model")
	if def.Name != "音楽::Model" {
		t.Fatalf("unexpected name: %q", def.Name)
	}
	if len(def.InOrderFields) != 6 || def.InOrderFields[0] != "Audio" {
		t.Fatalf("unexpected field order: %v", def.InOrderFields)
	}
	if len(def.CardTemplates) != 1 || def.CardTemplates[0].Name != def.Name {
		t.Fatalf("unexpected templates: %+v", def.CardTemplates)
	}
}
