package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the file-configurable knobs. Secrets never live here; the
// OpenAI API key comes from the environment only.
type Config struct {
	Deck     DeckConfig     `yaml:"deck"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Anki     AnkiConfig     `yaml:"anki"`
	Download DownloadConfig `yaml:"download"`
	Audio    AudioConfig    `yaml:"audio"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type DeckConfig struct {
	Group string   `yaml:"group"`
	Tags  []string `yaml:"tags"`
}

type OpenAIConfig struct {
	Model        string   `yaml:"model"`
	BaseURL      string   `yaml:"base_url"`
	AllowedHosts []string `yaml:"allowed_hosts"`
	SystemPrompt string   `yaml:"system_prompt"`
}

type AnkiConfig struct {
	URL string `yaml:"url"`
}

type DownloadConfig struct {
	YTDLPPath    string `yaml:"ytdlp_path"`
	FFmpegPath   string `yaml:"ffmpeg_path"`
	SubtitleLang string `yaml:"subtitle_lang"`
	UserAgent    string `yaml:"user_agent"`
	ContentDir   string `yaml:"content_dir"`
}

type AudioConfig struct {
	PaddingMs int64 `yaml:"padding_ms"`
}

type PipelineConfig struct {
	GroupSize int `yaml:"group_size"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads the YAML config at path. A missing file yields defaults; an
// unreadable or invalid one is an error.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyDefaults()
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Deck.Group == "" {
		c.Deck.Group = "音楽"
	}
	if len(c.Deck.Tags) == 0 {
		c.Deck.Tags = []string{"jp"}
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4.1-mini"
	}
	if c.Anki.URL == "" {
		c.Anki.URL = "http://127.0.0.1:8765"
	}
	if c.Download.SubtitleLang == "" {
		c.Download.SubtitleLang = "ja"
	}
	if c.Download.ContentDir == "" {
		c.Download.ContentDir = "content"
	}
	if c.Audio.PaddingMs == 0 {
		c.Audio.PaddingMs = 200
	}
	if c.Pipeline.GroupSize == 0 {
		c.Pipeline.GroupSize = 1
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c *Config) Validate() error {
	if c.Pipeline.GroupSize < 1 {
		return fmt.Errorf("pipeline.group_size must be >= 1")
	}
	if c.Audio.PaddingMs < 0 {
		return fmt.Errorf("audio.padding_ms must be >= 0")
	}
	return nil
}
