package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ChrisCoy/Automatic-Anki-Cards-From-Video/internal/config"
	"github.com/ChrisCoy/Automatic-Anki-Cards-From-Video/internal/pipeline"
)

func run(cmd *cobra.Command, url string) error {
	configPath, _ := cmd.Flags().GetString("config")
	groupSize, _ := cmd.Flags().GetInt("group-size")
	padding, _ := cmd.Flags().GetInt64("padding")
	skipDownload, _ := cmd.Flags().GetBool("skip-download")
	contentDir, _ := cmd.Flags().GetString("content-dir")
	logLevel, _ := cmd.Flags().GetString("log-level")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// Flags override file values.
	if groupSize > 0 {
		cfg.Pipeline.GroupSize = groupSize
	}
	if padding >= 0 {
		cfg.Audio.PaddingMs = padding
	}
	if contentDir != "" {
		cfg.Download.ContentDir = contentDir
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	log := newLogger(cfg.Logging.Level)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Hour)
	defer cancel()

	pcfg := pipeline.Config{
		URL:            url,
		GroupSize:      cfg.Pipeline.GroupSize,
		AudioPaddingMs: cfg.Audio.PaddingMs,
		SkipDownload:   skipDownload,
		ContentDir:     cfg.Download.ContentDir,

		DeckGroup:    cfg.Deck.Group,
		Tags:         cfg.Deck.Tags,
		SubtitleLang: cfg.Download.SubtitleLang,
		SystemPrompt: cfg.OpenAI.SystemPrompt,

		FFmpegPath: cfg.Download.FFmpegPath,
		YTDLPPath:  cfg.Download.YTDLPPath,
		UserAgent:  cfg.Download.UserAgent,

		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:        cfg.OpenAI.Model,
		OpenAIBaseURL:      cfg.OpenAI.BaseURL,
		OpenAIAllowedHosts: cfg.OpenAI.AllowedHosts,

		AnkiConnectURL: cfg.Anki.URL,

		Log: log,
	}

	if err := pcfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return pipeline.Run(ctx, pcfg)
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}
