package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/ChrisCoy/Automatic-Anki-Cards-From-Video/internal/domain/subtitles"
	"github.com/ChrisCoy/Automatic-Anki-Cards-From-Video/internal/ports"
	"github.com/ChrisCoy/Automatic-Anki-Cards-From-Video/internal/ports/adapters/ankiconnect"
	"github.com/ChrisCoy/Automatic-Anki-Cards-From-Video/internal/ports/adapters/ffmpeg"
	"github.com/ChrisCoy/Automatic-Anki-Cards-From-Video/internal/ports/adapters/openai"
	"github.com/ChrisCoy/Automatic-Anki-Cards-From-Video/internal/ports/adapters/ytdlp"
	"github.com/ChrisCoy/Automatic-Anki-Cards-From-Video/internal/translate"
	"github.com/ChrisCoy/Automatic-Anki-Cards-From-Video/internal/types"
	"github.com/ChrisCoy/Automatic-Anki-Cards-From-Video/internal/usecase"
)

// Fatal preconditions; everything past them is recoverable per group or per
// record.
var (
	ErrInvalidSourceURL = errors.New("invalid source url")
	ErrMissingTitle     = errors.New("video has no title")
)

type Config struct {
	URL            string
	GroupSize      int
	AudioPaddingMs int64
	SkipDownload   bool

	// ContentDir caches downloaded media. Defaults to "content".
	ContentDir string

	DeckGroup    string
	Tags         []string
	SubtitleLang string
	SystemPrompt string

	FFmpegPath string
	YTDLPPath  string
	UserAgent  string

	OpenAIAPIKey       string
	OpenAIModel        string
	OpenAIBaseURL      string
	OpenAIAllowedHosts []string

	AnkiConnectURL string

	Log zerolog.Logger
}

func (c Config) Validate() error {
	u, err := url.Parse(c.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %q", ErrInvalidSourceURL, c.URL)
	}
	if c.GroupSize < 1 {
		return fmt.Errorf("group size must be >= 1")
	}
	if c.AudioPaddingMs < 0 {
		return fmt.Errorf("audio padding must be >= 0")
	}
	if c.OpenAIAPIKey == "" {
		return errors.New("OPENAI_API_KEY is required (set it in .env)")
	}
	if !strings.HasPrefix(c.OpenAIAPIKey, "sk-") {
		return errors.New("OPENAI_API_KEY looks invalid: expected an sk- prefix")
	}
	return openai.ValidateBaseURL(c.OpenAIBaseURL, c.OpenAIAllowedHosts)
}

// Run wires the adapters and drives one full video-to-deck conversion.
func Run(ctx context.Context, cfg Config) error {
	log := cfg.Log

	completer := openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
	deps := usecase.Deps{
		Segmenter:  ffmpeg.New(cfg.FFmpegPath),
		Translator: translate.New(completer, cfg.SystemPrompt),
		Cards:      ankiconnect.New(cfg.AnkiConnectURL),
		Log:        log,
	}
	fetcher := ytdlp.New(cfg.YTDLPPath, cfg.SubtitleLang, cfg.UserAgent)

	log.Info().Msg("checking OpenAI access")
	if err := completer.Ping(ctx); err != nil {
		return err
	}

	info, err := fetcher.VideoInfo(ctx, cfg.URL)
	if err != nil {
		return err
	}
	if strings.TrimSpace(info.Title) == "" {
		return ErrMissingTitle
	}
	log.Info().Str("title", info.Title).Msg("got video info")

	contentDir := cfg.ContentDir
	if contentDir == "" {
		contentDir = "content"
	}
	if err := os.MkdirAll(contentDir, 0o755); err != nil {
		return err
	}

	fileID := fileIDFromURL(cfg.URL)
	audioPath := filepath.Join(contentDir, fileID+".mp3")
	subsPath := filepath.Join(contentDir, fileID+"."+subtitleLang(cfg)+".vtt")

	if cfg.SkipDownload {
		log.Info().Str("dir", contentDir).Msg("skipping download, using cached assets")
	} else {
		log.Info().Msg("downloading audio and subtitles")
		tmpl := filepath.Join(contentDir, fileID+".%(ext)s")
		if err := fetcher.FetchAssets(ctx, cfg.URL, tmpl); err != nil {
			return err
		}
	}

	cues, err := loadCues(subsPath, log)
	if err != nil {
		return err
	}

	deckGroup := cfg.DeckGroup
	if deckGroup == "" {
		deckGroup = "音楽"
	}
	modelName := deckGroup + "::Model"
	deckName := deckGroup + "::" + info.Title

	if err := deps.Cards.EnsureModel(ctx, noteModel(modelName)); err != nil {
		return err
	}
	if err := deps.Cards.EnsureDeck(ctx, deckName); err != nil {
		return err
	}

	tags := cfg.Tags
	if len(tags) == 0 {
		tags = []string{"jp"}
	}

	uc := usecase.New(deps)
	res, err := uc.Run(ctx, usecase.Input{
		Cues:           cues,
		GroupSize:      cfg.GroupSize,
		AudioPaddingMs: cfg.AudioPaddingMs,
		SourcePath:     audioPath,
		SessionID:      fileID,
		DeckName:       deckName,
		ModelName:      modelName,
		Tags:           tags,
		AudioField:     "Audio",
		Progress: func(done, total int) {
			log.Info().Msgf("progress: %d%%", done*100/total)
		},
	})
	if err != nil {
		return err
	}

	log.Info().
		Int("published", res.Published).
		Int("skipped_groups", res.Skipped).
		Int("failed_cards", res.PublishFailed).
		Str("deck", deckName).
		Msg("all done")
	return nil
}

// loadCues reads and parses the subtitle asset. A missing file means the
// requested language wasn't available; the run proceeds with no cues. A
// malformed payload is fatal.
func loadCues(path string, log zerolog.Logger) ([]types.Cue, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("path", path).Msg("no subtitle file, proceeding with empty cue list")
			return nil, nil
		}
		return nil, err
	}
	cues, err := subtitles.Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	log.Info().Int("cues", len(cues)).Msg("parsed subtitles")
	return cues, nil
}

func subtitleLang(cfg Config) string {
	if cfg.SubtitleLang == "" {
		return "ja"
	}
	return cfg.SubtitleLang
}

// fileIDFromURL derives the on-disk asset identifier for a video URL:
// lowercase, word characters kept, everything else folded into separators,
// runs collapsed.
func fileIDFromURL(u string) string {
	var b strings.Builder
	prevSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(u)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevSep = false
		default:
			if !prevSep {
				b.WriteByte('_')
				prevSep = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}

// noteModel is the note model declared to the card store, matching the
// review layout the deck is built around.
func noteModel(name string) types.ModelDefinition {
	return types.ModelDefinition{
		Name:          name,
		InOrderFields: []string{"Audio", "Japanese_Reading", "Translated", "Furigana", "Hiragana", "Hint"},
		CSS: `.card {
    font-family: arial;
    font-size: 20px;
    text-align: center;
    color: black;
    background-color: white;
    white-space: pre-line;
    display: flex;
    justify-content: center;
}

.hint {
  font-size: 0.9em;
  color: #555;
  display: block;
  margin-top: 6px;
}

.hint-star {
  color: #ff6600;
  font-size: 1.4em;
  font-weight: bold;
  margin-right: 4px;
}`,
		CardTemplates: []types.CardTemplate{
			{
				Name: name,
				Front: `{{Audio}}
<br><br>
<b>{{Japanese_Reading}}</b>`,
				Back: `{{FrontSide}}
<hr id=answer>
<br>

{{Hiragana}}
<br>
<br>
{{Translated}}

<br>
<br>

{{#Hint}}
<span class="hint">
  <span class="hint-star">*</span> {{Hint}}
</span>
{{/Hint}}`,
			},
		},
	}
}

// ensure adapters implement ports
var _ ports.AudioSegmenter = (*ffmpeg.Adapter)(nil)
var _ ports.Completer = (*openai.Adapter)(nil)
var _ ports.Translator = (*translate.Translator)(nil)
var _ ports.MediaFetcher = (*ytdlp.Adapter)(nil)
var _ ports.CardStore = (*ankiconnect.Client)(nil)
