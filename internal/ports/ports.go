package ports

import (
	"context"

	"github.com/ChrisCoy/Automatic-Anki-Cards-From-Video/internal/types"
)

// AudioSegmenter cuts a padded [startMs, endMs) window out of a source audio
// file and returns the re-encoded bytes.
type AudioSegmenter interface {
	Cut(ctx context.Context, sourcePath string, startMs, endMs, paddingMs int64) ([]byte, error)
}

// Completer runs one structured completion: a system instruction, the prior
// history (oldest first) and a new user turn, returning a schema-conforming
// annotation or an error.
type Completer interface {
	Complete(ctx context.Context, system string, history []types.Message, user string) (types.Annotation, error)
}

// Translator produces an annotation for a text, accumulating bounded
// conversational context under the given session id.
type Translator interface {
	Translate(ctx context.Context, text, sessionID string) (types.Annotation, error)
}

// MediaFetcher downloads the audio and subtitle assets for a video URL and
// probes its metadata.
type MediaFetcher interface {
	FetchAssets(ctx context.Context, url, outTemplate string) error
	VideoInfo(ctx context.Context, url string) (types.VideoInfo, error)
}

// CardStore is the card-management service boundary.
type CardStore interface {
	EnsureModel(ctx context.Context, def types.ModelDefinition) error
	EnsureDeck(ctx context.Context, name string) error
	AddRecord(ctx context.Context, rec types.FlashcardRecord) error
}
