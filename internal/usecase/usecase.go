package usecase

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ChrisCoy/Automatic-Anki-Cards-From-Video/internal/ports"
	"github.com/ChrisCoy/Automatic-Anki-Cards-From-Video/internal/types"
)

type Deps struct {
	Segmenter  ports.AudioSegmenter
	Translator ports.Translator
	Cards      ports.CardStore
	Log        zerolog.Logger
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase { return Usecase{d: d} }

type Input struct {
	Cues           []types.Cue
	GroupSize      int
	AudioPaddingMs int64
	SourcePath     string
	SessionID      string
	DeckName       string
	ModelName      string
	Tags           []string
	AudioField     string

	// Progress receives (completedGroups, totalGroups) after each group.
	// Best-effort; may be nil.
	Progress func(done, total int)
}

// GroupError records one skipped group with enough context to diagnose it.
type GroupError struct {
	Group   int
	StartMs int64
	EndMs   int64
	Err     error
}

func (e GroupError) Error() string {
	return fmt.Sprintf("group %d [%d,%d)ms: %v", e.Group, e.StartMs, e.EndMs, e.Err)
}

// Result is the partial-failure outcome of a run: assembled records, how
// many made it into the card store, and what was skipped along the way.
type Result struct {
	Records       []types.FlashcardRecord
	Published     int
	Skipped       int
	PublishFailed int
	Errors        []GroupError
}

// Run batches cues into groups, annotates and cuts audio for each group,
// assembles flashcard records and publishes them. A single group's failure
// skips that group only; a single record's publish failure skips that
// record only. Only preconditions abort the run.
func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	if in.GroupSize < 1 {
		return Result{}, fmt.Errorf("group size must be >= 1, got %d", in.GroupSize)
	}
	if in.AudioPaddingMs < 0 {
		return Result{}, fmt.Errorf("audio padding must be >= 0, got %d", in.AudioPaddingMs)
	}
	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = "default"
	}
	audioField := in.AudioField
	if audioField == "" {
		audioField = "Audio"
	}

	groups := groupCues(in.Cues, in.GroupSize)
	total := len(groups)

	var res Result
	for i, group := range groups {
		combined := combinedText(group)
		windowStart := group[0].StartMs
		windowEnd := group[len(group)-1].EndMs

		rec, err := u.processGroup(ctx, in, sessionID, audioField, combined, windowStart, windowEnd)
		if err != nil {
			gerr := GroupError{Group: i, StartMs: windowStart, EndMs: windowEnd, Err: err}
			u.d.Log.Warn().
				Int("group", i).
				Int64("start_ms", windowStart).
				Int64("end_ms", windowEnd).
				Err(err).
				Msg("skipping group")
			res.Skipped++
			res.Errors = append(res.Errors, gerr)
		} else {
			res.Records = append(res.Records, rec)
		}

		if in.Progress != nil {
			in.Progress(i+1, total)
		}
	}

	for i, rec := range res.Records {
		if err := u.d.Cards.AddRecord(ctx, rec); err != nil {
			u.d.Log.Warn().Int("record", i).Err(err).Msg("skipping card")
			res.PublishFailed++
			continue
		}
		res.Published++
	}

	return res, nil
}

func (u Usecase) processGroup(
	ctx context.Context,
	in Input,
	sessionID, audioField, combined string,
	windowStart, windowEnd int64,
) (types.FlashcardRecord, error) {
	ann, err := u.d.Translator.Translate(ctx, combined, sessionID)
	if err != nil {
		return types.FlashcardRecord{}, fmt.Errorf("translate: %w", err)
	}

	audio, err := u.d.Segmenter.Cut(ctx, in.SourcePath, windowStart, windowEnd, in.AudioPaddingMs)
	if err != nil {
		return types.FlashcardRecord{}, fmt.Errorf("cut audio: %w", err)
	}

	return types.FlashcardRecord{
		DeckName:  in.DeckName,
		ModelName: in.ModelName,
		Fields: types.Fields{
			JapaneseReading: combined,
			Translated:      ann.Translation,
			Furigana:        ann.Furigana,
			Hiragana:        ann.Hiragana,
		},
		Tags: in.Tags,
		Audio: types.Audio{
			Data:     base64.StdEncoding.EncodeToString(audio),
			Filename: uuid.NewString() + ".mp3",
			Fields:   []string{audioField},
		},
	}, nil
}

// groupCues partitions cues into contiguous groups of size, in order. The
// last group may be shorter; no cue is dropped or duplicated.
func groupCues(cues []types.Cue, size int) [][]types.Cue {
	if len(cues) == 0 {
		return nil
	}
	groups := make([][]types.Cue, 0, (len(cues)+size-1)/size)
	for start := 0; start < len(cues); start += size {
		end := start + size
		if end > len(cues) {
			end = len(cues)
		}
		groups = append(groups, cues[start:end])
	}
	return groups
}

func combinedText(group []types.Cue) string {
	texts := make([]string, len(group))
	for i, c := range group {
		texts[i] = c.Text
	}
	return strings.Join(texts, "\n")
}
