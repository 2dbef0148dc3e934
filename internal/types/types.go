package types

// Cue is a single timed subtitle entry in document order.
type Cue struct {
	StartMs int64  `json:"startMs"`
	EndMs   int64  `json:"endMs"`
	Text    string `json:"text"`
}

// Annotation is the structured output of one translation call. Field
// semantics belong to the completion prompt; the pipeline treats them as
// opaque strings.
type Annotation struct {
	Translation string `json:"translation"`
	Hiragana    string `json:"hiragana"`
	Furigana    string `json:"furigana"`
}

// Message is one turn of a translation session's history.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Fields holds the note fields of an assembled flashcard.
type Fields struct {
	JapaneseReading string `json:"Japanese_Reading"`
	Translated      string `json:"Translated"`
	Furigana        string `json:"Furigana"`
	Hiragana        string `json:"Hiragana"`
}

// Audio is an encoded audio attachment bound to one or more note fields.
type Audio struct {
	Data     string   `json:"data"` // base64
	Filename string   `json:"filename"`
	Fields   []string `json:"fields"`
}

// FlashcardRecord is one assembled note, ready for publishing.
type FlashcardRecord struct {
	DeckName  string   `json:"deckName"`
	ModelName string   `json:"modelName"`
	Fields    Fields   `json:"fields"`
	Tags      []string `json:"tags"`
	Audio     Audio    `json:"audio"`
}

// CardTemplate is one front/back template of a note model.
type CardTemplate struct {
	Name  string `json:"Name"`
	Front string `json:"Front"`
	Back  string `json:"Back"`
}

// ModelDefinition declares a note model to the card-management service.
type ModelDefinition struct {
	Name          string
	InOrderFields []string
	CSS           string
	CardTemplates []CardTemplate
}

// VideoInfo is the metadata subset the pipeline needs from a probe.
type VideoInfo struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Channel     string  `json:"channel"`
	DurationSec float64 `json:"duration"`
}
