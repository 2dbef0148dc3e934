// Package translate keeps short-term conversational context across
// completion calls so the model sees a few previous lyric lines when
// annotating the next one.
package translate

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ChrisCoy/Automatic-Anki-Cards-From-Video/internal/ports"
	"github.com/ChrisCoy/Automatic-Anki-Cards-From-Video/internal/types"
)

// DefaultSessionID is used by callers that don't manage session ids.
const DefaultSessionID = "default"

// maxExchanges bounds a session's history to the last N request/response
// pairs. Older messages are dropped oldest-first.
const maxExchanges = 3

const defaultSystemPrompt = `Você é um agente de tradução de músicas japonesas para pt-BR.

REGRAS:
- Saída SEMPRE no formato do schema (translation, hiragana, furigana).
- Tradução: natural em pt-BR, fiel ao sentido (sem floreios).
- Hiragana: escreva todo o texto em hiragana (se houver katakana/kanji, converta).
- Furigana: sempre que houver kanjis forneça a leitura em furigana na seguinte estrutura: <kj>kanji<fr>furigana</fr></kj>.
- NÃO inclua comentários, notas ou exemplos fora do schema.
- Se o input não estiver em japonês, ainda assim responda nos três campos (furigana e hiragana podem ficar vazios se não fizer sentido).`

const userTurnPrefix = "Trecho da música (japonês):\n\n"

type session struct {
	mu       sync.Mutex
	messages []types.Message
}

// Translator runs structured completions with per-session bounded history.
// The zero value is not usable; construct with New. A Translator is created
// per run and discarded with it, so no context leaks across runs.
type Translator struct {
	completer ports.Completer
	system    string

	mu       sync.Mutex
	sessions map[string]*session
}

// New returns a Translator backed by the given completion service. An empty
// systemPrompt selects the built-in one.
func New(completer ports.Completer, systemPrompt string) *Translator {
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}
	return &Translator{
		completer: completer,
		system:    systemPrompt,
		sessions:  make(map[string]*session),
	}
}

// Translate annotates text within the session's accumulated context. The
// history is only appended after a successful structured response, so a
// failed call leaves the session exactly as it was. Calls on the same
// session id are serialized.
func (t *Translator) Translate(ctx context.Context, text, sessionID string) (types.Annotation, error) {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	s := t.session(sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()

	user := userTurnPrefix + text
	ann, err := t.completer.Complete(ctx, t.system, s.messages, user)
	if err != nil {
		return types.Annotation{}, err
	}

	reply, merr := json.Marshal(ann)
	if merr != nil {
		// Annotation is plain strings; this cannot realistically fail.
		reply = []byte(ann.Translation)
	}
	s.messages = append(s.messages,
		types.Message{Role: "user", Content: user},
		types.Message{Role: "assistant", Content: string(reply)},
	)
	s.messages = trim(s.messages, maxExchanges)

	return ann, nil
}

// History returns a copy of the session's current messages, oldest first.
func (t *Translator) History(sessionID string) []types.Message {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	s := t.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (t *Translator) session(id string) *session {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[id]
	if !ok {
		s = &session{}
		t.sessions[id] = s
	}
	return s
}

// trim drops the oldest messages until at most maxPairs request/response
// pairs remain, preserving the relative order of the rest.
func trim(msgs []types.Message, maxPairs int) []types.Message {
	limit := maxPairs * 2
	if len(msgs) <= limit {
		return msgs
	}
	return msgs[len(msgs)-limit:]
}
