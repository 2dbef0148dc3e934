package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/ChrisCoy/Automatic-Anki-Cards-From-Video/internal/types"
)

type Adapter struct {
	key     string
	model   string
	baseURL string
	client  *http.Client
}

const requestTimeout = 90 * time.Second

func New(apiKey, model, baseURL string) *Adapter {
	if model == "" {
		model = "gpt-4.1-mini"
	}
	baseURL = normalizeBaseURL(baseURL)
	return &Adapter{key: apiKey, model: model, baseURL: baseURL, client: &http.Client{Timeout: 5 * time.Minute}}
}

// Complete runs one chat completion with a strict JSON-schema response
// format matching the annotation shape. History goes oldest-first between
// the system instruction and the new user turn.
func (a *Adapter) Complete(ctx context.Context, system string, history []types.Message, user string) (types.Annotation, error) {
	msgs := make([]map[string]string, 0, len(history)+2)
	msgs = append(msgs, map[string]string{"role": "system", "content": system})
	for _, m := range history {
		msgs = append(msgs, map[string]string{"role": m.Role, "content": m.Content})
	}
	msgs = append(msgs, map[string]string{"role": "user", "content": user})

	payload := map[string]any{
		"model":       a.model,
		"temperature": 1,
		"messages":    msgs,
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "translate_japanese_lyrics",
				"strict": true,
				"schema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"translation": map[string]any{"type": "string"},
						"hiragana":    map[string]any{"type": "string"},
						"furigana":    map[string]any{"type": "string"},
					},
					"required":             []string{"translation", "hiragana", "furigana"},
					"additionalProperties": false,
				},
			},
		},
	}

	content, err := a.chat(ctx, payload)
	if err != nil {
		return types.Annotation{}, err
	}

	clean, err := extractJSONObject(content)
	if err != nil {
		return types.Annotation{}, err
	}

	var out struct {
		Translation *string `json:"translation"`
		Hiragana    *string `json:"hiragana"`
		Furigana    *string `json:"furigana"`
	}
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return types.Annotation{}, fmt.Errorf("openai: unmarshal annotation: %w", err)
	}
	if out.Translation == nil || out.Hiragana == nil || out.Furigana == nil {
		return types.Annotation{}, fmt.Errorf("openai: response missing annotation fields: %s", truncate(clean, 200))
	}
	return types.Annotation{
		Translation: *out.Translation,
		Hiragana:    *out.Hiragana,
		Furigana:    *out.Furigana,
	}, nil
}

// Ping issues a minimal completion to surface key and quota problems before
// any real work starts.
func (a *Adapter) Ping(ctx context.Context) error {
	payload := map[string]any{
		"model":      a.model,
		"max_tokens": 5,
		"messages": []map[string]string{
			{"role": "user", "content": "test"},
		},
	}
	_, err := a.chat(ctx, payload)
	return err
}

func (a *Adapter) chat(ctx context.Context, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	url := a.baseURL + "/v1/chat/completions"

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+a.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("openai timeout after %s (model=%s)", requestTimeout, a.model)
		}
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return "", fmt.Errorf("openai status %d and read body failed: %v", resp.StatusCode, readErr)
		}
		return "", statusError(resp.StatusCode, redactSecrets(string(rb), a.key))
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content any     `json:"content"`
				Refusal *string `json:"refusal"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", err
	}
	if len(raw.Choices) == 0 {
		return "", errors.New("openai: no choices in response")
	}
	if r := raw.Choices[0].Message.Refusal; r != nil && *r != "" {
		return "", fmt.Errorf("openai: model refused: %s", truncate(*r, 200))
	}
	return messageContentToString(raw.Choices[0].Message.Content)
}

// statusError maps the auth and quota statuses to operator-readable
// messages; everything else keeps the (redacted) body.
func statusError(status int, body string) error {
	switch status {
	case http.StatusUnauthorized:
		return errors.New("openai: API key is invalid or expired")
	case http.StatusTooManyRequests:
		if strings.Contains(body, "insufficient_quota") {
			return errors.New("openai: no credits available on this account")
		}
		return errors.New("openai: rate limit exceeded")
	default:
		return fmt.Errorf("openai status %d: %s", status, truncate(body, 400))
	}
}

func messageContentToString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []any:
		// Some providers return an array of {type,text} parts.
		var b strings.Builder
		for _, it := range x {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			if t, ok := m["text"].(string); ok {
				b.WriteString(t)
			}
		}
		s := b.String()
		if strings.TrimSpace(s) == "" {
			return "", errors.New("openai: empty content")
		}
		return s, nil
	default:
		return "", fmt.Errorf("openai: unexpected content type %T", v)
	}
}

func extractJSONObject(s string) (string, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", errors.New("openai: empty content")
	}

	// Strip markdown code fences.
	if strings.HasPrefix(t, "```") {
		if i := strings.Index(t, "\n"); i >= 0 {
			t = t[i+1:]
		}
		if j := strings.LastIndex(t, "```"); j >= 0 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}

	// Best-effort: take the first JSON object found.
	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start >= 0 && end > start {
		return t[start : end+1], nil
	}

	return "", fmt.Errorf("openai: could not locate JSON object in: %q", truncate(t, 200))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var (
	bearerTokenRE = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`)
	authHeaderRE  = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)([^\n\r,;]+)`)
	apiKeyFieldRE = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([^\n\r,;]+)`)
)

func redactSecrets(s, apiKey string) string {
	if s == "" {
		return s
	}
	out := s
	if apiKey != "" {
		out = strings.ReplaceAll(out, apiKey, "[REDACTED]")
	}
	out = bearerTokenRE.ReplaceAllString(out, "Bearer [REDACTED]")
	out = authHeaderRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
	return out
}
