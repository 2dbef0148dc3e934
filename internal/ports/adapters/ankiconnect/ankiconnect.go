// Package ankiconnect talks to a local AnkiConnect endpoint using its
// {action, version, params} envelope (protocol version 6).
package ankiconnect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ChrisCoy/Automatic-Anki-Cards-From-Video/internal/types"
)

const DefaultURL = "http://127.0.0.1:8765"

type Client struct {
	url    string
	client *http.Client
}

func New(url string) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{url: url, client: &http.Client{Timeout: 30 * time.Second}}
}

// EnsureModel creates the note model unless one with the same name already
// exists, so repeated runs never duplicate or clobber it.
func (c *Client) EnsureModel(ctx context.Context, def types.ModelDefinition) error {
	raw, err := c.invoke(ctx, "modelNames", nil)
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return fmt.Errorf("parse model names: %w", err)
	}
	for _, n := range names {
		if n == def.Name {
			return nil
		}
	}

	_, err = c.invoke(ctx, "createModel", map[string]any{
		"modelName":     def.Name,
		"inOrderFields": def.InOrderFields,
		"css":           def.CSS,
		"cardTemplates": def.CardTemplates,
	})
	if err != nil {
		return fmt.Errorf("create model %q: %w", def.Name, err)
	}
	return nil
}

func (c *Client) EnsureDeck(ctx context.Context, name string) error {
	if _, err := c.invoke(ctx, "createDeck", map[string]any{"deck": name}); err != nil {
		return fmt.Errorf("create deck %q: %w", name, err)
	}
	return nil
}

// AddRecord submits one note. Failures are per-record; callers skip and
// continue.
func (c *Client) AddRecord(ctx context.Context, rec types.FlashcardRecord) error {
	note := map[string]any{
		"deckName":  rec.DeckName,
		"modelName": rec.ModelName,
		"fields":    rec.Fields,
		"tags":      rec.Tags,
		"audio":     []types.Audio{rec.Audio},
	}
	if _, err := c.invoke(ctx, "addNote", map[string]any{"note": note}); err != nil {
		return fmt.Errorf("add note: %w", err)
	}
	return nil
}

func (c *Client) invoke(ctx context.Context, action string, params any) (json.RawMessage, error) {
	body, err := json.Marshal(map[string]any{
		"action":  action,
		"version": 6,
		"params":  params,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ankiconnect %s: %w", action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ankiconnect %s: status %d", action, resp.StatusCode)
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *string         `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("ankiconnect %s: decode response: %w", action, err)
	}
	if envelope.Error != nil && *envelope.Error != "" {
		return nil, fmt.Errorf("ankiconnect %s: %s", action, *envelope.Error)
	}
	return envelope.Result, nil
}
