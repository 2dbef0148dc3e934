package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ChrisCoy/Automatic-Anki-Cards-From-Video/internal/types"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Adapter) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, New("sk-test-key", "gpt-4.1-mini", srv.URL)
}

func TestComplete_ParsesStructuredAnnotation(t *testing.T) {
	var gotPayload map[string]any
	_, a := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"{\"translation\":\"vou\",\"hiragana\":\"いく\",\"furigana\":\"<kj>行<fr>い</fr></kj>く\"}"}}]}`)
	})

	history := []types.Message{
		{Role: "user", Content: "earlier line"},
		{Role: "assistant", Content: `{"translation":"x","hiragana":"","furigana":""}`},
	}
	ann, err := a.Complete(context.Background(), "system prompt", history, "行く")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if ann.Translation != "vou" || ann.Hiragana != "いく" {
		t.Fatalf("unexpected annotation: %+v", ann)
	}

	msgs, ok := gotPayload["messages"].([]any)
	if !ok || len(msgs) != 4 {
		t.Fatalf("expected 4 messages (system, 2 history, user), got %v", gotPayload["messages"])
	}
	roles := make([]string, 0, 4)
	for _, m := range msgs {
		roles = append(roles, m.(map[string]any)["role"].(string))
	}
	if strings.Join(roles, ",") != "system,user,assistant,user" {
		t.Fatalf("unexpected message order: %v", roles)
	}
	rf, ok := gotPayload["response_format"].(map[string]any)
	if !ok || rf["type"] != "json_schema" {
		t.Fatalf("expected json_schema response format, got %v", gotPayload["response_format"])
	}
}

func TestComplete_FencedContentIsAccepted(t *testing.T) {
	_, a := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		body := "```json\n{\"translation\":\"t\",\"hiragana\":\"h\",\"furigana\":\"f\"}\n```"
		resp := map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": body}}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	ann, err := a.Complete(context.Background(), "s", nil, "u")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if ann.Translation != "t" {
		t.Fatalf("unexpected annotation: %+v", ann)
	}
}

func TestComplete_MissingFieldIsAnError(t *testing.T) {
	_, a := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"content":"{\"translation\":\"only\"}"}}]}`)
	})

	if _, err := a.Complete(context.Background(), "s", nil, "u"); err == nil {
		t.Fatalf("expected error for schema-violating response")
	}
}

func TestComplete_UnauthorizedIsMappedAndRedacted(t *testing.T) {
	_, a := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key sk-test-key"}}`)
	})

	_, err := a.Complete(context.Background(), "s", nil, "u")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "invalid or expired") {
		t.Fatalf("unexpected error text: %v", err)
	}
	if strings.Contains(err.Error(), "sk-test-key") {
		t.Fatalf("expected key to be absent from error: %v", err)
	}
}

func TestStatusError_InsufficientQuota(t *testing.T) {
	err := statusError(http.StatusTooManyRequests, `{"error":{"code":"insufficient_quota"}}`)
	if !strings.Contains(err.Error(), "no credits") {
		t.Fatalf("unexpected error: %v", err)
	}
	err = statusError(http.StatusTooManyRequests, `{}`)
	if !strings.Contains(err.Error(), "rate limit") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_SurfacesServerError(t *testing.T) {
	_, a := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	if err := a.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping to fail")
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantSub string
		wantErr bool
	}{
		{"raw", `{"translation":"t","hiragana":"h","furigana":"f"}`, `"translation"`, false},
		{"fenced", "```json\n{\"translation\":\"t\"}\n```", `"translation"`, false},
		{"preface", "sure! {\"translation\":\"t\"} thanks", `"translation"`, false},
		{"empty", "   ", "", true},
		{"nojson", "hello", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSONObject(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(got, tt.wantSub) {
				t.Fatalf("expected %q to contain %q", got, tt.wantSub)
			}
		})
	}
}

func TestRedactSecrets(t *testing.T) {
	apiKey := "sk-super-secret"
	in := `status 401; Authorization: Bearer sk-super-secret; api_key=sk-super-secret`
	got := redactSecrets(in, apiKey)

	if strings.Contains(got, apiKey) {
		t.Fatalf("expected API key to be redacted, got: %q", got)
	}
	if !strings.Contains(got, "Authorization: [REDACTED]") {
		t.Fatalf("expected authorization header to be redacted, got: %q", got)
	}
}
