package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nexa-ai/nexa-chat/internal/config"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewGeminiClient(config.CompletionConfig{
		APIKey:  "test-key",
		Model:   "gemini-1.5-flash-latest",
		BaseURL: srv.URL + "/v1beta",
	}, srv.Client())
}

func TestGeminiCompleteSendsQuestionAndExtractsAnswer(t *testing.T) {
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1beta/models/gemini-1.5-flash-latest:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("unexpected key %q", got)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}

		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Errorf("request body not JSON: %v", err)
		}
		want := `{"contents":[{"parts":[{"text":"2+2="}]}]}`
		if strings.TrimSpace(string(raw)) != want {
			t.Errorf("unexpected body %s", raw)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"4"}]}}]}`)
	})

	answer, err := client.Complete(context.Background(), "2+2=")
	if err != nil {
		t.Fatalf("Complete err: %v", err)
	}
	if answer != "4" {
		t.Fatalf("expected answer 4, got %q", answer)
	}
}

func TestGeminiCompleteFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"non-2xx status": func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"error":{"message":"API key not valid"}}`, http.StatusBadRequest)
		},
		"missing candidates": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"promptFeedback":{}}`)
		},
		"empty candidates": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"candidates":[]}`)
		},
		"missing content": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"candidates":[{"finishReason":"SAFETY"}]}`)
		},
		"missing parts": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[]}}]}`)
		},
		"malformed body": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `not json`)
		},
	}

	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			client := newTestGemini(t, handler)
			_, err := client.Complete(context.Background(), "hello")
			if !errors.Is(err, ErrCompletionFailed) {
				t.Fatalf("expected ErrCompletionFailed, got %v", err)
			}
		})
	}
}

func TestGeminiCompleteTransportErrorHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	client := NewGeminiClient(config.CompletionConfig{
		APIKey:  "secret-key",
		Model:   "m",
		BaseURL: baseURL,
	}, nil)

	_, err := client.Complete(context.Background(), "hello")
	if !errors.Is(err, ErrCompletionFailed) {
		t.Fatalf("expected ErrCompletionFailed, got %v", err)
	}
	if strings.Contains(err.Error(), "secret-key") {
		t.Fatalf("error leaks api key: %v", err)
	}
}
