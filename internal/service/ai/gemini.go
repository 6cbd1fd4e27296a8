package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"

	"github.com/nexa-ai/nexa-chat/internal/config"
)

// maxDiagnosticBody bounds how much of an error body is kept for logs.
const maxDiagnosticBody = 512

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type generateRequest struct {
	Contents []geminiContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content *geminiContent `json:"content"`
	} `json:"candidates"`
}

// GeminiClient calls the generateContent REST endpoint with the question as
// the only content unit.
type GeminiClient struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
}

// NewGeminiClient creates a client for cfg. A nil httpClient uses
// http.DefaultClient, so the transport defaults apply.
func NewGeminiClient(cfg config.CompletionConfig, httpClient *http.Client) *GeminiClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GeminiClient{
		httpClient: httpClient,
		endpoint:   fmt.Sprintf("%s/models/%s:generateContent", cfg.BaseURL, url.PathEscape(cfg.Model)),
		apiKey:     cfg.APIKey,
	}
}

// Complete sends question and returns the first candidate's first part text.
func (c *GeminiClient) Complete(ctx context.Context, question string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: question}}}},
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %w", ErrCompletionFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?key="+url.QueryEscape(c.apiKey), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %w", ErrCompletionFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error 会带上完整 URL，其中包含 key，这里只保留底层错误。
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return "", fmt.Errorf("%w: send request: %w", ErrCompletionFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %w", ErrCompletionFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", completionError("status %d: %s", resp.StatusCode, truncate(body, maxDiagnosticBody))
	}

	var decoded generateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", ErrCompletionFailed, err)
	}

	answer, ok := firstPartText(decoded)
	if !ok {
		return "", completionError("response missing candidates[0].content.parts[0].text: %s", truncate(body, maxDiagnosticBody))
	}

	log.Printf("[ai] gemini answered, length=%d", len(answer))
	return answer, nil
}

func firstPartText(resp generateResponse) (string, bool) {
	if len(resp.Candidates) == 0 {
		return "", false
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return "", false
	}
	text := content.Parts[0].Text
	return text, text != ""
}

func truncate(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}
