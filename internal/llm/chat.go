package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ChatProvider calls an OpenAI-compatible chat completions endpoint.
type ChatProvider struct {
	URL     string
	Model   string
	Token   string
	Timeout time.Duration
	client  *http.Client
}

// NewChatProvider creates a chat completions provider.
func NewChatProvider(url, model, token string, timeout time.Duration) *ChatProvider {
	return &ChatProvider{
		URL:     url,
		Model:   model,
		Token:   token,
		Timeout: timeoutOrDefault(timeout),
		client:  &http.Client{},
	}
}

// IsConfigured checks that an endpoint and model are set.
func (c *ChatProvider) IsConfigured() bool {
	return c.URL != "" && c.Model != ""
}

// Generate sends the request and returns the trimmed reply text.
func (c *ChatProvider) Generate(ctx context.Context, r Request) (string, error) {
	if !c.IsConfigured() {
		return "", &ConfigurationError{Field: "llm.url", Reason: "is not set"}
	}

	body := map[string]any{
		"model":       c.Model,
		"temperature": r.temperature(),
		"messages": []map[string]string{
			{"role": "system", "content": r.system()},
			{"role": "user", "content": r.Prompt},
		},
	}
	if r.MaxTokens > 0 {
		body["max_tokens"] = r.MaxTokens
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if auth := BearerToken(c.Token); auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", requestError(ctx, "chat", c.Timeout, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", requestError(ctx, "chat", c.Timeout, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Provider: "chat", Code: resp.StatusCode, Body: truncate(strings.TrimSpace(string(raw)), maxErrorBody)}
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", &TransportError{Provider: "chat", Err: fmt.Errorf("decoding response: %w", err)}
	}
	return strings.TrimSpace(replyText(payload)), nil
}

// BearerToken normalises a raw or prefixed token into a header value.
func BearerToken(token string) string {
	token = strings.TrimSpace(token)
	if token == "" || strings.HasPrefix(token, "Bearer ") {
		return token
	}
	return "Bearer " + token
}

// replyText pulls the reply out of the common completion response shapes.
func replyText(payload map[string]any) string {
	if choices, ok := payload["choices"].([]any); ok && len(choices) > 0 {
		if choice, ok := choices[0].(map[string]any); ok {
			if msg, ok := choice["message"].(map[string]any); ok {
				if s, ok := msg["content"].(string); ok && s != "" {
					return s
				}
			}
			if s, ok := choice["text"].(string); ok && s != "" {
				return s
			}
		}
	}
	if msg, ok := payload["message"].(map[string]any); ok {
		if s, ok := msg["content"].(string); ok && s != "" {
			return s
		}
	}
	for _, field := range []string{"output", "response", "content", "text"} {
		if s, ok := payload[field].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
