package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GeminiProvider uses the Gemini API. Requests carrying a Schema ask for a
// JSON reply; the schema itself travels in the prompt.
type GeminiProvider struct {
	Model    string
	Timeout  time.Duration
	apiKey   string
	endpoint string
}

// NewGeminiProvider creates a provider. endpoint may be empty.
func NewGeminiProvider(model, apiKey, endpoint string, timeout time.Duration) *GeminiProvider {
	return &GeminiProvider{
		Model:    model,
		Timeout:  timeoutOrDefault(timeout),
		apiKey:   apiKey,
		endpoint: strings.TrimSpace(endpoint),
	}
}

// IsConfigured checks if the API key and model are set.
func (g *GeminiProvider) IsConfigured() bool {
	return g.apiKey != "" && g.Model != ""
}

// Generate sends one GenerateContent call on a short-lived client.
func (g *GeminiProvider) Generate(ctx context.Context, r Request) (string, error) {
	if !g.IsConfigured() {
		return "", &ConfigurationError{Field: "llm.token", Reason: "is required for the gemini provider"}
	}

	ctx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	opts := []option.ClientOption{option.WithAPIKey(g.apiKey)}
	if g.endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.endpoint))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", requestError(ctx, "gemini", g.Timeout, err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.Model)
	model.SetTemperature(float32(r.temperature()))
	if r.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(r.MaxTokens))
	}
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(r.system())}}
	if r.Schema != nil {
		model.ResponseMIMEType = "application/json"
	}

	resp, err := model.GenerateContent(ctx, genai.Text(r.Prompt))
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return "", &StatusError{Provider: "gemini", Code: apiErr.Code, Body: truncate(apiErr.Message, maxErrorBody)}
		}
		return "", requestError(ctx, "gemini", g.Timeout, err)
	}
	return geminiText(resp), nil
}

// geminiText joins the text parts of the first candidate with content.
func geminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		return strings.TrimSpace(b.String())
	}
	return ""
}
