package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

// OpenAIProvider uses the OpenAI Responses API. Requests carrying a Schema
// are sent with strict structured output.
type OpenAIProvider struct {
	Model   string
	Timeout time.Duration
	apiKey  string
	client  openai.Client
}

// NewOpenAIProvider creates a provider. baseURL may be empty.
func NewOpenAIProvider(model, apiKey, baseURL string, timeout time.Duration) *OpenAIProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIProvider{
		Model:   model,
		Timeout: timeoutOrDefault(timeout),
		apiKey:  apiKey,
		client:  openai.NewClient(opts...),
	}
}

// IsConfigured checks if the API key and model are set.
func (o *OpenAIProvider) IsConfigured() bool {
	return o.apiKey != "" && o.Model != ""
}

// Generate sends one Responses API call.
func (o *OpenAIProvider) Generate(ctx context.Context, r Request) (string, error) {
	if !o.IsConfigured() {
		return "", &ConfigurationError{Field: "llm.token", Reason: "is required for the openai provider"}
	}

	params := responses.ResponseNewParams{
		Model:        o.Model,
		Instructions: openai.String(r.system()),
		Temperature:  openai.Float(r.temperature()),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(r.Prompt, responses.EasyInputMessageRoleUser),
			},
		},
	}
	if r.MaxTokens > 0 {
		params.MaxOutputTokens = openai.Int(int64(r.MaxTokens))
	}
	if r.Schema != nil {
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:        r.Schema.Name,
					Schema:      r.Schema.Definition,
					Strict:      openai.Bool(true),
					Description: openai.String(r.Schema.Description),
					Type:        "json_schema",
				},
			},
		}
	}

	ctx, cancel := context.WithTimeout(ctx, o.Timeout)
	defer cancel()

	resp, err := o.client.Responses.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &StatusError{Provider: "openai", Code: apiErr.StatusCode, Body: truncate(apiErr.Message, maxErrorBody)}
		}
		return "", requestError(ctx, "openai", o.Timeout, err)
	}
	return strings.TrimSpace(resp.OutputText()), nil
}
