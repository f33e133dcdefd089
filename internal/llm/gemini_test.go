package llm

import (
	"context"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiText(t *testing.T) {
	assert.Empty(t, geminiText(nil))
	assert.Empty(t, geminiText(&genai.GenerateContentResponse{}))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: nil},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"themes":`), genai.Text(` []}`)}}},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("ignored")}}},
		},
	}
	assert.Equal(t, `{"themes": []}`, geminiText(resp))
}

func TestGeminiUnconfigured(t *testing.T) {
	g := NewGeminiProvider("gemini-1.5-flash", "", "", time.Second)
	assert.False(t, g.IsConfigured())

	_, err := g.Generate(context.Background(), Request{Prompt: "hi"})
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "configuration", Kind(err))
}
