package factory

import (
	"testing"

	"invoice-intake-be/pkg/llm/gemini"
	"invoice-intake-be/pkg/llm/ollama"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProvider(t *testing.T) {
	p, err := NewLLMProvider(Config{Provider: "gemini", GeminiAPIKey: "k"})
	require.NoError(t, err)
	g, ok := p.(*gemini.GeminiProvider)
	require.True(t, ok)
	assert.Equal(t, "gemini-1.5-flash", g.ModelName)
	assert.Equal(t, gemini.DefaultBaseURL, g.BaseURL)

	p, err = NewLLMProvider(Config{Provider: "ollama", Model: "llava"})
	require.NoError(t, err)
	o, ok := p.(*ollama.OllamaProvider)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:11434", o.BaseURL)

	_, err = NewLLMProvider(Config{Provider: "gemini"})
	assert.Error(t, err)

	_, err = NewLLMProvider(Config{Provider: "huggingface"})
	assert.Error(t, err)
}
