package factory

import (
	"fmt"

	"invoice-intake-be/pkg/llm"
	"invoice-intake-be/pkg/llm/gemini"
	"invoice-intake-be/pkg/llm/ollama"
)

type Config struct {
	Provider      string
	Model         string
	GeminiAPIKey  string
	GeminiBaseURL string
	OllamaBaseURL string
}

func NewLLMProvider(cfg Config) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "gemini", "":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini provider requires GEMINI_API_KEY")
		}
		model := cfg.Model
		if model == "" {
			model = "gemini-1.5-flash"
		}
		return gemini.NewGeminiProvider(cfg.GeminiBaseURL, cfg.GeminiAPIKey, model), nil
	case "ollama":
		baseURL := cfg.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
