package factory

import (
	"fmt"

	"fleet-assistant-be/pkg/llm"
	"fleet-assistant-be/pkg/llm/anthropic"
	"fleet-assistant-be/pkg/llm/ollama"
	"fleet-assistant-be/pkg/llm/openai"
)

func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "openai":
		return openai.NewOpenAIProvider(apiKey, baseURL, modelName)
	case "anthropic":
		return anthropic.NewAnthropicProvider(apiKey, modelName)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
