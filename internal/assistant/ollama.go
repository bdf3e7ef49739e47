package assistant

import (
	openai "github.com/sashabaranov/go-openai"
)

// NewOllamaModel creates an OpenAI-compatible model pointed at a local Ollama
func NewOllamaModel(host string, model string, tools []ToolDefinition) *OpenAIModel {
	if host == "" {
		host = "http://localhost:11434/v1"
	}
	if model == "" {
		model = "llama3.1" // needs a model with tool support
	}

	config := openai.DefaultConfig("ollama") // API Key is ignored by Ollama
	config.BaseURL = host
	config.HTTPClient = newHTTPClient()

	return newOpenAIModel(config, model, tools)
}
