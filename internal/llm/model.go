// Package llm wraps langchaingo for task assistance generation.
package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// Generation parameters for structured clinical output. The response
// format forces valid JSON so downstream parsing never sees prose.
const (
	temperature = 0.7
	maxTokens   = 4000
)

// Usage reports token consumption for one generation call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Model wraps a langchaingo OpenAI model configured for JSON output.
type Model struct {
	llm       llms.Model
	modelName string
}

// NewModel creates an OpenAI-backed model.
func NewModel(apiKey, modelName string) (*Model, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key required")
	}
	model, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithModel(modelName),
		openai.WithResponseFormat(openai.ResponseFormatJSON),
	)
	if err != nil {
		return nil, fmt.Errorf("create openai model: %w", err)
	}

	return &Model{
		llm:       model,
		modelName: modelName,
	}, nil
}

// GenerateWithSystem generates a completion from a system and user prompt.
func (m *Model) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, Usage, error) {
	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, userPrompt),
	}

	response, err := m.llm.GenerateContent(ctx, messages,
		llms.WithTemperature(temperature),
		llms.WithMaxTokens(maxTokens),
	)
	if err != nil {
		return "", Usage{}, fmt.Errorf("generate with system: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", Usage{}, fmt.Errorf("no response choices")
	}

	choice := response.Choices[0]
	usage := Usage{
		PromptTokens:     intFromGenerationInfo(choice.GenerationInfo, "PromptTokens"),
		CompletionTokens: intFromGenerationInfo(choice.GenerationInfo, "CompletionTokens"),
	}
	return choice.Content, usage, nil
}

// Model returns the configured model name.
func (m *Model) Model() string {
	return m.modelName
}

func intFromGenerationInfo(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}
