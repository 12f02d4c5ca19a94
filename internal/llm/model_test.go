package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

type fakeLLM struct {
	response *llms.ContentResponse
	err      error

	gotMessages []llms.MessageContent
}

func (f *fakeLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.gotMessages = messages
	return f.response, f.err
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", errors.New("not used")
}

func TestGenerateWithSystem(t *testing.T) {
	fake := &fakeLLM{response: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			Content: `{"task_title":"Hyperglycemia follow-up"}`,
			GenerationInfo: map[string]any{
				"PromptTokens":     1200,
				"CompletionTokens": float64(600),
			},
		}},
	}}
	model := &Model{llm: fake, modelName: "gpt-4-turbo-preview"}

	content, usage, err := model.GenerateWithSystem(context.Background(), "system text", "user text")
	require.NoError(t, err)
	assert.Equal(t, `{"task_title":"Hyperglycemia follow-up"}`, content)
	assert.Equal(t, 1200, usage.PromptTokens)
	assert.Equal(t, 600, usage.CompletionTokens)

	require.Len(t, fake.gotMessages, 2)
	assert.Equal(t, schema.ChatMessageTypeSystem, fake.gotMessages[0].Role)
	assert.Equal(t, schema.ChatMessageTypeHuman, fake.gotMessages[1].Role)
}

func TestGenerateWithSystemNoChoices(t *testing.T) {
	model := &Model{llm: &fakeLLM{response: &llms.ContentResponse{}}}

	_, _, err := model.GenerateWithSystem(context.Background(), "s", "u")
	assert.ErrorContains(t, err, "no response choices")
}

func TestGenerateWithSystemPropagatesError(t *testing.T) {
	model := &Model{llm: &fakeLLM{err: errors.New("rate limited")}}

	_, _, err := model.GenerateWithSystem(context.Background(), "s", "u")
	assert.ErrorContains(t, err, "rate limited")
}

func TestGenerateWithSystemMissingUsage(t *testing.T) {
	fake := &fakeLLM{response: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: "{}"}},
	}}
	model := &Model{llm: fake}

	_, usage, err := model.GenerateWithSystem(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Zero(t, usage.PromptTokens)
	assert.Zero(t, usage.CompletionTokens)
}

func TestNewModelRequiresKey(t *testing.T) {
	_, err := NewModel("", "gpt-4-turbo-preview")
	assert.Error(t, err)
}
