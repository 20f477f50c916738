package normalize

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

const DefaultAssistModel = openai.GPT4oMini

// OpenAIExtractor talks to any OpenAI-compatible chat completion API.
type OpenAIExtractor struct {
	client *openai.Client
	model  string
}

// NewOpenAIExtractor builds an extractor. An empty baseURL keeps the
// library default; an empty model uses DefaultAssistModel.
func NewOpenAIExtractor(apiKey, baseURL, model string) *OpenAIExtractor {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = DefaultAssistModel
	}
	return &OpenAIExtractor{client: openai.NewClientWithConfig(cfg), model: model}
}

func (e *OpenAIExtractor) Extract(ctx context.Context, prompt string) (string, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
