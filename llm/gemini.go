package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// Gemini's OpenAI-compatible chat completion surface.
const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

type GeminiClient struct {
	client *openai.Client
	model  string
}

func NewGemini(apiKey, model string) *GeminiClient {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = geminiBaseURL
	return &GeminiClient{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

func (c *GeminiClient) Generate(ctx context.Context, messages []Message) (Response, error) {
	oaMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: oaMsgs,
	})
	if err != nil {
		return Response{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("chat completion returned no choices")
	}

	return Response{
		Content:     resp.Choices[0].Message.Content,
		Model:       c.model,
		TotalTokens: resp.Usage.TotalTokens,
	}, nil
}
