package llm

import "context"

type Message struct {
	Role    string
	Content string
}

type Response struct {
	Content     string
	Model       string
	TotalTokens int
}

// Client is the generative transform collaborator. Implementations wrap
// one remote model API.
type Client interface {
	Generate(ctx context.Context, messages []Message) (Response, error)
}
