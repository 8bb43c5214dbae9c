package llm

import (
	"context"
	"sync"
)

// FakeClient returns a canned response and records the prompts it saw.
type FakeClient struct {
	Reply string
	Err   error

	mu      sync.Mutex
	prompts []string
}

func NewFake(reply string, err error) *FakeClient {
	return &FakeClient{Reply: reply, Err: err}
}

func (f *FakeClient) Generate(_ context.Context, messages []Message) (Response, error) {
	f.mu.Lock()
	for _, m := range messages {
		f.prompts = append(f.prompts, m.Content)
	}
	f.mu.Unlock()

	if f.Err != nil {
		return Response{}, f.Err
	}
	return Response{Content: f.Reply, Model: "fake"}, nil
}

// Prompts returns every message content passed to Generate so far.
func (f *FakeClient) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.prompts))
	copy(out, f.prompts)
	return out
}
