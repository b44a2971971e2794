package exnest

import "context"

// Wrapper is a reduced surface over Client for callers that only ever tune
// max tokens. Zero base URL falls back to the default gateway.
type Wrapper struct {
	client *Client
}

// NewWrapper builds a Wrapper for the given credential.
func NewWrapper(apiKey, baseURL string) (*Wrapper, error) {
	client, err := New(Config{APIKey: apiKey, BaseURL: baseURL})
	if err != nil {
		return nil, err
	}
	return &Wrapper{client: client}, nil
}

// Client exposes the underlying full-surface client.
func (w *Wrapper) Client() *Client { return w.client }

func maxTokenOpts(maxTokens int) *ChatOptions {
	if maxTokens <= 0 {
		return nil
	}
	return &ChatOptions{MaxTokens: &maxTokens}
}

// Chat sends a conversation. maxTokens <= 0 leaves the limit unset.
func (w *Wrapper) Chat(ctx context.Context, model string, messages []Message, maxTokens int) (*Response, error) {
	return w.client.Chat(ctx, model, messages, maxTokenOpts(maxTokens))
}

// Completion sends a raw prompt. maxTokens <= 0 leaves the limit unset.
func (w *Wrapper) Completion(ctx context.Context, model, prompt string, maxTokens int) (*Response, error) {
	return w.client.Completion(ctx, model, prompt, maxTokenOpts(maxTokens))
}

// Respond is the single-turn form: one user message in, the full Response
// out. maxTokens defaults to 200 when not positive.
func (w *Wrapper) Respond(ctx context.Context, model, input string, maxTokens int) (*Response, error) {
	if maxTokens <= 0 {
		maxTokens = 200
	}
	return w.client.Chat(ctx, model, []Message{{Role: RoleUser, Content: input}}, maxTokenOpts(maxTokens))
}

// Stream sends a conversation and streams the reply.
func (w *Wrapper) Stream(ctx context.Context, model string, messages []Message, maxTokens int) (<-chan StreamEvent, error) {
	return w.client.ChatStream(ctx, model, messages, maxTokenOpts(maxTokens))
}

// StreamCompletion sends a raw prompt and streams the reply.
func (w *Wrapper) StreamCompletion(ctx context.Context, model, prompt string, maxTokens int) (<-chan StreamEvent, error) {
	return w.client.CompletionStream(ctx, model, prompt, maxTokenOpts(maxTokens))
}

// Models fetches the model catalog.
func (w *Wrapper) Models(ctx context.Context) ([]Model, error) {
	models, _, err := w.client.Models(ctx)
	return models, err
}
